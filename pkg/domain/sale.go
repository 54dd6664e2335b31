package domain

import (
	"time"
)

// Sale represents one transaction header from the sales workbook.
// A sale owns zero or more SaleLines keyed by SaleID.
type Sale struct {
	ID            int       `json:"id" db:"id" validate:"required"`
	Date          time.Time `json:"date" db:"date"`
	HasDate       bool      `json:"-" db:"-"`
	CustomerID    int       `json:"customer_id" db:"customer_id"`
	PaymentMethod string    `json:"payment_method,omitempty" db:"payment_method"`
}

// SaleLine represents one line item from the sale details workbook.
type SaleLine struct {
	SaleID    int     `json:"sale_id" db:"sale_id" validate:"required"`
	ProductID int     `json:"product_id" db:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" db:"quantity" validate:"min=0"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Amount    float64 `json:"amount" db:"amount"`

	// Presence flags for optional columns. The merger uses them to apply the
	// line-over-catalog price priority and to decide whether the amount was
	// declared by the source or must be derived.
	HasUnitPrice bool `json:"-" db:"-"`
	HasAmount    bool `json:"-" db:"-"`
}

package domain

import (
	"time"
)

// UnifiedRecord is one sale line enriched with its parent sale and product
// attributes: the flattening of SaleLine with Sale and Product.
// Amount is kept verbatim when the source declared it; divergence from
// Quantity*UnitPrice is counted upstream, never corrected.
type UnifiedRecord struct {
	SaleID        int       `json:"sale_id" db:"sale_id"`
	Date          time.Time `json:"date" db:"date"`
	CustomerID    int       `json:"customer_id" db:"customer_id"`
	PaymentMethod string    `json:"payment_method,omitempty" db:"payment_method"`
	ProductID     int       `json:"product_id" db:"product_id"`
	ProductName   string    `json:"product_name,omitempty" db:"product_name"`
	Category      string    `json:"category,omitempty" db:"category"`
	Quantity      int       `json:"quantity" db:"quantity"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	Amount        float64   `json:"amount" db:"amount"`
}

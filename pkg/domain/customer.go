package domain

import (
	"time"
)

// Customer represents immutable customer reference data loaded from the
// customers workbook.
type Customer struct {
	ID         int       `json:"id" db:"id" validate:"required"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	City       string    `json:"city,omitempty" db:"city"`
	SignupDate time.Time `json:"signup_date,omitempty" db:"signup_date"`
}

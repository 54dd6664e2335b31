package domain

import (
	"time"
)

// Month is a calendar month identified by the timestamp of its first day.
type Month = time.Time

// MonthlyMatrix is a dense product-by-month table of summed quantities.
// Months covers the full contiguous range between the earliest and latest
// observed months in ascending order; every product has a row with one cell
// per month, zero-filled where the product had no sales. Downstream lag
// windowing relies on this positional alignment.
type MonthlyMatrix struct {
	Months     []Month         `json:"months"`
	ProductIDs []int           `json:"product_ids"`
	Quantities map[int][]int64 `json:"quantities"`
}

// Quantity returns the summed quantity for a product in the month at the
// given column index.
func (m *MonthlyMatrix) Quantity(productID int, col int) int64 {
	row, ok := m.Quantities[productID]
	if !ok || col < 0 || col >= len(row) {
		return 0
	}
	return row[col]
}

// Total sums every cell in the matrix. Merging then re-aggregating conserves
// total quantity, so this must equal the sum of quantities over the unified
// records that produced the matrix.
func (m *MonthlyMatrix) Total() int64 {
	var total int64
	for _, row := range m.Quantities {
		for _, q := range row {
			total += q
		}
	}
	return total
}

// SupervisedSample is one product's trailing-window training example:
// Features holds the quantities of the window months in chronological order
// and Target the quantity of the most recent month.
type SupervisedSample struct {
	ProductID int       `json:"product_id"`
	Features  []float64 `json:"features"`
	Target    float64   `json:"target"`
}

// SupervisedDataset is the fixed-width lag-feature dataset built from a
// MonthlyMatrix: one sample per product, samples ordered by ascending
// product id for deterministic downstream behavior.
type SupervisedDataset struct {
	Samples       []SupervisedSample `json:"samples"`
	FeatureMonths []Month            `json:"feature_months"`
	TargetMonth   Month              `json:"target_month"`
}

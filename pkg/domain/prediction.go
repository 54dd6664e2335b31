package domain

// Prediction is one product's estimated demand for the next month, or its
// ranking proxy value depending on the estimator mode.
type Prediction struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Value       float64 `json:"value"`
}

// RankingEntry is one row of a ranked demand table, historical or predicted.
// Rank starts at 1.
type RankingEntry struct {
	Rank        int     `json:"rank"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Value       float64 `json:"value"`
}

package domain

// Product represents catalog reference data loaded from the products workbook.
// CatalogPrice is the list price; the price actually charged lives on the
// sale line and takes priority during merging.
type Product struct {
	ID           int     `json:"id" db:"id" validate:"required"`
	Name         string  `json:"name" db:"name"`
	Category     string  `json:"category,omitempty" db:"category"`
	CatalogPrice float64 `json:"catalog_price" db:"catalog_price" validate:"min=0"`

	// HasCatalogPrice distinguishes a genuine zero price from an absent or
	// unparseable cell, so the price priority rule can fall through to zero
	// only when nothing was declared.
	HasCatalogPrice bool `json:"-" db:"-"`
}

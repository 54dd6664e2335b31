package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcli/internal/config"
	"retailcli/internal/loader"
	"retailcli/pkg/domain"
)

func testCfg() config.PipelineConfig {
	return config.PipelineConfig{
		WindowMonths:     3,
		TopN:             10,
		MinSamples:       10,
		Seed:             42,
		Trees:            200,
		TestFraction:     0.2,
		Mode:             "regression",
		AmountTolerance:  0.01,
		DropAlertPercent: 30,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMerge_PricePriority(t *testing.T) {
	tests := []struct {
		name      string
		line      domain.SaleLine
		product   domain.Product
		wantPrice float64
	}{
		{
			name:      "line price wins over catalog",
			line:      domain.SaleLine{SaleID: 1, ProductID: 101, Quantity: 2, UnitPrice: 1400, HasUnitPrice: true},
			product:   domain.Product{ID: 101, CatalogPrice: 1500, HasCatalogPrice: true},
			wantPrice: 1400,
		},
		{
			name:      "catalog price when line has none",
			line:      domain.SaleLine{SaleID: 1, ProductID: 101, Quantity: 2},
			product:   domain.Product{ID: 101, CatalogPrice: 1500, HasCatalogPrice: true},
			wantPrice: 1500,
		},
		{
			name:      "zero when neither declares a price",
			line:      domain.SaleLine{SaleID: 1, ProductID: 101, Quantity: 2},
			product:   domain.Product{ID: 101},
			wantPrice: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := &loader.Tables{
				Products:  []domain.Product{tt.product},
				Sales:     []domain.Sale{{ID: 1, Date: day(2024, 1, 15), HasDate: true}},
				SaleLines: []domain.SaleLine{tt.line},
			}
			result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
			require.Len(t, result.Records, 1)
			assert.InDelta(t, tt.wantPrice, result.Records[0].UnitPrice, 1e-9)
		})
	}
}

func TestMerge_AmountKeptVerbatimAndMismatchCounted(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{{ID: 101, CatalogPrice: 1500, HasCatalogPrice: true}},
		Sales:    []domain.Sale{{ID: 1, Date: day(2024, 1, 15), HasDate: true}},
		SaleLines: []domain.SaleLine{
			// Declared amount disagrees with 2*1400=2800: counted, never fixed.
			{SaleID: 1, ProductID: 101, Quantity: 2, UnitPrice: 1400, HasUnitPrice: true, Amount: 999, HasAmount: true},
			// Declared amount within tolerance of 1*1500.
			{SaleID: 1, ProductID: 101, Quantity: 1, Amount: 1500.005, HasAmount: true},
			// No declared amount: derived from quantity*price.
			{SaleID: 1, ProductID: 101, Quantity: 3, UnitPrice: 1450, HasUnitPrice: true},
		},
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	require.Len(t, result.Records, 3)

	assert.Equal(t, 1, result.AmountMismatches)
	assert.InDelta(t, 999.0, result.Records[0].Amount, 1e-9)
	assert.InDelta(t, 1500.005, result.Records[1].Amount, 1e-9)
	assert.InDelta(t, 4350.0, result.Records[2].Amount, 1e-9)
}

func TestMerge_MismatchCountedEvenWhenRowIsDateless(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{{ID: 101, CatalogPrice: 100, HasCatalogPrice: true}},
		Sales:    []domain.Sale{{ID: 1}}, // no parseable date
		SaleLines: []domain.SaleLine{
			{SaleID: 1, ProductID: 101, Quantity: 2, Amount: 1, HasAmount: true},
		},
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.AmountMismatches)
	assert.Equal(t, 1, result.DroppedNoDate)
}

func TestMerge_DropsDatelessRowsAndCounts(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{{ID: 101, CatalogPrice: 100, HasCatalogPrice: true}},
	}
	for i := 1; i <= 100; i++ {
		sale := domain.Sale{ID: i}
		if i > 5 {
			sale.Date = day(2024, 1, i%28+1)
			sale.HasDate = true
		}
		tables.Sales = append(tables.Sales, sale)
		tables.SaleLines = append(tables.SaleLines, domain.SaleLine{SaleID: i, ProductID: 101, Quantity: 1})
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	assert.Equal(t, 95, result.Retained)
	assert.Equal(t, 5, result.DroppedNoDate)
	assert.Len(t, result.Records, 95)
}

func TestMerge_OrphanLinesAndSalesWithoutLines(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{{ID: 101, CatalogPrice: 100, HasCatalogPrice: true}},
		Sales: []domain.Sale{
			{ID: 1, Date: day(2024, 1, 15), HasDate: true},
			{ID: 2, Date: day(2024, 1, 16), HasDate: true}, // no lines
		},
		SaleLines: []domain.SaleLine{
			{SaleID: 1, ProductID: 101, Quantity: 2},
			{SaleID: 999, ProductID: 101, Quantity: 4}, // no matching sale
		},
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.OrphanLines)
	assert.Equal(t, 1, result.SalesWithoutLines)
}

func TestMerge_JoinsProductAttributes(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{{ID: 101, Name: "Yerba Mate 1kg", Category: "Almacen", CatalogPrice: 1500, HasCatalogPrice: true}},
		Sales:    []domain.Sale{{ID: 1, Date: day(2024, 1, 15), HasDate: true, CustomerID: 7, PaymentMethod: "tarjeta"}},
		SaleLines: []domain.SaleLine{
			{SaleID: 1, ProductID: 101, Quantity: 2},
			{SaleID: 1, ProductID: 999, Quantity: 1}, // unknown product still merges
		},
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	require.Len(t, result.Records, 2)

	r := result.Records[0]
	assert.Equal(t, "Yerba Mate 1kg", r.ProductName)
	assert.Equal(t, "Almacen", r.Category)
	assert.Equal(t, 7, r.CustomerID)
	assert.Equal(t, "tarjeta", r.PaymentMethod)

	unknown := result.Records[1]
	assert.Empty(t, unknown.ProductName)
	assert.InDelta(t, 0.0, unknown.UnitPrice, 1e-9)
}

func TestMerge_QuantityConservedThroughAggregation(t *testing.T) {
	tables := &loader.Tables{
		Products: []domain.Product{
			{ID: 101, CatalogPrice: 100, HasCatalogPrice: true},
			{ID: 102, CatalogPrice: 200, HasCatalogPrice: true},
		},
	}
	var wantTotal int64
	for i := 1; i <= 40; i++ {
		tables.Sales = append(tables.Sales, domain.Sale{
			ID: i, Date: day(2024, time.Month(i%6+1), i%28+1), HasDate: true,
		})
		qty := i%7 + 1
		wantTotal += int64(qty)
		tables.SaleLines = append(tables.SaleLines, domain.SaleLine{
			SaleID: i, ProductID: 101 + i%2, Quantity: qty,
		})
	}

	result := NewMerger(testCfg(), nil).Merge(context.Background(), tables)
	matrix, err := BuildMonthlyMatrix(context.Background(), result.Records)
	require.NoError(t, err)
	assert.Equal(t, wantTotal, matrix.Total(), "matrix total must equal merged quantity sum")
}

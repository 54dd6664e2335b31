package pipeline

import (
	"context"
	"log/slog"
	"math"

	"retailcli/internal/config"
	"retailcli/internal/loader"
	"retailcli/pkg/domain"
)

// MergeResult carries the unified records plus the accounting counters the
// merge produces. The counters are observability signals: nothing is
// auto-corrected.
type MergeResult struct {
	Records []domain.UnifiedRecord

	Retained          int
	DroppedNoDate     int
	OrphanLines       int
	SalesWithoutLines int
	AmountMismatches  int
}

// Merger joins the four record sets into one unified per-line record set,
// resolving the colliding unit price columns with the line-over-catalog
// priority rule.
type Merger struct {
	logger          *slog.Logger
	amountTolerance float64
}

// NewMerger creates a merger configured with the pipeline's amount tolerance.
func NewMerger(cfg config.PipelineConfig, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger, amountTolerance: cfg.AmountTolerance}
}

// Merge flattens every sale line with its parent sale and product.
//
// Price resolution: the line price wins when present, else the catalog
// price, else zero. A declared amount is kept verbatim; rows whose declared
// amount disagrees with quantity*price beyond the tolerance are counted,
// never corrected. Rows whose parent sale has no parseable date are dropped
// and counted, because downstream aggregation is date-keyed.
func (m *Merger) Merge(ctx context.Context, tables *loader.Tables) *MergeResult {
	salesByID := make(map[int]domain.Sale, len(tables.Sales))
	for _, s := range tables.Sales {
		salesByID[s.ID] = s
	}
	productsByID := make(map[int]domain.Product, len(tables.Products))
	for _, p := range tables.Products {
		productsByID[p.ID] = p
	}

	result := &MergeResult{Records: make([]domain.UnifiedRecord, 0, len(tables.SaleLines))}
	linesPerSale := make(map[int]int, len(tables.Sales))

	for _, line := range tables.SaleLines {
		sale, ok := salesByID[line.SaleID]
		if !ok {
			// A line must resolve to exactly one sale; orphans carry no date
			// and cannot be aggregated.
			result.OrphanLines++
			continue
		}
		linesPerSale[line.SaleID]++

		product, hasProduct := productsByID[line.ProductID]

		unitPrice := 0.0
		switch {
		case line.HasUnitPrice:
			unitPrice = line.UnitPrice
		case hasProduct && product.HasCatalogPrice:
			unitPrice = product.CatalogPrice
		}

		amount := line.Amount
		if line.HasAmount {
			if math.Abs(amount-float64(line.Quantity)*unitPrice) > m.amountTolerance {
				result.AmountMismatches++
			}
		} else {
			amount = float64(line.Quantity) * unitPrice
		}

		if !sale.HasDate {
			result.DroppedNoDate++
			continue
		}

		result.Records = append(result.Records, domain.UnifiedRecord{
			SaleID:        line.SaleID,
			Date:          sale.Date,
			CustomerID:    sale.CustomerID,
			PaymentMethod: sale.PaymentMethod,
			ProductID:     line.ProductID,
			ProductName:   product.Name,
			Category:      product.Category,
			Quantity:      line.Quantity,
			UnitPrice:     unitPrice,
			Amount:        amount,
		})
	}

	result.Retained = len(result.Records)
	for _, s := range tables.Sales {
		if linesPerSale[s.ID] == 0 {
			result.SalesWithoutLines++
		}
	}

	if result.AmountMismatches > 0 {
		m.logger.WarnContext(ctx, "declared amounts disagree with quantity*unit_price",
			slog.Int("rows", result.AmountMismatches),
			slog.Float64("tolerance", m.amountTolerance))
	}
	if result.DroppedNoDate > 0 {
		m.logger.WarnContext(ctx, "dropped records without a parseable date",
			slog.Int("dropped", result.DroppedNoDate))
	}
	if result.OrphanLines > 0 {
		m.logger.WarnContext(ctx, "dropped sale lines without a matching sale",
			slog.Int("dropped", result.OrphanLines))
	}

	m.logger.InfoContext(ctx, "merge complete",
		slog.Int("retained", result.Retained),
		slog.Int("dropped_no_date", result.DroppedNoDate),
		slog.Int("orphan_lines", result.OrphanLines),
		slog.Int("sales_without_lines", result.SalesWithoutLines))

	return result
}

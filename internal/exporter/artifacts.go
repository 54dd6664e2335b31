package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"retailcli/pkg/domain"
)

// Artifact file names under the reports directory.
const (
	HistoricalRankingName = "ranking_historical"
	PredictedRankingName  = "ranking_predicted"
	UnifiedDatasetFile    = "unified_dataset.csv"
	SummaryFile           = "summary.json"
)

var rankingHeaders = []string{"rank", "product_id", "product_name", "value"}

var unifiedHeaders = []string{
	"sale_id", "date", "customer_id", "payment_method",
	"product_id", "product_name", "category",
	"quantity", "unit_price", "amount",
}

// Exporter writes the run's derived artifacts into the reports directory.
type Exporter struct {
	reportsDir string
	csv        *CSVWriter
	logger     *slog.Logger
}

// New creates an exporter rooted at reportsDir.
func New(reportsDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		reportsDir: reportsDir,
		csv:        NewCSVWriter(reportsDir, logger),
		logger:     logger,
	}
}

// ExportRanking writes one ranked demand table twice: <name>.csv for
// spreadsheet consumers and <name>.json for programmatic ones. The table is
// cut to the top N entries; topN <= 0 keeps every entry.
func (e *Exporter) ExportRanking(ctx context.Context, name string, entries []domain.RankingEntry, topN int) error {
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}

	records := make([][]string, len(entries))
	for i, entry := range entries {
		records[i] = []string{
			strconv.Itoa(entry.Rank),
			strconv.Itoa(entry.ProductID),
			entry.ProductName,
			formatFloat(entry.Value),
		}
	}
	if err := e.csv.WriteCSV(name+".csv", rankingHeaders, records); err != nil {
		return fmt.Errorf("failed to export %s.csv: %w", name, err)
	}

	if err := e.writeJSON(name+".json", entries); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "ranking exported",
		slog.String("name", name),
		slog.Int("entries", len(entries)))
	return nil
}

// ExportUnifiedDataset streams the merged per-line records to CSV. Optional
// columns left empty by the source come out as empty cells, not zeros.
func (e *Exporter) ExportUnifiedDataset(ctx context.Context, records []domain.UnifiedRecord) error {
	stream, err := e.csv.CreateStreamWriter(UnifiedDatasetFile, unifiedHeaders)
	if err != nil {
		return fmt.Errorf("failed to open unified dataset stream: %w", err)
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.SaleID),
			r.Date.Format("2006-01-02"),
			strconv.Itoa(r.CustomerID),
			r.PaymentMethod,
			strconv.Itoa(r.ProductID),
			r.ProductName,
			r.Category,
			formatInt(int64(r.Quantity)),
			formatFloat(r.UnitPrice),
			formatFloat(r.Amount),
		}
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write unified record: %w", err)
		}
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close unified dataset stream: %w", err)
	}

	e.logger.InfoContext(ctx, "unified dataset exported",
		slog.Int("records", len(records)))
	return nil
}

// ExportSummary writes the run summary as indented JSON.
func (e *Exporter) ExportSummary(ctx context.Context, summary interface{}) error {
	if err := e.writeJSON(SummaryFile, summary); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "run summary exported")
	return nil
}

func (e *Exporter) writeJSON(name string, v interface{}) error {
	fullPath := filepath.Join(e.reportsDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return nil
}

package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcli/pkg/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Artifacts carry a UTF-8 BOM for Excel.
	require.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))
	body := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")

	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleRanking() []domain.RankingEntry {
	return []domain.RankingEntry{
		{Rank: 1, ProductID: 3, ProductName: "Yerba Mate 1kg", Value: 10},
		{Rank: 2, ProductID: 1, ProductName: "Azucar 1kg", Value: 5},
		{Rank: 3, ProductID: 2, ProductName: "Harina 1kg", Value: 5},
	}
}

func TestExportRanking_WritesCSVAndJSONTwins(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, nil)

	require.NoError(t, e.ExportRanking(context.Background(), HistoricalRankingName, sampleRanking(), 10))

	rows := readCSV(t, filepath.Join(dir, "ranking_historical.csv"))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"rank", "product_id", "product_name", "value"}, rows[0])
	assert.Equal(t, []string{"1", "3", "Yerba Mate 1kg", "10.00"}, rows[1])
	assert.Equal(t, []string{"2", "1", "Azucar 1kg", "5.00"}, rows[2])

	data, err := os.ReadFile(filepath.Join(dir, "ranking_historical.json"))
	require.NoError(t, err)
	var entries []domain.RankingEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Equal(t, sampleRanking(), entries)
}

func TestExportRanking_CutsToTopN(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, nil)

	require.NoError(t, e.ExportRanking(context.Background(), PredictedRankingName, sampleRanking(), 2))

	rows := readCSV(t, filepath.Join(dir, "ranking_predicted.csv"))
	assert.Len(t, rows, 3) // header + 2 entries

	data, err := os.ReadFile(filepath.Join(dir, "ranking_predicted.json"))
	require.NoError(t, err)
	var entries []domain.RankingEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)
}

func TestExportRanking_OverwritesPriorArtifact(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, nil)

	require.NoError(t, e.ExportRanking(context.Background(), HistoricalRankingName, sampleRanking(), 10))
	require.NoError(t, e.ExportRanking(context.Background(), HistoricalRankingName, sampleRanking()[:1], 10))

	rows := readCSV(t, filepath.Join(dir, "ranking_historical.csv"))
	assert.Len(t, rows, 2)
}

func TestExportUnifiedDataset(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, nil)

	records := []domain.UnifiedRecord{
		{
			SaleID:        1001,
			Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			CustomerID:    7,
			PaymentMethod: "tarjeta",
			ProductID:     101,
			ProductName:   "Yerba Mate 1kg",
			Category:      "Almacen",
			Quantity:      2,
			UnitPrice:     1400,
			Amount:        2800,
		},
	}
	require.NoError(t, e.ExportUnifiedDataset(context.Background(), records))

	rows := readCSV(t, filepath.Join(dir, UnifiedDatasetFile))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"1001", "2024-01-15", "7", "tarjeta",
		"101", "Yerba Mate 1kg", "Almacen",
		"2", "1400.00", "2800.00",
	}, rows[1])
}

func TestExportSummary(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, nil)

	summary := map[string]int{"retained": 95, "dropped_no_date": 5}
	require.NoError(t, e.ExportSummary(context.Background(), summary))

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, summary, got)
}

func TestExporter_CreatesNestedReportDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	e := New(dir, nil)

	require.NoError(t, e.ExportRanking(context.Background(), HistoricalRankingName, sampleRanking(), 10))
	_, err := os.Stat(filepath.Join(dir, "ranking_historical.csv"))
	assert.NoError(t, err)
}

package pipeline

import (
	"retailcli/internal/forecast"
	"retailcli/pkg/domain"
)

// HistoricalRanking ranks products by their most recent month's aggregated
// quantity, descending, ties broken by ascending product id.
func HistoricalRanking(matrix *domain.MonthlyMatrix, names map[int]string) []domain.RankingEntry {
	lastCol := len(matrix.Months) - 1
	predictions := make([]domain.Prediction, 0, len(matrix.ProductIDs))
	for _, id := range matrix.ProductIDs {
		predictions = append(predictions, domain.Prediction{
			ProductID: id,
			Value:     float64(matrix.Quantity(id, lastCol)),
		})
	}
	forecast.SortPredictions(predictions)
	return toRankingEntries(predictions, names)
}

// toRankingEntries converts sorted predictions into ranked table rows,
// joining product names for display where available.
func toRankingEntries(predictions []domain.Prediction, names map[int]string) []domain.RankingEntry {
	entries := make([]domain.RankingEntry, len(predictions))
	for i, p := range predictions {
		entries[i] = domain.RankingEntry{
			Rank:        i + 1,
			ProductID:   p.ProductID,
			ProductName: names[p.ProductID],
			Value:       p.Value,
		}
	}
	return entries
}

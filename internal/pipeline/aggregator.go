package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

// BuildMonthlyMatrix buckets unified records by (product, calendar month),
// sums quantities and materializes the result as a dense matrix: every
// product gets one cell for every month of the full contiguous range between
// the earliest and latest observed months, zero-filled. The dense layout is
// deliberate; lag windowing relies on positional alignment across products.
func BuildMonthlyMatrix(ctx context.Context, records []domain.UnifiedRecord) (*domain.MonthlyMatrix, error) {
	if len(records) == 0 {
		return nil, apperrors.NewInsufficientDataError("merge")
	}

	var minMonth, maxMonth time.Time
	sums := make(map[int]map[time.Time]int64)
	for _, r := range records {
		month := truncateToMonth(r.Date)
		if minMonth.IsZero() || month.Before(minMonth) {
			minMonth = month
		}
		if maxMonth.IsZero() || month.After(maxMonth) {
			maxMonth = month
		}
		row, ok := sums[r.ProductID]
		if !ok {
			row = make(map[time.Time]int64)
			sums[r.ProductID] = row
		}
		row[month] += int64(r.Quantity)
	}

	months := []domain.Month{}
	for m := minMonth; !m.After(maxMonth); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}

	productIDs := make([]int, 0, len(sums))
	for id := range sums {
		productIDs = append(productIDs, id)
	}
	sort.Ints(productIDs)

	quantities := make(map[int][]int64, len(productIDs))
	for _, id := range productIDs {
		row := make([]int64, len(months))
		for i, m := range months {
			row[i] = sums[id][m]
		}
		quantities[id] = row
	}

	matrix := &domain.MonthlyMatrix{
		Months:     months,
		ProductIDs: productIDs,
		Quantities: quantities,
	}

	slog.InfoContext(ctx, "monthly matrix built",
		slog.Int("products", len(productIDs)),
		slog.Int("months", len(months)),
		slog.Time("first_month", minMonth),
		slog.Time("last_month", maxMonth))

	return matrix, nil
}

// truncateToMonth returns the first day of the record's calendar month in UTC.
func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

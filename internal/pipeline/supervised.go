package pipeline

import (
	"context"
	"log/slog"

	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

// BuildSupervised slices the monthly matrix into a fixed trailing-window
// supervised dataset: for every product the window months preceding the most
// recent month become the features and the most recent month the target.
// One sample per product, no filtering of low-volume products; samples are
// ordered by ascending product id.
//
// Only the trailing window is used, not the full history. That keeps the
// feature width fixed; sliding windows over all history would multiply the
// sample count but change the estimator's semantics.
func BuildSupervised(ctx context.Context, matrix *domain.MonthlyMatrix, window int) (*domain.SupervisedDataset, error) {
	required := window + 1
	if len(matrix.Months) < required {
		return nil, apperrors.NewInsufficientHistoryError(required, len(matrix.Months))
	}

	n := len(matrix.Months)
	featureStart := n - window - 1
	targetCol := n - 1

	dataset := &domain.SupervisedDataset{
		Samples:       make([]domain.SupervisedSample, 0, len(matrix.ProductIDs)),
		FeatureMonths: append([]domain.Month{}, matrix.Months[featureStart:targetCol]...),
		TargetMonth:   matrix.Months[targetCol],
	}

	for _, id := range matrix.ProductIDs {
		features := make([]float64, window)
		for i := 0; i < window; i++ {
			features[i] = float64(matrix.Quantity(id, featureStart+i))
		}
		dataset.Samples = append(dataset.Samples, domain.SupervisedSample{
			ProductID: id,
			Features:  features,
			Target:    float64(matrix.Quantity(id, targetCol)),
		})
	}

	slog.InfoContext(ctx, "supervised dataset built",
		slog.Int("samples", len(dataset.Samples)),
		slog.Int("window_months", window),
		slog.Time("target_month", dataset.TargetMonth))

	return dataset, nil
}

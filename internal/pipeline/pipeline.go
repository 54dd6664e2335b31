package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"retailcli/internal/config"
	apperrors "retailcli/internal/errors"
	"retailcli/internal/forecast"
	"retailcli/internal/loader"
	"retailcli/pkg/domain"
)

// Result holds everything one pipeline run produced. Historical is always
// present on success; Predicted is nil when model fitting was skipped for
// lack of samples, in which case PredictionSkipped names the reason.
type Result struct {
	Tables  *loader.Tables
	Merge   *MergeResult
	Matrix  *domain.MonthlyMatrix
	Dataset *domain.SupervisedDataset

	Historical []domain.RankingEntry
	Predicted  []domain.RankingEntry
	Outcome    *forecast.Outcome

	PredictionSkipped error
}

// Pipeline wires the stages together: load, merge, aggregate, window, fit,
// rank. One Pipeline value is safe to reuse for multiple runs; all state
// lives in the per-run Result.
type Pipeline struct {
	cfg       config.PipelineConfig
	logger    *slog.Logger
	loader    *loader.Loader
	merger    *Merger
	estimator *forecast.Estimator
}

// New creates a pipeline from a configuration.
func New(cfg config.PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		loader:    loader.New(logger),
		merger:    NewMerger(cfg, logger),
		estimator: forecast.New(cfg, logger),
	}
}

// Run executes the whole batch transform once. Fatal errors abort the run;
// an insufficient-samples condition does not: the historical ranking is
// still produced and the predictive ranking is skipped explicitly.
func (p *Pipeline) Run(ctx context.Context, paths map[string]string) (*Result, error) {
	tables, err := p.loader.Load(ctx, paths)
	if err != nil {
		return nil, err
	}

	result := &Result{Tables: tables}
	result.Merge = p.merger.Merge(ctx, tables)

	matrix, err := BuildMonthlyMatrix(ctx, result.Merge.Records)
	if err != nil {
		return nil, err
	}
	result.Matrix = matrix

	names := make(map[int]string, len(tables.Products))
	for _, product := range tables.Products {
		names[product.ID] = product.Name
	}

	result.Historical = HistoricalRanking(matrix, names)

	// The line-frequency mode works on raw sale lines and needs no lag
	// window; the forecasting modes require window+1 months of history.
	if p.cfg.Mode != forecast.ModeLineFrequency {
		dataset, err := BuildSupervised(ctx, matrix, p.cfg.WindowMonths)
		if err != nil {
			return nil, err
		}
		result.Dataset = dataset
	}

	outcome, err := p.estimator.Estimate(ctx, result.Dataset, result.Merge.Records)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeInsufficientSamples {
			p.logger.WarnContext(ctx, "model fitting skipped, predictive ranking omitted",
				slog.String("reason", appErr.Message))
			result.PredictionSkipped = err
			return result, nil
		}
		return nil, err
	}

	result.Outcome = outcome
	result.Predicted = toRankingEntries(outcome.Predictions, names)

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.String("mode", outcome.Mode),
		slog.Int("historical_products", len(result.Historical)),
		slog.Int("predicted_products", len(result.Predicted)))

	return result, nil
}

package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"retailcli/internal/config"
	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

// Estimator modes. ModeRegression is the canonical path; ModeLineFrequency
// predicts a product label per sale line and reports label frequency as a
// proxy ranking, which is not a calibrated demand estimate and is retained
// only as a heuristic alternative.
const (
	ModeRegression    = "regression"
	ModeTopK          = "topk"
	ModeLineFrequency = "linefreq"
)

// Evaluation is the diagnostic metric of the held-out split. It never gates
// anything: a model is always produced regardless of evaluation quality.
type Evaluation struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
}

// Outcome is the estimator's product: ranked predictions, the diagnostic
// evaluation, and the fitted model artifact.
type Outcome struct {
	Mode        string
	Predictions []domain.Prediction
	Evaluation  Evaluation
	Model       *Model
}

// Estimator fits a demand model over the supervised dataset (or the raw
// unified records in line-frequency mode) and ranks products by predicted
// demand.
type Estimator struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// New creates an estimator. A nil logger falls back to slog.Default.
func New(cfg config.PipelineConfig, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

// Estimate dispatches on the configured mode.
func (e *Estimator) Estimate(ctx context.Context, dataset *domain.SupervisedDataset, records []domain.UnifiedRecord) (*Outcome, error) {
	switch e.cfg.Mode {
	case ModeRegression:
		return e.EstimateRegression(ctx, dataset)
	case ModeTopK:
		return e.EstimateTopK(ctx, dataset)
	case ModeLineFrequency:
		return e.EstimateLineFrequency(ctx, records)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown estimator mode %q", e.cfg.Mode))
	}
}

// EstimateRegression predicts next month's raw quantity per product.
// The seeded train/test split feeds the diagnostic MSE only; the production
// model is refit on the full dataset and predicts every product, including
// those in the held-out split.
func (e *Estimator) EstimateRegression(ctx context.Context, dataset *domain.SupervisedDataset) (*Outcome, error) {
	x, y, ids := datasetMatrices(dataset)
	if len(x) < e.cfg.MinSamples {
		return nil, apperrors.NewInsufficientSamplesError(e.cfg.MinSamples, len(x))
	}

	train, test := e.splitIndices(len(x))
	opts := ForestOptions{Trees: e.cfg.Trees, Seed: e.cfg.Seed}

	evalForest := FitRegressionForest(subset(x, train), subsetFloat(y, train), opts)
	residualsSq := make([]float64, len(test))
	for i, j := range test {
		d := evalForest.Predict(x[j]) - y[j]
		residualsSq[i] = d * d
	}
	evaluation := Evaluation{
		Metric:    "mse",
		Value:     stat.Mean(residualsSq, nil),
		TrainSize: len(train),
		TestSize:  len(test),
	}

	final := FitRegressionForest(x, y, opts)
	predictions := make([]domain.Prediction, len(ids))
	for i, id := range ids {
		predictions[i] = domain.Prediction{ProductID: id, Value: final.Predict(x[i])}
	}
	SortPredictions(predictions)

	e.logger.InfoContext(ctx, "regression estimator complete",
		slog.Float64("mse", evaluation.Value),
		slog.Int("train_size", evaluation.TrainSize),
		slog.Int("test_size", evaluation.TestSize),
		slog.Int("products", len(predictions)))

	return &Outcome{
		Mode:        ModeRegression,
		Predictions: predictions,
		Evaluation:  evaluation,
		Model:       newModel(ModeRegression, e.cfg, dataset, evaluation, final, nil),
	}, nil
}

// EstimateTopK predicts binary top-K membership over the same lag features
// and ranks products by the predicted membership probability (the fraction
// of trees voting for membership).
func (e *Estimator) EstimateTopK(ctx context.Context, dataset *domain.SupervisedDataset) (*Outcome, error) {
	x, y, ids := datasetMatrices(dataset)
	if len(x) < e.cfg.MinSamples {
		return nil, apperrors.NewInsufficientSamplesError(e.cfg.MinSamples, len(x))
	}

	labels := topKLabels(y, ids, e.cfg.TopN)

	train, test := e.splitIndices(len(x))
	opts := ForestOptions{Trees: e.cfg.Trees, Seed: e.cfg.Seed}

	evalForest := FitRegressionForest(subset(x, train), subsetFloat(labels, train), opts)
	correct := 0
	for _, j := range test {
		if (evalForest.Predict(x[j]) >= 0.5) == (labels[j] >= 0.5) {
			correct++
		}
	}
	evaluation := Evaluation{
		Metric:    "accuracy",
		Value:     float64(correct) / float64(len(test)),
		TrainSize: len(train),
		TestSize:  len(test),
	}

	final := FitRegressionForest(x, labels, opts)
	predictions := make([]domain.Prediction, len(ids))
	for i, id := range ids {
		predictions[i] = domain.Prediction{ProductID: id, Value: final.Predict(x[i])}
	}
	SortPredictions(predictions)

	e.logger.InfoContext(ctx, "top-k estimator complete",
		slog.Float64("accuracy", evaluation.Value),
		slog.Int("k", e.cfg.TopN),
		slog.Int("products", len(predictions)))

	return &Outcome{
		Mode:        ModeTopK,
		Predictions: predictions,
		Evaluation:  evaluation,
		Model:       newModel(ModeTopK, e.cfg, dataset, evaluation, final, nil),
	}, nil
}

// EstimateLineFrequency classifies each sale line into a product label from
// its (quantity, unit price) features and reports the predicted-label
// frequency distribution as a proxy ranking. Per-line classification
// frequency is not a calibrated demand estimate; this mode exists for parity
// with the upstream variants and is documented as statistically unsound for
// ranking.
func (e *Estimator) EstimateLineFrequency(ctx context.Context, records []domain.UnifiedRecord) (*Outcome, error) {
	if len(records) < e.cfg.MinSamples {
		return nil, apperrors.NewInsufficientSamplesError(e.cfg.MinSamples, len(records))
	}

	x := make([][]float64, len(records))
	labels := make([]int, len(records))
	for i, r := range records {
		x[i] = []float64{float64(r.Quantity), r.UnitPrice}
		labels[i] = r.ProductID
	}

	train, test := e.splitIndices(len(x))
	opts := ForestOptions{Trees: e.cfg.Trees, Seed: e.cfg.Seed}

	evalForest := FitClassificationForest(subset(x, train), subsetInt(labels, train), opts)
	correct := 0
	for _, j := range test {
		if evalForest.Predict(x[j]) == labels[j] {
			correct++
		}
	}
	evaluation := Evaluation{
		Metric:    "accuracy",
		Value:     float64(correct) / float64(len(test)),
		TrainSize: len(train),
		TestSize:  len(test),
	}

	final := FitClassificationForest(x, labels, opts)
	frequency := make(map[int]int)
	for i := range x {
		frequency[final.Predict(x[i])]++
	}
	predictions := make([]domain.Prediction, 0, len(frequency))
	for id, count := range frequency {
		predictions = append(predictions, domain.Prediction{ProductID: id, Value: float64(count)})
	}
	SortPredictions(predictions)

	e.logger.InfoContext(ctx, "line-frequency estimator complete",
		slog.Float64("accuracy", evaluation.Value),
		slog.Int("lines", len(records)),
		slog.Int("predicted_products", len(predictions)))

	return &Outcome{
		Mode:        ModeLineFrequency,
		Predictions: predictions,
		Evaluation:  evaluation,
		Model:       newModel(ModeLineFrequency, e.cfg, nil, evaluation, nil, final),
	}, nil
}

// SortPredictions orders predictions by descending value; ties break by
// ascending product id so rankings are deterministic.
func SortPredictions(predictions []domain.Prediction) {
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Value != predictions[j].Value {
			return predictions[i].Value > predictions[j].Value
		}
		return predictions[i].ProductID < predictions[j].ProductID
	})
}

// splitIndices produces the seeded train/test partition. The test share is
// rounded up to at least one sample, and at least one sample always remains
// in training.
func (e *Estimator) splitIndices(n int) (train, test []int) {
	perm := rand.New(rand.NewSource(e.cfg.Seed)).Perm(n)
	nTest := int(math.Ceil(e.cfg.TestFraction * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// topKLabels marks the products whose target quantity ranks in the top K,
// ties resolved by ascending product id like every other ranking.
func topKLabels(y []float64, ids []int, k int) []float64 {
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if y[order[a]] != y[order[b]] {
			return y[order[a]] > y[order[b]]
		}
		return ids[order[a]] < ids[order[b]]
	})

	labels := make([]float64, len(y))
	for rank, i := range order {
		if rank < k {
			labels[i] = 1
		}
	}
	return labels
}

func datasetMatrices(dataset *domain.SupervisedDataset) (x [][]float64, y []float64, ids []int) {
	x = make([][]float64, len(dataset.Samples))
	y = make([]float64, len(dataset.Samples))
	ids = make([]int, len(dataset.Samples))
	for i, s := range dataset.Samples {
		x[i] = s.Features
		y[i] = s.Target
		ids[i] = s.ProductID
	}
	return x, y, ids
}

func subset(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func subsetFloat(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func subsetInt(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

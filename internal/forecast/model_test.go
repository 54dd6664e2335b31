package forecast

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_SaveAndLoadRoundtrip(t *testing.T) {
	estimator := New(testCfg(), nil)
	outcome, err := estimator.EstimateRegression(context.Background(), syntheticDataset(12))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifacts", "model.json")
	require.NoError(t, outcome.Model.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)

	assert.Equal(t, "retail_demand_model_v1", loaded.Format)
	assert.Equal(t, ModeRegression, loaded.Mode)
	assert.Equal(t, int64(42), loaded.Seed)
	assert.Equal(t, outcome.Model.FeatureMonths, loaded.FeatureMonths)
	assert.Equal(t, outcome.Model.TargetMonth, loaded.TargetMonth)
	assert.Equal(t, outcome.Model.Evaluation, loaded.Evaluation)

	// The serialized forest must predict identically after reload.
	require.NotNil(t, loaded.Regression)
	probe := []float64{4, 5, 6}
	assert.InDelta(t, outcome.Model.Regression.Predict(probe), loaded.Regression.Predict(probe), 1e-12)
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

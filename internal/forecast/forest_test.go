package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepData builds a one-feature dataset with a clean step at x=5.
func stepData(n int) (x [][]float64, y []float64) {
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1) * 10
		x = append(x, []float64{v})
		if v < 5 {
			y = append(y, 0)
		} else {
			y = append(y, 10)
		}
	}
	return x, y
}

func TestRegressionForest_LearnsStepFunction(t *testing.T) {
	x, y := stepData(40)
	forest := FitRegressionForest(x, y, ForestOptions{Trees: 25, Seed: 1})

	assert.InDelta(t, 0, forest.Predict([]float64{1}), 1.5)
	assert.InDelta(t, 10, forest.Predict([]float64{9}), 1.5)
	assert.Equal(t, 1, forest.NumFeatures)
	assert.Len(t, forest.Trees, 25)
}

func TestRegressionForest_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{7, 7, 7, 7}
	forest := FitRegressionForest(x, y, ForestOptions{Trees: 5, Seed: 1})
	assert.InDelta(t, 7, forest.Predict([]float64{2.5}), 1e-9)
}

func TestRegressionForest_DeterministicForSeed(t *testing.T) {
	x, y := stepData(30)
	a := FitRegressionForest(x, y, ForestOptions{Trees: 10, Seed: 42})
	b := FitRegressionForest(x, y, ForestOptions{Trees: 10, Seed: 42})

	for _, probe := range []float64{0.5, 3.3, 5.0, 7.7, 9.9} {
		assert.Equal(t, a.Predict([]float64{probe}), b.Predict([]float64{probe}))
	}
}

func TestClassificationForest_SeparableClasses(t *testing.T) {
	var x [][]float64
	var labels []int
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i)})
		if i < 10 {
			labels = append(labels, 101)
		} else {
			labels = append(labels, 202)
		}
	}

	forest := FitClassificationForest(x, labels, ForestOptions{Trees: 15, Seed: 3})
	assert.Equal(t, 101, forest.Predict([]float64{2}))
	assert.Equal(t, 202, forest.Predict([]float64{17}))
}

func TestTreeNode_PredictWalksSplits(t *testing.T) {
	tree := &TreeNode{
		Feature:   0,
		Threshold: 5,
		Left:      &TreeNode{Feature: -1, Value: 1},
		Right: &TreeNode{
			Feature:   1,
			Threshold: 2,
			Left:      &TreeNode{Feature: -1, Value: 2},
			Right:     &TreeNode{Feature: -1, Value: 3},
		},
	}

	assert.InDelta(t, 1, tree.predict([]float64{4, 0}), 1e-9)
	assert.InDelta(t, 2, tree.predict([]float64{6, 1}), 1e-9)
	assert.InDelta(t, 3, tree.predict([]float64{6, 9}), 1e-9)
}

func TestBootstrap_SamplesWithinRange(t *testing.T) {
	x, y := stepData(10)
	forest := FitRegressionForest(x, y, ForestOptions{Trees: 3, Seed: 9})
	require.Len(t, forest.Trees, 3)
	// Every tree must be walkable for any in-range input.
	for _, tree := range forest.Trees {
		_ = tree.predict([]float64{5})
	}
}

func TestMajorityLabel_TieBreaksToSmallerLabel(t *testing.T) {
	labels := []int{5, 5, 3, 3}
	label, pure := majorityLabel(labels, []int{0, 1, 2, 3})
	assert.Equal(t, 3, label)
	assert.False(t, pure)

	label, pure = majorityLabel(labels, []int{0, 1})
	assert.Equal(t, 5, label)
	assert.True(t, pure)
}

package forecast

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ForestOptions control forest fitting. Zero MTry selects the conventional
// default per task: p/3 features per split for regression, sqrt(p) for
// classification, at least one either way.
type ForestOptions struct {
	Trees   int
	Seed    int64
	MTry    int
	MinLeaf int
}

func (o ForestOptions) withDefaults() ForestOptions {
	if o.Trees <= 0 {
		o.Trees = 200
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = 1
	}
	return o
}

// TreeNode is one node of a CART tree. Feature -1 marks a leaf; Value then
// holds the leaf prediction (mean target for regression, class label for
// classification).
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
}

func (n *TreeNode) predict(x []float64) float64 {
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// RegressionForest is a bagged ensemble of variance-reduction CART trees.
type RegressionForest struct {
	Trees       []*TreeNode `json:"trees"`
	NumFeatures int         `json:"num_features"`
}

// FitRegressionForest fits a forest on X (one row per sample) and y.
func FitRegressionForest(x [][]float64, y []float64, opts ForestOptions) *RegressionForest {
	opts = opts.withDefaults()
	p := 0
	if len(x) > 0 {
		p = len(x[0])
	}
	mtry := opts.MTry
	if mtry <= 0 {
		mtry = p / 3
	}
	if mtry < 1 {
		mtry = 1
	}
	if mtry > p {
		mtry = p
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &RegressionForest{Trees: make([]*TreeNode, 0, opts.Trees), NumFeatures: p}
	for t := 0; t < opts.Trees; t++ {
		idx := bootstrap(rng, len(x))
		forest.Trees = append(forest.Trees, buildRegressionTree(x, y, idx, mtry, opts.MinLeaf, rng))
	}
	return forest
}

// Predict returns the mean prediction over all trees.
func (f *RegressionForest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// ClassificationForest is a bagged ensemble of gini-split CART trees over
// integer class labels. Prediction is the majority vote, ties broken by the
// smaller label for determinism.
type ClassificationForest struct {
	Trees       []*TreeNode `json:"trees"`
	NumFeatures int         `json:"num_features"`
}

// FitClassificationForest fits a forest on X and integer labels.
func FitClassificationForest(x [][]float64, labels []int, opts ForestOptions) *ClassificationForest {
	opts = opts.withDefaults()
	p := 0
	if len(x) > 0 {
		p = len(x[0])
	}
	mtry := opts.MTry
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(p)))
	}
	if mtry < 1 {
		mtry = 1
	}
	if mtry > p {
		mtry = p
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &ClassificationForest{Trees: make([]*TreeNode, 0, opts.Trees), NumFeatures: p}
	for t := 0; t < opts.Trees; t++ {
		idx := bootstrap(rng, len(x))
		forest.Trees = append(forest.Trees, buildClassificationTree(x, labels, idx, mtry, opts.MinLeaf, rng))
	}
	return forest
}

// Predict returns the majority label across trees.
func (f *ClassificationForest) Predict(x []float64) int {
	votes := make(map[int]int)
	for _, tree := range f.Trees {
		votes[int(tree.predict(x))]++
	}
	best, bestVotes := 0, -1
	for label, v := range votes {
		if v > bestVotes || (v == bestVotes && label < best) {
			best, bestVotes = label, v
		}
	}
	return best
}

// bootstrap samples n indices with replacement.
func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func buildRegressionTree(x [][]float64, y []float64, idx []int, mtry, minLeaf int, rng *rand.Rand) *TreeNode {
	targets := make([]float64, len(idx))
	for i, j := range idx {
		targets[i] = y[j]
	}
	mean := stat.Mean(targets, nil)

	if len(idx) < 2*minLeaf || allEqual(targets) {
		return &TreeNode{Feature: -1, Value: mean}
	}

	feature, threshold, ok := bestRegressionSplit(x, y, idx, mtry, minLeaf, rng)
	if !ok {
		return &TreeNode{Feature: -1, Value: mean}
	}

	left, right := partition(x, idx, feature, threshold)
	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildRegressionTree(x, y, left, mtry, minLeaf, rng),
		Right:     buildRegressionTree(x, y, right, mtry, minLeaf, rng),
	}
}

// bestRegressionSplit scans mtry random features for the threshold that
// minimizes the summed squared error of the two children. Prefix sums over
// the feature-sorted targets make each feature scan linear after sorting.
func bestRegressionSplit(x [][]float64, y []float64, idx []int, mtry, minLeaf int, rng *rand.Rand) (int, float64, bool) {
	p := len(x[0])
	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range rng.Perm(p)[:mtry] {
		sorted := append([]int{}, idx...)
		sort.Slice(sorted, func(a, b int) bool {
			return x[sorted[a]][feature] < x[sorted[b]][feature]
		})

		n := len(sorted)
		prefix := make([]float64, n+1)
		prefixSq := make([]float64, n+1)
		for i, j := range sorted {
			prefix[i+1] = prefix[i] + y[j]
			prefixSq[i+1] = prefixSq[i] + y[j]*y[j]
		}

		for i := minLeaf; i <= n-minLeaf; i++ {
			lo := x[sorted[i-1]][feature]
			hi := x[sorted[i]][feature]
			if lo == hi {
				continue
			}
			sseLeft := prefixSq[i] - prefix[i]*prefix[i]/float64(i)
			nr := float64(n - i)
			sseRight := (prefixSq[n] - prefixSq[i]) - (prefix[n]-prefix[i])*(prefix[n]-prefix[i])/nr
			if sse := sseLeft + sseRight; sse < bestSSE {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func buildClassificationTree(x [][]float64, labels []int, idx []int, mtry, minLeaf int, rng *rand.Rand) *TreeNode {
	majority, pure := majorityLabel(labels, idx)
	if len(idx) < 2*minLeaf || pure {
		return &TreeNode{Feature: -1, Value: float64(majority)}
	}

	feature, threshold, ok := bestGiniSplit(x, labels, idx, mtry, minLeaf, rng)
	if !ok {
		return &TreeNode{Feature: -1, Value: float64(majority)}
	}

	left, right := partition(x, idx, feature, threshold)
	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildClassificationTree(x, labels, left, mtry, minLeaf, rng),
		Right:     buildClassificationTree(x, labels, right, mtry, minLeaf, rng),
	}
}

// bestGiniSplit scans mtry random features for the threshold minimizing the
// weighted gini impurity of the two children.
func bestGiniSplit(x [][]float64, labels []int, idx []int, mtry, minLeaf int, rng *rand.Rand) (int, float64, bool) {
	p := len(x[0])
	bestImpurity := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range rng.Perm(p)[:mtry] {
		sorted := append([]int{}, idx...)
		sort.Slice(sorted, func(a, b int) bool {
			return x[sorted[a]][feature] < x[sorted[b]][feature]
		})

		n := len(sorted)
		leftCounts := make(map[int]int)
		rightCounts := make(map[int]int)
		for _, j := range sorted {
			rightCounts[labels[j]]++
		}

		for i := 1; i <= n-1; i++ {
			label := labels[sorted[i-1]]
			leftCounts[label]++
			rightCounts[label]--

			if i < minLeaf || n-i < minLeaf {
				continue
			}
			lo := x[sorted[i-1]][feature]
			hi := x[sorted[i]][feature]
			if lo == hi {
				continue
			}
			impurity := (float64(i)*gini(leftCounts, i) + float64(n-i)*gini(rightCounts, n-i)) / float64(n)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts map[int]int, total int) float64 {
	impurity := 1.0
	for _, c := range counts {
		frac := float64(c) / float64(total)
		impurity -= frac * frac
	}
	return impurity
}

func majorityLabel(labels []int, idx []int) (int, bool) {
	counts := make(map[int]int)
	for _, j := range idx {
		counts[labels[j]]++
	}
	best, bestCount := 0, -1
	for label, c := range counts {
		if c > bestCount || (c == bestCount && label < best) {
			best, bestCount = label, c
		}
	}
	return best, len(counts) <= 1
}

func partition(x [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, j := range idx {
		if x[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}
	return left, right
}

func allEqual(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return true
}

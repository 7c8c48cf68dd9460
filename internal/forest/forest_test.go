package forest

import (
	"math"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stepData returns a 1-feature dataset where y jumps from 10 to 60 at x = 50.
func stepData(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) * 100 / float64(n)
		X.Set(i, 0, x)
		if x < 50 {
			y[i] = 10
		} else {
			y[i] = 60
		}
	}
	return X, y
}

// linearData returns y = 3*x0 - 2*x1 + noise.
func linearData(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.Float64()*10, rng.Float64()*10
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y[i] = 3*a - 2*b + rng.NormFloat64()*0.1
	}
	return X, y
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := []Params{
		{NEstimators: 0, MinSamplesLeaf: 1, MinSamplesSplit: 2},
		{NEstimators: 1, MinSamplesLeaf: 0, MinSamplesSplit: 2},
		{NEstimators: 1, MinSamplesLeaf: 1, MinSamplesSplit: 1},
		{NEstimators: 1, MinSamplesLeaf: 1, MinSamplesSplit: 2, MaxDepth: -1},
		{NEstimators: 1, MinSamplesLeaf: 1, MinSamplesSplit: 2, MaxFeatures: -1},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestNewRegressor_Options(t *testing.T) {
	r := NewRegressor(
		WithNEstimators(7),
		WithMaxDepth(3),
		WithMinSamplesLeaf(4),
		WithMinSamplesSplit(9),
		WithMaxFeatures(1),
		WithSeed(42),
	)
	assert.Equal(t, Params{NEstimators: 7, MaxDepth: 3, MinSamplesLeaf: 4, MinSamplesSplit: 9, MaxFeatures: 1, Seed: 42}, r.Params)
}

func TestFitTree_LearnsStep(t *testing.T) {
	X, y := stepData(40)
	samples := make([]int, 40)
	for i := range samples {
		samples[i] = i
	}
	tree := fitTree(X, y, samples, DefaultParams(), rand.New(rand.NewSource(0)))

	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 10.0, tree.Predict([]float64{10}))
	assert.Equal(t, 60.0, tree.Predict([]float64{90}))
	root := tree.Nodes[0]
	assert.InDelta(t, 48.75, root.Threshold, 1e-9)
}

func TestFitTree_RespectsLimits(t *testing.T) {
	X, y := linearData(200, 1)
	samples := make([]int, 200)
	for i := range samples {
		samples[i] = i
	}

	p := Params{NEstimators: 1, MaxDepth: 3, MinSamplesLeaf: 20, MinSamplesSplit: 2}
	tree := fitTree(X, y, samples, p, rand.New(rand.NewSource(0)))
	assert.LessOrEqual(t, tree.Depth(), 3)
	for _, n := range tree.Nodes {
		if n.IsLeaf() {
			assert.GreaterOrEqual(t, n.Samples, 20)
		}
	}
}

func TestFitTree_ConstantTargetIsLeaf(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := []float64{7, 7, 7, 7, 7}
	tree := fitTree(X, y, []int{0, 1, 2, 3, 4}, DefaultParams(), rand.New(rand.NewSource(0)))
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, 7.0, tree.Predict([]float64{100}))
}

func TestRegressor_FitPredict(t *testing.T) {
	X, y := linearData(300, 2)
	r := NewRegressor(WithNEstimators(30), WithSeed(0))
	require.NoError(t, r.Fit(X, y))
	assert.Len(t, r.Trees, 30)
	assert.Equal(t, 2, r.NFeatures)

	Xt, yt := linearData(100, 3)
	pred, err := r.Predict(Xt)
	require.NoError(t, err)
	r2, err := R2Score(pred, yt)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.9)
}

func TestRegressor_DeterministicAcrossWorkers(t *testing.T) {
	X, y := linearData(120, 4)

	a := NewRegressor(WithNEstimators(12), WithSeed(5), WithWorkers(1))
	require.NoError(t, a.Fit(X, y))
	b := NewRegressor(WithNEstimators(12), WithSeed(5), WithWorkers(4))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.Predict(X)
	require.NoError(t, err)
	pb, err := b.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestRegressor_Errors(t *testing.T) {
	r := NewRegressor(WithNEstimators(2))
	_, err := r.Predict(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrNotFitted)

	X, y := stepData(10)
	assert.ErrorIs(t, r.Fit(X, y[:5]), ErrShapeMismatch)

	require.NoError(t, r.Fit(X, y))
	_, err = r.Predict(mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	bad := NewRegressor(WithNEstimators(0))
	assert.Error(t, bad.Fit(X, y))
}

func TestRegressor_CheckFeatures(t *testing.T) {
	X, y := linearData(20, 6)
	r := NewRegressor(WithNEstimators(2))
	r.FeatureNames = []string{"a", "b"}
	require.NoError(t, r.Fit(X, y))

	assert.NoError(t, r.CheckFeatures([]string{"a", "b"}))
	assert.ErrorIs(t, r.CheckFeatures([]string{"a", "b", "predict"}), ErrShapeMismatch)
	assert.ErrorIs(t, r.CheckFeatures([]string{"b", "a"}), ErrShapeMismatch)
}

func TestSaveLoad_RoundTripPredictions(t *testing.T) {
	X, y := linearData(150, 7)
	r := NewRegressor(WithNEstimators(10), WithMaxDepth(8), WithMinSamplesLeaf(2), WithSeed(0))
	r.FeatureNames = []string{"a", "b"}
	require.NoError(t, r.Fit(X, y))

	path := filepath.Join(t.TempDir(), "models", "regressor.json")
	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.Params, loaded.Params)
	assert.Equal(t, r.FeatureNames, loaded.FeatureNames)

	Xt, _ := linearData(50, 8)
	want, err := r.Predict(Xt)
	require.NoError(t, err)
	got, err := loaded.Predict(Xt)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, NewRegressor().Save(filepath.Join(dir, "empty.json")), ErrNotFitted)

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	rmse, err := RMSE([]float64{1, 2, 3}, []float64{1, 2, 5})
	require.NoError(t, err)
	assert.InDelta(t, 2/math.Sqrt(3), rmse, 1e-12)

	r2, err := R2Score([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)

	r2, err = R2Score([]float64{2, 2, 2}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r2, 1e-12)

	r2, err = R2Score([]float64{4, 4}, []float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r2)

	_, err = RMSE([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = R2Score(nil, nil)
	assert.Error(t, err)
}

func TestParallelFor_VisitsEveryIndexOnce(t *testing.T) {
	var counts [50]int32
	ParallelFor(50, 4, func(i int) { atomic.AddInt32(&counts[i], 1) })
	for i, c := range counts {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
	ParallelFor(0, 4, func(int) { t.Fatal("called for n=0") })
}

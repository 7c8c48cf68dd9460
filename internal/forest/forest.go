package forest

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted is returned when predicting with an empty forest.
	ErrNotFitted = errors.New("regressor is not fitted")
	// ErrShapeMismatch is returned when input columns do not match the fitted features.
	ErrShapeMismatch = errors.New("feature shape mismatch")
)

// Regressor is a bagged ensemble of regression trees.
type Regressor struct {
	Params       Params   `json:"params"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NFeatures    int      `json:"n_features"`
	Trees        []*Tree  `json:"trees"`

	workers int
}

// NewRegressor creates an unfitted regressor starting from DefaultParams.
func NewRegressor(opts ...Option) *Regressor {
	r := &Regressor{Params: DefaultParams()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit grows NEstimators trees, each on a bootstrap sample of the rows of X.
// Per-tree seeds are drawn up front from Params.Seed, so the fitted forest
// does not depend on how trees are scheduled across workers.
func (r *Regressor) Fit(X mat.Matrix, y []float64) error {
	if err := r.Params.Validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("empty training matrix")
	}
	if rows != len(y) {
		return fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, rows, len(y))
	}
	if r.FeatureNames != nil && len(r.FeatureNames) != cols {
		return fmt.Errorf("%w: %d feature names for %d columns", ErrShapeMismatch, len(r.FeatureNames), cols)
	}

	dense := mat.DenseCopyOf(X)
	master := rand.New(rand.NewSource(r.Params.Seed))
	seeds := make([]int64, r.Params.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*Tree, r.Params.NEstimators)
	parallelFor(r.Params.NEstimators, r.workers, func(i int) {
		rng := rand.New(rand.NewSource(seeds[i]))
		samples := make([]int, rows)
		for k := range samples {
			samples[k] = rng.Intn(rows)
		}
		trees[i] = fitTree(dense, y, samples, r.Params, rng)
	})

	r.Trees = trees
	r.NFeatures = cols
	return nil
}

// Predict returns one prediction per row of X.
func (r *Regressor) Predict(X mat.Matrix) ([]float64, error) {
	if len(r.Trees) == 0 {
		return nil, ErrNotFitted
	}
	rows, cols := X.Dims()
	if cols != r.NFeatures {
		return nil, fmt.Errorf("%w: X has %d features, but regressor is expecting %d features as input",
			ErrShapeMismatch, cols, r.NFeatures)
	}

	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out[i] = r.PredictRow(row)
	}
	return out, nil
}

// PredictRow averages the tree predictions for a single feature vector.
// x must hold NFeatures values.
func (r *Regressor) PredictRow(x []float64) float64 {
	var sum float64
	for _, t := range r.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(r.Trees))
}

// CheckFeatures verifies that names match the features seen during Fit.
// Regressors saved without names only have their feature count checked.
func (r *Regressor) CheckFeatures(names []string) error {
	if len(names) != r.NFeatures {
		return fmt.Errorf("%w: got %d feature columns %v, regressor expects %d",
			ErrShapeMismatch, len(names), names, r.NFeatures)
	}
	if r.FeatureNames == nil {
		return nil
	}
	for i, name := range names {
		if name != r.FeatureNames[i] {
			return fmt.Errorf("%w: column %d is %q, regressor expects %q",
				ErrShapeMismatch, i, name, r.FeatureNames[i])
		}
	}
	return nil
}

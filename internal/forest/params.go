// Package forest implements a random-forest regressor built from CART
// regression trees with a squared-error criterion.
package forest

import "fmt"

// Params controls forest construction. Zero MaxDepth means unlimited depth;
// zero MaxFeatures means every feature is considered at each split.
type Params struct {
	NEstimators     int   `json:"n_estimators" yaml:"nEstimators"`
	MaxDepth        int   `json:"max_depth" yaml:"maxDepth"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" yaml:"minSamplesLeaf"`
	MinSamplesSplit int   `json:"min_samples_split" yaml:"minSamplesSplit"`
	MaxFeatures     int   `json:"max_features,omitempty" yaml:"maxFeatures"`
	Seed            int64 `json:"seed" yaml:"seed"`
}

// DefaultParams mirrors the usual random-forest defaults.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		MinSamplesLeaf:  1,
		MinSamplesSplit: 2,
	}
}

// Validate reports parameter combinations that cannot build a forest.
func (p Params) Validate() error {
	if p.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be >= 1, got %d", p.NEstimators)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", p.MaxDepth)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	}
	if p.MaxFeatures < 0 {
		return fmt.Errorf("max_features must be >= 0, got %d", p.MaxFeatures)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("{max_depth: %d, min_samples_leaf: %d, min_samples_split: %d, n_estimators: %d}",
		p.MaxDepth, p.MinSamplesLeaf, p.MinSamplesSplit, p.NEstimators)
}

// Option configures a Regressor.
type Option func(*Regressor)

// WithParams replaces every parameter at once.
func WithParams(p Params) Option {
	return func(r *Regressor) { r.Params = p }
}

func WithNEstimators(n int) Option {
	return func(r *Regressor) { r.Params.NEstimators = n }
}

func WithMaxDepth(d int) Option {
	return func(r *Regressor) { r.Params.MaxDepth = d }
}

func WithMinSamplesLeaf(n int) Option {
	return func(r *Regressor) { r.Params.MinSamplesLeaf = n }
}

func WithMinSamplesSplit(n int) Option {
	return func(r *Regressor) { r.Params.MinSamplesSplit = n }
}

func WithMaxFeatures(n int) Option {
	return func(r *Regressor) { r.Params.MaxFeatures = n }
}

func WithSeed(seed int64) Option {
	return func(r *Regressor) { r.Params.Seed = seed }
}

// WithWorkers bounds the number of trees fitted concurrently.
// Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Regressor) { r.workers = n }
}

// Package search selects forest hyperparameters by exhaustive grid search
// scored with k-fold cross-validation.
package search

import (
	"fmt"

	"grape-thinning/internal/forest"
)

// Grid lists candidate values per hyperparameter.
type Grid struct {
	NEstimators     []int `yaml:"nEstimators" validate:"required,min=1,dive,gte=1"`
	MaxDepth        []int `yaml:"maxDepth" validate:"required,min=1,dive,gte=0"`
	MinSamplesLeaf  []int `yaml:"minSamplesLeaf" validate:"required,min=1,dive,gte=1"`
	MinSamplesSplit []int `yaml:"minSamplesSplit" validate:"required,min=1,dive,gte=2"`
}

// DefaultGrid is the grid used when no configuration overrides it.
func DefaultGrid() Grid {
	return Grid{
		NEstimators:     []int{10, 50, 60},
		MaxDepth:        []int{6, 8, 10, 12, 14, 40},
		MinSamplesLeaf:  []int{8, 12, 18, 20},
		MinSamplesSplit: []int{8, 16, 20, 24},
	}
}

// Size returns the number of candidates in the grid.
func (g Grid) Size() int {
	return len(g.NEstimators) * len(g.MaxDepth) * len(g.MinSamplesLeaf) * len(g.MinSamplesSplit)
}

// Candidates expands the grid into its cartesian product, ordered by
// max_depth, then min_samples_leaf, then min_samples_split, with
// n_estimators varying fastest. Every candidate uses base for the
// parameters the grid does not cover.
func (g Grid) Candidates(base forest.Params) ([]forest.Params, error) {
	if g.Size() == 0 {
		return nil, fmt.Errorf("parameter grid is empty")
	}

	out := make([]forest.Params, 0, g.Size())
	for _, depth := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, n := range g.NEstimators {
					p := base
					p.MaxDepth = depth
					p.MinSamplesLeaf = leaf
					p.MinSamplesSplit = split
					p.NEstimators = n
					if err := p.Validate(); err != nil {
						return nil, fmt.Errorf("invalid grid candidate %s: %w", p, err)
					}
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}

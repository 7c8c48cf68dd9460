package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the fitted regressor to path as JSON.
func (r *Regressor) Save(path string) error {
	if len(r.Trees) == 0 {
		return ErrNotFitted
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize regressor: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write regressor: %w", err)
	}
	return nil
}

// Load reads a regressor written by Save.
func Load(path string) (*Regressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regressor: %w", err)
	}

	r := &Regressor{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse regressor %s: %w", path, err)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid regressor %s: %w", path, err)
	}
	return r, nil
}

func (r *Regressor) validate() error {
	if len(r.Trees) == 0 {
		return ErrNotFitted
	}
	if r.NFeatures < 1 {
		return fmt.Errorf("n_features must be >= 1, got %d", r.NFeatures)
	}
	if r.FeatureNames != nil && len(r.FeatureNames) != r.NFeatures {
		return fmt.Errorf("%d feature names for %d features", len(r.FeatureNames), r.NFeatures)
	}
	for ti, t := range r.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				continue
			}
			if n.Feature < 0 || n.Feature >= r.NFeatures ||
				n.Left <= ni || n.Left >= len(t.Nodes) ||
				n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return nil
}

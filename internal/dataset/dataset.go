package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a numeric view of a table: one row per image.
type Dataset struct {
	Images       []string
	FeatureNames []string
	X            *mat.Dense
	Y            []float64 // nil when the table has no target column
}

// NewDataset builds a Dataset from t. Every column other than the image and
// target columns is a feature. target may be empty for unlabeled tables.
func NewDataset(t *Table, target string) (*Dataset, error) {
	images, err := t.Values(ImageColumn)
	if err != nil {
		return nil, err
	}

	exclude := []string{ImageColumn}
	if target != "" {
		exclude = append(exclude, target)
	}
	names := t.Columns(exclude...)

	X, err := t.Matrix(names)
	if err != nil {
		return nil, fmt.Errorf("failed to parse features: %w", err)
	}

	ds := &Dataset{Images: images, FeatureNames: names, X: X}
	if target != "" {
		ym, err := t.Matrix([]string{target})
		if err != nil {
			return nil, fmt.Errorf("failed to parse target: %w", err)
		}
		ds.Y = mat.Col(nil, 0, ym)
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// Subset returns a copy holding only the rows at idx, in idx order.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Images:       make([]string, len(idx)),
		FeatureNames: d.FeatureNames,
		X:            &mat.Dense{},
	}
	if d.Y != nil {
		out.Y = make([]float64, len(idx))
	}
	if len(idx) == 0 {
		return out
	}

	_, c := d.X.Dims()
	out.X = mat.NewDense(len(idx), c, nil)
	for i, j := range idx {
		out.Images[i] = d.Images[j]
		out.X.SetRow(i, d.X.RawRowView(j))
		if d.Y != nil {
			out.Y[i] = d.Y[j]
		}
	}
	return out
}

// TrainTestSplit shuffles 0..n-1 and splits off ceil(n*testFraction) indices
// for testing. With n >= 2 both parts hold at least one index.
func TrainTestSplit(n int, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 samples to split, got %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = min(max(nTest, 1), n-1)

	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

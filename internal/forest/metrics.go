package forest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RMSE returns the root-mean-squared error between predictions and targets.
func RMSE(pred, truth []float64) (float64, error) {
	if err := checkLengths(pred, truth); err != nil {
		return 0, err
	}
	return floats.Distance(pred, truth, 2) / math.Sqrt(float64(len(pred))), nil
}

// R2Score returns the coefficient of determination of pred against truth.
// A constant truth scores 1 when predicted exactly and 0 otherwise.
func R2Score(pred, truth []float64) (float64, error) {
	if err := checkLengths(pred, truth); err != nil {
		return 0, err
	}

	mean := stat.Mean(truth, nil)
	var ssRes, ssTot float64
	for i := range truth {
		d := truth[i] - pred[i]
		ssRes += d * d
		m := truth[i] - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

func checkLengths(pred, truth []float64) error {
	if len(pred) == 0 {
		return fmt.Errorf("no samples")
	}
	if len(pred) != len(truth) {
		return fmt.Errorf("%w: %d predictions for %d targets", ErrShapeMismatch, len(pred), len(truth))
	}
	return nil
}

// Package pipeline wires feature extraction, the forest and the CSV tables
// into the training and inference runs.
package pipeline

import (
	"fmt"
	"math"
)

// DefaultThinningThreshold is the predicted berry count at which a cluster
// needs thinning.
const DefaultThinningThreshold = 51

// Thinning reports whether a cluster with the predicted count needs thinning.
func Thinning(count, threshold int) bool {
	return count >= threshold
}

// ToCount converts a regression output to an integer berry count.
// "truncate" (the default) rounds toward zero; "nearest" rounds half away
// from zero.
func ToCount(pred float64, rounding string) (int, error) {
	switch rounding {
	case "", "truncate":
		return int(pred), nil
	case "nearest":
		return int(math.Round(pred)), nil
	default:
		return 0, fmt.Errorf("unknown rounding mode %q", rounding)
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

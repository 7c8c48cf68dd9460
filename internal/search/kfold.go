package search

import "fmt"

// Fold is one train/validation partition of sample indices.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits 0..n-1 into k contiguous folds without shuffling. The first
// n%k folds hold one extra sample.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs k >= 2, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		end := start + size

		f := Fold{
			Test:  make([]int, 0, size),
			Train: make([]int, 0, n-size),
		}
		for j := 0; j < n; j++ {
			if j >= start && j < end {
				f.Test = append(f.Test, j)
			} else {
				f.Train = append(f.Train, j)
			}
		}
		folds[i] = f
		start = end
	}
	return folds, nil
}

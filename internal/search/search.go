package search

import (
	"fmt"
	"log"
	"math"
	"sort"

	"grape-thinning/internal/forest"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Result is the cross-validated score of one candidate.
type Result struct {
	Params     forest.Params
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
	Rank       int
}

// Report summarises a finished grid search.
type Report struct {
	Best      forest.Params
	BestScore float64
	Results   []Result // grid order
}

// GridSearch evaluates every grid candidate with k-fold cross-validation,
// scoring each held-out fold with R^2.
type GridSearch struct {
	Grid    Grid
	Base    forest.Params
	Folds   int
	Workers int // concurrent fold fits; < 1 uses GOMAXPROCS
	Verbose bool
}

// New creates a GridSearch over grid with the given fold count.
func New(grid Grid, folds int, base forest.Params) *GridSearch {
	return &GridSearch{Grid: grid, Folds: folds, Base: base}
}

// Fit runs the search. The best candidate has the highest mean score; ties
// go to the earliest candidate in grid order.
func (g *GridSearch) Fit(X *mat.Dense, y []float64) (*Report, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", forest.ErrShapeMismatch, rows, len(y))
	}

	candidates, err := g.Grid.Candidates(g.Base)
	if err != nil {
		return nil, err
	}
	folds, err := KFold(rows, g.Folds)
	if err != nil {
		return nil, err
	}

	// Slice the folds once; every candidate reuses them.
	type foldData struct {
		trainX, testX *mat.Dense
		trainY, testY []float64
	}
	data := make([]foldData, len(folds))
	for i, f := range folds {
		data[i] = foldData{
			trainX: rowsOf(X, f.Train),
			trainY: valuesOf(y, f.Train),
			testX:  rowsOf(X, f.Test),
			testY:  valuesOf(y, f.Test),
		}
	}

	if g.Verbose {
		log.Printf("Fitting %d folds for each of %d candidates, totalling %d fits",
			len(folds), len(candidates), len(folds)*len(candidates))
	}

	jobs := len(candidates) * len(folds)
	scores := make([]float64, jobs)
	errs := make([]error, jobs)
	forest.ParallelFor(jobs, g.Workers, func(j int) {
		c, f := j/len(folds), j%len(folds)
		d := data[f]

		r := forest.NewRegressor(forest.WithParams(candidates[c]), forest.WithWorkers(1))
		if err := r.Fit(d.trainX, d.trainY); err != nil {
			errs[j] = err
			return
		}
		pred, err := r.Predict(d.testX)
		if err != nil {
			errs[j] = err
			return
		}
		scores[j], errs[j] = forest.R2Score(pred, d.testY)
	})
	for j, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("candidate %s fold %d: %w", candidates[j/len(folds)], j%len(folds), err)
		}
	}

	report := &Report{Results: make([]Result, len(candidates))}
	best := -1
	for c, p := range candidates {
		fs := scores[c*len(folds) : (c+1)*len(folds)]
		mean, std := stat.PopMeanStdDev(fs, nil)
		report.Results[c] = Result{
			Params:     p,
			FoldScores: append([]float64(nil), fs...),
			MeanScore:  mean,
			StdScore:   std,
		}
		if best < 0 || mean > report.Results[best].MeanScore {
			best = c
		}
	}
	rank(report.Results)

	report.Best = report.Results[best].Params
	report.BestScore = report.Results[best].MeanScore
	return report, nil
}

// rank assigns 1-based ranks by descending mean score; equal scores share
// the lowest rank.
func rank(results []Result) {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].MeanScore > results[order[b]].MeanScore
	})

	prev := math.NaN()
	current := 0
	for pos, idx := range order {
		if results[idx].MeanScore != prev {
			current = pos + 1
			prev = results[idx].MeanScore
		}
		results[idx].Rank = current
	}
}

func rowsOf(X *mat.Dense, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, j := range idx {
		out.SetRow(i, X.RawRowView(j))
	}
	return out
}

func valuesOf(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

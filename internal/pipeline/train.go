package pipeline

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"

	"grape-thinning/internal/dataset"
	"grape-thinning/internal/forest"
	"grape-thinning/internal/search"
	"grape-thinning/internal/store"
)

// TrainOptions configures a training run.
type TrainOptions struct {
	FeaturesPath      string // extracted feature CSV
	GroundTruthPath   string // ground-truth count CSV
	TrainFeaturesPath string // joined table written here
	RegressorPath     string // model artifact written here

	TestFraction float64
	Folds        int
	Seed         int64
	Workers      int
	Grid         search.Grid

	Store store.Store // optional ledger
	Out   io.Writer   // report destination, os.Stdout when nil
}

// DefaultTrainOptions returns the paths and settings used by a bare --train.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		FeaturesPath:      "features.csv",
		GroundTruthPath:   "Counts.csv",
		TrainFeaturesPath: "train_features.csv",
		RegressorPath:     "regressor_model.json",
		TestFraction:      0.1,
		Folds:             5,
		Grid:              search.DefaultGrid(),
	}
}

// TrainResult summarises a finished training run.
type TrainResult struct {
	Best      forest.Params
	CVScore   float64
	RMSE      float64
	TrainRows int
	TestRows  int

	TestImages []string
	Real       []float64
	Predicted  []float64

	Regressor *forest.Regressor
}

// Train joins features with ground truth, selects hyperparameters by grid
// search on the training split, refits, scores the held-out split and saves
// the model.
func Train(opts TrainOptions) (*TrainResult, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	table, err := dataset.ReadTable(opts.FeaturesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read features: %w", err)
	}
	// A CSV annotated by inference carries predict and Thinning columns,
	// which must not become training features.
	features, err := table.Select(dataset.FeatureHeader())
	if err != nil {
		return nil, fmt.Errorf("feature table %s: %w", opts.FeaturesPath, err)
	}
	gt, err := dataset.LoadGroundTruth(opts.GroundTruthPath)
	if err != nil {
		return nil, err
	}

	joined, err := dataset.Join(features, gt)
	if err != nil {
		return nil, err
	}
	log.Printf("Joined %d of %d feature rows with ground truth", joined.Len(), features.Len())
	if err := joined.WriteFile(opts.TrainFeaturesPath); err != nil {
		return nil, fmt.Errorf("failed to write training table: %w", err)
	}

	ds, err := dataset.NewDataset(joined, dataset.TargetColumn)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	trainIdx, testIdx, err := dataset.TrainTestSplit(ds.Len(), opts.TestFraction, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to split %d samples: %w", ds.Len(), err)
	}
	trainDS := ds.Subset(trainIdx)
	testDS := ds.Subset(testIdx)

	base := forest.DefaultParams()
	base.Seed = opts.Seed
	gs := search.New(opts.Grid, opts.Folds, base)
	gs.Workers = opts.Workers
	gs.Verbose = true

	report, err := gs.Fit(trainDS.X, trainDS.Y)
	if err != nil {
		return nil, fmt.Errorf("grid search failed: %w", err)
	}
	fmt.Fprintf(out, "Best hyperparameters: %s\n", report.Best)

	regressor := forest.NewRegressor(forest.WithParams(report.Best), forest.WithWorkers(opts.Workers))
	regressor.FeatureNames = ds.FeatureNames
	if err := regressor.Fit(trainDS.X, trainDS.Y); err != nil {
		return nil, fmt.Errorf("failed to fit regressor: %w", err)
	}

	pred, err := regressor.Predict(testDS.X)
	if err != nil {
		return nil, err
	}
	rmse, err := forest.RMSE(pred, testDS.Y)
	if err != nil {
		return nil, err
	}

	if err := regressor.Save(opts.RegressorPath); err != nil {
		return nil, fmt.Errorf("failed to save regressor: %w", err)
	}
	log.Printf("Saved regressor to %s", opts.RegressorPath)

	result := &TrainResult{
		Best:       report.Best,
		CVScore:    report.BestScore,
		RMSE:       rmse,
		TrainRows:  trainDS.Len(),
		TestRows:   testDS.Len(),
		TestImages: testDS.Images,
		Real:       testDS.Y,
		Predicted:  pred,
		Regressor:  regressor,
	}

	fmt.Fprintf(out, "RMSE: %.4f\n", rmse)
	if err := printComparison(out, result); err != nil {
		return nil, err
	}

	if opts.Store != nil {
		_, err := opts.Store.RecordTrainingRun(store.TrainingRun{
			Params:    result.Best,
			CVScore:   result.CVScore,
			RMSE:      result.RMSE,
			TrainRows: result.TrainRows,
			TestRows:  result.TestRows,
			ModelPath: opts.RegressorPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record training run: %w", err)
		}
	}
	return result, nil
}

// printComparison writes the held-out real and predicted values side by side.
func printComparison(w io.Writer, r *TrainResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tReal Values\tPredicted Values\t")
	for i := range r.Real {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", i,
			strconv.FormatFloat(r.Real[i], 'f', 1, 64),
			strconv.FormatFloat(r.Predicted[i], 'f', 6, 64))
	}
	return tw.Flush()
}

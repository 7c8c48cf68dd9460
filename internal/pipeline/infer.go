package pipeline

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"grape-thinning/internal/dataset"
	"grape-thinning/internal/features"
	"grape-thinning/internal/forest"
	imgutil "grape-thinning/internal/image"
	"grape-thinning/internal/store"
)

// Extractor appends the feature row of one image/mask pair to a CSV.
// Infer checks that every mask exists before calling Run, so implementations
// need not.
type Extractor interface {
	Run(maskPath, imagePath, csvPath string) error
}

// InferOptions configures an inference run.
type InferOptions struct {
	RegressorPath string
	CSVPath       string // feature rows are appended here, then predictions added
	ImagePath     string // file, directory or glob
	MaskPath      string // directory holding <stem><MaskSuffix>

	MaskSuffix        string
	ThinningThreshold int // 0 uses DefaultThinningThreshold
	Rounding          string

	Extractor Extractor
	Store     store.Store // optional ledger
}

// InferResult holds one entry per row of the output CSV.
type InferResult struct {
	Images    []string
	Predicted []int
	Thinning  []bool
}

// Infer extracts features for every resolved image, predicts berry counts
// for every row of the CSV and rewrites it with the predict and Thinning
// columns added.
func Infer(opts InferOptions) (*InferResult, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("no feature extractor configured")
	}
	suffix := opts.MaskSuffix
	if suffix == "" {
		suffix = "_masks.png"
	}
	threshold := opts.ThinningThreshold
	if threshold == 0 {
		threshold = DefaultThinningThreshold
	}

	regressor, err := forest.Load(opts.RegressorPath)
	if err != nil {
		return nil, err
	}

	images, err := imgutil.ResolveImagePaths(opts.ImagePath)
	if err != nil {
		return nil, err
	}

	// Every mask is located before the first row is appended, so a missing
	// mask leaves the CSV untouched.
	masks := make([]string, len(images))
	for i, imagePath := range images {
		masks[i] = imgutil.MaskPath(opts.MaskPath, imagePath, suffix)
		if _, err := os.Stat(masks[i]); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (image %s)", features.ErrMissingMask, masks[i], imagePath)
			}
			return nil, err
		}
	}

	for i, imagePath := range images {
		log.Printf("[%d/%d] extracting %s", i+1, len(images), imagePath)
		if err := opts.Extractor.Run(masks[i], imagePath, opts.CSVPath); err != nil {
			return nil, fmt.Errorf("failed to extract features from %s: %w", imagePath, err)
		}
	}

	table, err := dataset.ReadTable(opts.CSVPath)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.NewDataset(table, "")
	if err != nil {
		return nil, err
	}
	if err := regressor.CheckFeatures(ds.FeatureNames); err != nil {
		return nil, err
	}

	pred, err := regressor.Predict(ds.X)
	if err != nil {
		return nil, err
	}

	result := &InferResult{
		Images:    ds.Images,
		Predicted: make([]int, len(pred)),
		Thinning:  make([]bool, len(pred)),
	}
	predictCol := make([]string, len(pred))
	thinningCol := make([]string, len(pred))
	for i, p := range pred {
		count, err := ToCount(p, opts.Rounding)
		if err != nil {
			return nil, err
		}
		result.Predicted[i] = count
		result.Thinning[i] = Thinning(count, threshold)
		predictCol[i] = strconv.Itoa(count)
		thinningCol[i] = formatBool(result.Thinning[i])
	}

	if err := table.AddColumn(dataset.PredictColumn, predictCol); err != nil {
		return nil, err
	}
	if err := table.AddColumn(dataset.ThinningColumn, thinningCol); err != nil {
		return nil, err
	}
	if err := table.WriteFile(opts.CSVPath); err != nil {
		return nil, fmt.Errorf("failed to write predictions: %w", err)
	}
	log.Printf("Wrote %d predictions to %s", len(pred), opts.CSVPath)

	if opts.Store != nil {
		preds := make([]store.Prediction, len(pred))
		for i := range preds {
			preds[i] = store.Prediction{
				Image:     result.Images[i],
				Predicted: result.Predicted[i],
				Thinning:  result.Thinning[i],
				ModelPath: opts.RegressorPath,
			}
		}
		if err := opts.Store.RecordPredictions(preds); err != nil {
			return nil, fmt.Errorf("failed to record predictions: %w", err)
		}
	}
	return result, nil
}

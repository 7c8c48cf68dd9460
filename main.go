// Package main provides the entry point for grape-thinning, which trains a
// berry-count regressor and flags grape clusters that need thinning.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"grape-thinning/internal/config"
	"grape-thinning/internal/features"
	"grape-thinning/internal/pipeline"
	"grape-thinning/internal/store"
	"grape-thinning/internal/version"

	"github.com/spf13/pflag"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(os.Args[1:]); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

type options struct {
	train             bool
	inference         bool
	regressorPath     string
	csvPath           string
	imagePath         string
	maskPath          string
	gtPath            string
	trainFeaturesPath string
	configPath        string
	showVersion       bool
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("grape-thinning", pflag.ContinueOnError)
	fs.BoolVar(&opts.train, "train", false, "train the regressor from a feature CSV and ground-truth counts")
	fs.BoolVar(&opts.inference, "inference", false, "predict berry counts and thinning for images")
	fs.StringVar(&opts.regressorPath, "regressor-path", "", "trained regressor model path")
	fs.StringVar(&opts.csvPath, "csv-path", "", "feature CSV path (inference output, training input)")
	fs.StringVar(&opts.imagePath, "image-path", "", "grape image file, directory or glob")
	fs.StringVar(&opts.maskPath, "mask-path", "", "directory holding the instance masks")
	fs.StringVar(&opts.gtPath, "gt-path", "", "ground-truth count CSV used by --train")
	fs.StringVar(&opts.trainFeaturesPath, "train-features-path", "", "where --train writes the joined training table")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default $CONFIG_PATH or config.yaml)")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

func run(args []string) error {
	opts, fs, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Println(version.String())
		return nil
	}
	if !opts.train && !opts.inference {
		fs.Usage()
		return fmt.Errorf("select a mode with --train and/or --inference")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	var ledger store.Store
	if cfg.Database.Type != "" {
		ledger, err = store.NewStore(cfg.Database.Type, cfg.Database.ConnectionString)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()
	}

	// Inference runs before training when both modes are requested.
	if opts.inference {
		if err := runInference(opts, cfg, ledger); err != nil {
			return fmt.Errorf("inference failed: %w", err)
		}
	}
	if opts.train {
		if err := runTraining(opts, cfg, ledger); err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
	}
	return nil
}

func runInference(opts *options, cfg *config.Config, ledger store.Store) error {
	required := []struct{ flag, value string }{
		{"--regressor-path", opts.regressorPath},
		{"--csv-path", opts.csvPath},
		{"--image-path", opts.imagePath},
		{"--mask-path", opts.maskPath},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required for --inference", r.flag)
		}
	}

	log.Printf("Running inference with %s", opts.regressorPath)
	result, err := pipeline.Infer(pipeline.InferOptions{
		RegressorPath:     opts.regressorPath,
		CSVPath:           opts.csvPath,
		ImagePath:         opts.imagePath,
		MaskPath:          opts.maskPath,
		MaskSuffix:        cfg.Inference.MaskSuffix,
		ThinningThreshold: cfg.Inference.ThinningThreshold,
		Rounding:          cfg.Inference.Rounding,
		Extractor:         features.NewExtractor(cfg.Features),
		Store:             ledger,
	})
	if err != nil {
		return err
	}

	thin := 0
	for _, t := range result.Thinning {
		if t {
			thin++
		}
	}
	fmt.Printf("Predicted %d clusters, %d need thinning (results in %s)\n",
		len(result.Predicted), thin, opts.csvPath)
	return nil
}

func runTraining(opts *options, cfg *config.Config, ledger store.Store) error {
	trainOpts := pipeline.DefaultTrainOptions()
	trainOpts.TestFraction = cfg.Training.TestFraction
	trainOpts.Folds = cfg.Training.Folds
	trainOpts.Seed = cfg.Training.Seed
	trainOpts.Workers = cfg.Training.Workers
	trainOpts.Grid = cfg.Training.Grid
	trainOpts.TrainFeaturesPath = cfg.Training.TrainFeaturesPath
	trainOpts.Store = ledger

	if opts.regressorPath != "" {
		trainOpts.RegressorPath = opts.regressorPath
	}
	if opts.csvPath != "" {
		trainOpts.FeaturesPath = opts.csvPath
	}
	if opts.gtPath != "" {
		trainOpts.GroundTruthPath = opts.gtPath
	}
	if opts.trainFeaturesPath != "" {
		trainOpts.TrainFeaturesPath = opts.trainFeaturesPath
	}

	log.Printf("Training on %s with ground truth %s", trainOpts.FeaturesPath, trainOpts.GroundTruthPath)
	_, err := pipeline.Train(trainOpts)
	return err
}

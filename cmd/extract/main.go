// Command extract builds a feature table from grape images and their
// instance masks. Each image appends one row to the output CSV, which can
// then be joined with ground-truth counts by grape-thinning --train.
//
// Usage: extract --image-path <file|dir|glob> --mask-path <dir> [--csv-path features.csv]
package main

import (
	"errors"
	"fmt"
	"os"

	"grape-thinning/internal/config"
	"grape-thinning/internal/dataset"
	"grape-thinning/internal/features"
	imgutil "grape-thinning/internal/image"

	"github.com/spf13/pflag"
)

func main() {
	imagePath := pflag.String("image-path", "", "grape image file, directory or glob")
	maskPath := pflag.String("mask-path", "", "directory holding the instance masks")
	csvPath := pflag.String("csv-path", "features.csv", "feature CSV to append to")
	configPath := pflag.String("config", "", "YAML config file (default $CONFIG_PATH or config.yaml)")
	skipMissing := pflag.Bool("skip-missing", false, "skip images without a mask instead of failing")
	pflag.Parse()

	if *imagePath == "" || *maskPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s --image-path <file|dir|glob> --mask-path <dir> [--csv-path features.csv]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExtracts berry features from each image and appends them to a CSV.\n\n")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	images, err := imgutil.ResolveImagePaths(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d images\n", len(images))

	extractor := features.NewExtractor(cfg.Features)
	written, skipped := 0, 0
	for _, img := range images {
		mask := imgutil.MaskPath(*maskPath, img, cfg.Inference.MaskSuffix)
		row, err := extractor.Extract(mask, img)
		if errors.Is(err, features.ErrMissingMask) && *skipMissing {
			fmt.Printf("  %s: no mask, skipped\n", img)
			skipped++
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error extracting %s: %v\n", img, err)
			os.Exit(1)
		}
		if err := dataset.AppendFeatureRow(*csvPath, row); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		written++
		fmt.Printf("  %s: %.0f berries, d=%.1fpx, sunburn=%.2f, hue=%.0f\n",
			img, row.Count, row.Diameter, row.SunburnRatio, row.AverageHue)
	}

	fmt.Printf("\nWrote %d rows to %s", written, *csvPath)
	if skipped > 0 {
		fmt.Printf(" (%d skipped)", skipped)
	}
	fmt.Println()
}

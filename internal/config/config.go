// Package config loads the YAML configuration shared by the training and
// inference pipelines.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"grape-thinning/internal/features"
	"grape-thinning/internal/search"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultPath = "config.yaml"

// Rounding modes for converting regression output to a berry count.
const (
	RoundTruncate = "truncate"
	RoundNearest  = "nearest"
)

type Training struct {
	TestFraction      float64     `yaml:"testFraction" validate:"gt=0,lt=1"`
	Folds             int         `yaml:"folds" validate:"gte=2"`
	Seed              int64       `yaml:"seed"`
	Workers           int         `yaml:"workers" validate:"gte=0"`
	TrainFeaturesPath string      `yaml:"trainFeaturesPath" validate:"required"`
	Grid              search.Grid `yaml:"grid"`
}

type Inference struct {
	ThinningThreshold int    `yaml:"thinningThreshold" validate:"gte=1"`
	Rounding          string `yaml:"rounding" validate:"oneof=truncate nearest"`
	MaskSuffix        string `yaml:"maskSuffix" validate:"required"`
}

// Database configures the optional run ledger. An empty Type disables it.
type Database struct {
	Type             string `yaml:"type" validate:"omitempty,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString"`
}

type Config struct {
	Training  Training        `yaml:"training"`
	Inference Inference       `yaml:"inference"`
	Features  features.Params `yaml:"features"`
	Database  Database        `yaml:"database"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Training: Training{
			TestFraction:      0.1,
			Folds:             5,
			TrainFeaturesPath: "train_features.csv",
			Grid:              search.DefaultGrid(),
		},
		Inference: Inference{
			ThinningThreshold: 51,
			Rounding:          RoundTruncate,
			MaskSuffix:        "_masks.png",
		},
		Features: features.DefaultParams(),
	}
}

// ResolvePath picks the config file: the explicit path if set, then
// CONFIG_PATH (a .env file in the working directory is loaded first), then
// DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return DefaultPath
}

// LoadConfig reads the YAML file at configPath over the defaults and
// validates the result.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return config, nil
}

// Load resolves the config path and loads it. A missing DefaultPath yields
// the defaults; a missing explicitly named file is an error.
func Load(explicit string) (*Config, error) {
	path := ResolvePath(explicit)
	if path == DefaultPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
	}
	return LoadConfig(path)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.Features.Validate()
}

// Package features extracts per-image berry features from an image and its
// instance mask.
package features

import (
	"fmt"

	"grape-thinning/pkg/colorutil"
)

// Params controls feature extraction.
type Params struct {
	// MinBerryArea is the smallest instance, in pixels, counted as a berry.
	MinBerryArea int `yaml:"minBerryArea" json:"min_berry_area" validate:"gte=0"`

	// Sunburn is the HSV box (OpenCV scale) treated as sunburned skin.
	Sunburn colorutil.HSVRange `yaml:"sunburn" json:"sunburn"`

	// GradeDiameters are ascending diameter cut-offs in pixels.
	GradeDiameters []float64 `yaml:"gradeDiameters" json:"grade_diameters" validate:"dive,gt=0"`
}

// DefaultParams returns the extraction settings used when no config overrides them.
func DefaultParams() Params {
	return Params{
		MinBerryArea: 20,
		Sunburn: colorutil.HSVRange{
			HueMin: 8, HueMax: 30,
			SatMin: 40, SatMax: 255,
			ValMin: 60, ValMax: 255,
		},
		GradeDiameters: []float64{12, 16, 20, 24},
	}
}

// Validate checks the invariants not expressible as struct tags.
func (p Params) Validate() error {
	for i := 1; i < len(p.GradeDiameters); i++ {
		if p.GradeDiameters[i] < p.GradeDiameters[i-1] {
			return fmt.Errorf("grade diameters must be ascending: %v", p.GradeDiameters)
		}
	}
	return nil
}

// Grade returns 1 plus the number of cut-offs at or below diameter.
func (p Params) Grade(diameter float64) int {
	g := 1
	for _, d := range p.GradeDiameters {
		if d <= diameter {
			g++
		}
	}
	return g
}

// Package colorutil provides colour conversions shared by feature extraction.
package colorutil

import (
	"image/color"
	"math"
)

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h / 2, s, v
}

// ColorToHSV converts any color.Color to OpenCV-scaled HSV.
func ColorToHSV(c color.Color) (h, s, v float64) {
	r, g, b, _ := c.RGBA()
	return RGBToHSV(float64(r>>8), float64(g>>8), float64(b>>8))
}

// HSVRange is an inclusive box in OpenCV HSV space.
type HSVRange struct {
	HueMin float64 `yaml:"hueMin" json:"hue_min" validate:"gte=0,lte=180"`
	HueMax float64 `yaml:"hueMax" json:"hue_max" validate:"gte=0,lte=180"`
	SatMin float64 `yaml:"satMin" json:"sat_min" validate:"gte=0,lte=255"`
	SatMax float64 `yaml:"satMax" json:"sat_max" validate:"gte=0,lte=255"`
	ValMin float64 `yaml:"valMin" json:"val_min" validate:"gte=0,lte=255"`
	ValMax float64 `yaml:"valMax" json:"val_max" validate:"gte=0,lte=255"`
}

// Contains reports whether (h, s, v) lies inside the range.
// When HueMin > HueMax the hue interval wraps around 180.
func (r HSVRange) Contains(h, s, v float64) bool {
	if s < r.SatMin || s > r.SatMax || v < r.ValMin || v > r.ValMax {
		return false
	}
	if r.HueMin <= r.HueMax {
		return h >= r.HueMin && h <= r.HueMax
	}
	return h >= r.HueMin || h <= r.HueMax
}

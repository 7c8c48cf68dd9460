// Package dataset handles the feature, ground-truth and prediction tables.
package dataset

import "strconv"

// Column names shared by every table this tool reads or writes.
const (
	ImageColumn    = "image"
	TargetColumn   = "gt"
	PredictColumn  = "predict"
	ThinningColumn = "Thinning"
)

// FeatureColumns lists the numeric feature columns in file order.
var FeatureColumns = []string{
	"number of instances",
	"sunburn_ratio",
	"diameter",
	"circularity",
	"density",
	"aspect ratio",
	"grade",
	"average_hue",
}

// FeatureHeader returns the full header of a feature table.
func FeatureHeader() []string {
	return append([]string{ImageColumn}, FeatureColumns...)
}

// FeatureRow holds the measurements extracted from one grape-cluster image.
type FeatureRow struct {
	Image        string
	Count        float64
	SunburnRatio float64
	Diameter     float64
	Circularity  float64
	Density      float64
	AspectRatio  float64
	Grade        float64
	AverageHue   float64
}

// Values returns the numeric features in FeatureColumns order.
func (r FeatureRow) Values() []float64 {
	return []float64{
		r.Count,
		r.SunburnRatio,
		r.Diameter,
		r.Circularity,
		r.Density,
		r.AspectRatio,
		r.Grade,
		r.AverageHue,
	}
}

// Record renders the row as CSV fields matching FeatureHeader.
func (r FeatureRow) Record() []string {
	rec := []string{r.Image}
	for _, v := range r.Values() {
		rec = append(rec, FormatFloat(v))
	}
	return rec
}

// FormatFloat renders v with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package features

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"grape-thinning/internal/dataset"
	imgutil "grape-thinning/internal/image"
	"grape-thinning/pkg/colorutil"
	"grape-thinning/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	// ErrMissingMask is returned when an image has no instance mask file.
	ErrMissingMask = errors.New("mask file not found")

	// ErrSizeMismatch is returned when image and mask dimensions differ.
	ErrSizeMismatch = errors.New("image and mask sizes differ")
)

// Extractor computes feature rows from image/mask pairs.
type Extractor struct {
	Params Params
}

// NewExtractor creates an extractor with the given parameters.
func NewExtractor(p Params) *Extractor {
	return &Extractor{Params: p}
}

// berry holds the per-instance measurements.
type berry struct {
	pixels      int
	sunburned   int
	hueSum      float64
	circularity float64
	contour     []image.Point
}

// Extract computes the feature row for one image. The row's Image field is
// set to imagePath.
func (e *Extractor) Extract(maskPath, imagePath string) (dataset.FeatureRow, error) {
	row := dataset.FeatureRow{Image: imagePath}

	if _, err := os.Stat(maskPath); err != nil {
		if os.IsNotExist(err) {
			return row, fmt.Errorf("%w: %s", ErrMissingMask, maskPath)
		}
		return row, err
	}

	img, err := imgutil.Load(imagePath)
	if err != nil {
		return row, err
	}
	mask, err := imgutil.LoadLabels(maskPath)
	if err != nil {
		return row, err
	}

	ib := img.Bounds()
	if ib.Dx() != mask.Width || ib.Dy() != mask.Height {
		return row, fmt.Errorf("%w: image %dx%d, mask %dx%d", ErrSizeMismatch,
			ib.Dx(), ib.Dy(), mask.Width, mask.Height)
	}

	berries, err := e.measure(img, mask)
	if err != nil {
		return row, err
	}
	if len(berries) == 0 {
		return row, nil
	}

	var pixels, sunburned int
	var hueSum, diamSum, circSum float64
	var points []image.Point
	for _, b := range berries {
		pixels += b.pixels
		sunburned += b.sunburned
		hueSum += b.hueSum
		diamSum += geometry.EquivalentDiameter(float64(b.pixels))
		circSum += b.circularity
		points = append(points, b.contour...)
	}

	n := float64(len(berries))
	row.Count = n
	row.SunburnRatio = float64(sunburned) / float64(pixels)
	row.Diameter = diamSum / n
	row.Circularity = circSum / n
	row.AverageHue = hueSum / float64(pixels)
	row.Grade = float64(e.Params.Grade(row.Diameter))
	row.Density = density(float64(pixels), points)
	row.AspectRatio = aspectRatio(points)
	return row, nil
}

// Run extracts the features of one image and appends them to csvPath.
func (e *Extractor) Run(maskPath, imagePath, csvPath string) error {
	row, err := e.Extract(maskPath, imagePath)
	if err != nil {
		return err
	}
	return dataset.AppendFeatureRow(csvPath, row)
}

// measure walks every label in the mask, dropping instances below MinBerryArea.
func (e *Extractor) measure(img image.Image, mask *imgutil.LabelMask) ([]berry, error) {
	origin := img.Bounds().Min
	bounds := mask.Bounds()

	var berries []berry
	for label := 1; label <= mask.Count; label++ {
		r := bounds[label]
		if r.Empty() {
			continue
		}

		b := berry{}
		// One pixel of padding so contours never touch the Mat border.
		w, h := r.Dx()+2, r.Dy()+2
		bin := make([]byte, w*h)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if mask.At(x, y) != label {
					continue
				}
				b.pixels++
				bin[(y-r.Min.Y+1)*w+(x-r.Min.X+1)] = 255

				hue, sat, val := colorutil.ColorToHSV(img.At(origin.X+x, origin.Y+y))
				b.hueSum += hue
				if e.Params.Sunburn.Contains(hue, sat, val) {
					b.sunburned++
				}
			}
		}
		if b.pixels < e.Params.MinBerryArea {
			continue
		}

		if err := b.outline(bin, w, h, r.Min.Sub(image.Pt(1, 1))); err != nil {
			return nil, fmt.Errorf("label %d: %w", label, err)
		}
		berries = append(berries, b)
	}
	return berries, nil
}

// outline finds the largest external contour of the binary crop and records
// its circularity and its points in mask coordinates.
func (b *berry) outline(bin []byte, w, h int, offset image.Point) error {
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, bin)
	if err != nil {
		return fmt.Errorf("failed to create mat: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return nil
	}

	contour := contours.At(best)
	b.circularity = geometry.Circularity(bestArea, gocv.ArcLength(contour, true))
	for _, p := range contour.ToPoints() {
		b.contour = append(b.contour, p.Add(offset))
	}
	return nil
}

// density is berry area over the convex-hull area of every contour pixel.
// The hull is taken over pixel corners so that it covers whole pixels; a
// solid rectangle scores exactly 1.
func density(area float64, points []image.Point) float64 {
	corners := make([]image.Point, 0, 4*len(points))
	for _, p := range points {
		corners = append(corners, p, p.Add(image.Pt(1, 0)), p.Add(image.Pt(0, 1)), p.Add(image.Pt(1, 1)))
	}
	hull := geometry.ConvexHull(geometry.FromImagePoints(corners, image.Point{}))
	hullArea := geometry.PolygonArea(hull)
	if hullArea <= 0 {
		return 0
	}
	return math.Min(area/hullArea, 1)
}

// aspectRatio is the long over short side of the minimum-area rectangle.
func aspectRatio(points []image.Point) float64 {
	if len(points) < 3 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()

	rect := gocv.MinAreaRect(pv)
	long := math.Max(float64(rect.Width), float64(rect.Height))
	short := math.Min(float64(rect.Width), float64(rect.Height))
	if short <= 0 {
		return 0
	}
	return long / short
}

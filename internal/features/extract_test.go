package features

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"grape-thinning/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sunburnColor = color.RGBA{R: 200, G: 120, B: 40, A: 255} // hue 15
	healthyColor = color.RGBA{R: 40, G: 160, B: 40, A: 255}  // hue 60
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// twoBerries writes a 40x20 image with one sunburned and one healthy 10x10
// berry, plus a 2x2 speck that falls below the default minimum area.
func twoBerries(t *testing.T) (maskPath, imagePath string) {
	t.Helper()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	fill(img, img.Bounds(), color.Black)
	fill(img, image.Rect(5, 5, 15, 15), sunburnColor)
	fill(img, image.Rect(25, 5, 35, 15), healthyColor)

	mask := image.NewGray(image.Rect(0, 0, 40, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			mask.SetGray(x, y, color.Gray{Y: 1})
			mask.SetGray(x+20, y, color.Gray{Y: 2})
		}
	}
	for y := 17; y < 19; y++ {
		for x := 18; x < 20; x++ {
			mask.SetGray(x, y, color.Gray{Y: 3})
		}
	}

	imagePath = filepath.Join(dir, "cluster.png")
	maskPath = filepath.Join(dir, "cluster_masks.png")
	writePNG(t, imagePath, img)
	writePNG(t, maskPath, mask)
	return maskPath, imagePath
}

func TestParams_Grade(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Grade(11.9))
	assert.Equal(t, 2, p.Grade(12))
	assert.Equal(t, 5, p.Grade(30))
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.GradeDiameters = []float64{20, 10}
	assert.Error(t, p.Validate())
}

func TestExtract_TwoBerries(t *testing.T) {
	maskPath, imagePath := twoBerries(t)

	row, err := NewExtractor(DefaultParams()).Extract(maskPath, imagePath)
	require.NoError(t, err)

	assert.Equal(t, imagePath, row.Image)
	assert.Equal(t, 2.0, row.Count)
	assert.InDelta(t, 0.5, row.SunburnRatio, 1e-9)
	assert.InDelta(t, 11.284, row.Diameter, 1e-3)
	assert.InDelta(t, 37.5, row.AverageHue, 0.5)
	assert.Equal(t, 1.0, row.Grade)
	assert.Greater(t, row.Circularity, 0.7)
	assert.LessOrEqual(t, row.Circularity, 1.0)
	// 200 berry pixels inside a 30x10 hull
	assert.InDelta(t, 200.0/300.0, row.Density, 1e-9)
	assert.Greater(t, row.AspectRatio, 2.5)
}

func TestExtract_SolidBerryHasFullDensity(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fill(img, image.Rect(5, 5, 15, 15), healthyColor)
	mask := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			mask.SetGray(x, y, color.Gray{Y: 1})
		}
	}
	imagePath := filepath.Join(dir, "solid.png")
	maskPath := filepath.Join(dir, "solid_masks.png")
	writePNG(t, imagePath, img)
	writePNG(t, maskPath, mask)

	row, err := NewExtractor(DefaultParams()).Extract(maskPath, imagePath)
	require.NoError(t, err)
	assert.Equal(t, 1.0, row.Count)
	assert.InDelta(t, 1.0, row.Density, 1e-9)
}

func TestExtract_MinBerryAreaIncludesSmallInstances(t *testing.T) {
	maskPath, imagePath := twoBerries(t)

	p := DefaultParams()
	p.MinBerryArea = 1
	row, err := NewExtractor(p).Extract(maskPath, imagePath)
	require.NoError(t, err)
	assert.Equal(t, 3.0, row.Count)
}

func TestExtract_EmptyMask(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "empty.png")
	maskPath := filepath.Join(dir, "empty_masks.png")
	writePNG(t, imagePath, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	writePNG(t, maskPath, image.NewGray(image.Rect(0, 0, 8, 8)))

	row, err := NewExtractor(DefaultParams()).Extract(maskPath, imagePath)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0}, row.Values())
}

func TestExtract_MissingMask(t *testing.T) {
	_, imagePath := twoBerries(t)

	_, err := NewExtractor(DefaultParams()).Extract(filepath.Join(t.TempDir(), "none.png"), imagePath)
	assert.True(t, errors.Is(err, ErrMissingMask))
}

func TestExtract_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "a.png")
	maskPath := filepath.Join(dir, "a_masks.png")
	writePNG(t, imagePath, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	writePNG(t, maskPath, image.NewGray(image.Rect(0, 0, 4, 4)))

	_, err := NewExtractor(DefaultParams()).Extract(maskPath, imagePath)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestRun_AppendsRows(t *testing.T) {
	maskPath, imagePath := twoBerries(t)
	csvPath := filepath.Join(t.TempDir(), "features.csv")

	e := NewExtractor(DefaultParams())
	require.NoError(t, e.Run(maskPath, imagePath, csvPath))
	require.NoError(t, e.Run(maskPath, imagePath, csvPath))

	table, err := dataset.ReadTable(csvPath)
	require.NoError(t, err)
	assert.Equal(t, dataset.FeatureHeader(), table.Header)
	assert.Equal(t, 2, table.Len())
}

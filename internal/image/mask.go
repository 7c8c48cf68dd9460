package image

import (
	"fmt"
	"image"
	"image/color"
)

// LabelMask is a decoded instance mask. Each berry instance has a distinct
// label in 1..Count; 0 is background.
type LabelMask struct {
	Width  int
	Height int
	Labels []int // row-major, len = Width*Height
	Count  int
}

// At returns the label at (x, y), relative to the mask origin.
func (m *LabelMask) At(x, y int) int {
	return m.Labels[y*m.Width+x]
}

// Bounds returns the bounding rectangle of every label, indexed by label.
// Index 0 is unused.
func (m *LabelMask) Bounds() []image.Rectangle {
	rects := make([]image.Rectangle, m.Count+1)
	seen := make([]bool, m.Count+1)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			l := m.Labels[y*m.Width+x]
			if l == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if !seen[l] {
				rects[l] = px
				seen[l] = true
				continue
			}
			rects[l] = rects[l].Union(px)
		}
	}
	return rects
}

// LoadLabels decodes an instance mask. Every distinct non-zero colour or grey
// level is one instance; labels are assigned in first-seen raster order.
// Fully transparent and black pixels are background.
func LoadLabels(path string) (*LabelMask, error) {
	img, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mask: %w", err)
	}
	return LabelsFromImage(img), nil
}

// LabelsFromImage builds a LabelMask from a decoded mask image.
func LabelsFromImage(img image.Image) *LabelMask {
	b := img.Bounds()
	m := &LabelMask{
		Width:  b.Dx(),
		Height: b.Dy(),
		Labels: make([]int, b.Dx()*b.Dy()),
	}

	ids := make(map[color.RGBA64]int)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 || (r == 0 && g == 0 && bl == 0) {
				continue
			}
			key := color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(bl), A: uint16(a)}
			id, ok := ids[key]
			if !ok {
				m.Count++
				id = m.Count
				ids[key] = id
			}
			m.Labels[(y-b.Min.Y)*m.Width+(x-b.Min.X)] = id
		}
	}
	return m
}

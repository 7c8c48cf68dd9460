package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull_DropsInteriorPoints(t *testing.T) {
	pts := []Point2D{
		{0, 0}, {4, 0}, {4, 4}, {0, 4},
		{2, 2}, {1, 3}, {3, 1},
	}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 16.0, PolygonArea(hull), 1e-9)
}

func TestConvexHull_FewPoints(t *testing.T) {
	pts := []Point2D{{1, 1}, {2, 2}}
	hull := ConvexHull(pts)
	assert.Equal(t, pts, hull)
	assert.Zero(t, PolygonArea(hull))
}

func TestPolygonArea_Triangle(t *testing.T) {
	tri := []Point2D{{0, 0}, {4, 0}, {0, 3}}
	assert.InDelta(t, 6.0, PolygonArea(tri), 1e-9)
}

func TestCircularity(t *testing.T) {
	r := 10.0
	area := math.Pi * r * r
	perimeter := 2 * math.Pi * r
	assert.InDelta(t, 1.0, Circularity(area, perimeter), 1e-9)

	// Square: pi/4
	assert.InDelta(t, math.Pi/4, Circularity(16, 16), 1e-9)
	assert.Zero(t, Circularity(0, 10))
}

func TestEquivalentDiameter(t *testing.T) {
	assert.InDelta(t, 10.0, EquivalentDiameter(math.Pi*25), 1e-9)
	assert.Zero(t, EquivalentDiameter(-1))
}

func TestFromImagePoints_AppliesOffset(t *testing.T) {
	pts := FromImagePoints([]image.Point{{1, 2}, {3, 4}}, image.Pt(10, 20))
	assert.Equal(t, []Point2D{{11, 22}, {13, 24}}, pts)
}

func TestBoundingBox(t *testing.T) {
	r := BoundingBox([]Point2D{{1, 5}, {4, 2}, {3, 3}})
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 3}, r)
}

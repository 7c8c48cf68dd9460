// Package geometry provides basic geometric types used for contour measurements.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromImagePoint converts an integer pixel coordinate to a Point2D.
func FromImagePoint(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// FromImagePoints converts a contour returned by OpenCV into Point2D values,
// shifting every point by offset.
func FromImagePoints(pts []image.Point, offset image.Point) []Point2D {
	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[i] = FromImagePoint(p.Add(offset))
	}
	return out
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundingBox returns the axis-aligned bounding box of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// EquivalentDiameter returns the diameter of the circle with the given area.
func EquivalentDiameter(area float64) float64 {
	if area <= 0 {
		return 0
	}
	return 2 * math.Sqrt(area/math.Pi)
}

// Circularity returns 4*pi*area/perimeter^2, clamped to [0, 1].
// A perfect circle scores 1.0.
func Circularity(area, perimeter float64) float64 {
	if area <= 0 || perimeter <= 0 {
		return 0
	}
	c := 4 * math.Pi * area / (perimeter * perimeter)
	return math.Min(c, 1)
}

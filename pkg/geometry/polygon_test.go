package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rectContour(x, y, w, h int) []image.Point {
	return []image.Point{
		{X: x, Y: y},
		{X: x + w - 1, Y: y},
		{X: x + w - 1, Y: y + h - 1},
		{X: x, Y: y + h - 1},
	}
}

func TestBoundingRect(t *testing.T) {
	t.Run("rectangle contour", func(t *testing.T) {
		r := BoundingRect(rectContour(100, 100, 10, 80))
		assert.Equal(t, RectInt{X: 100, Y: 100, Width: 10, Height: 80}, r)
	})

	t.Run("single point", func(t *testing.T) {
		r := BoundingRect([]image.Point{{X: 5, Y: 7}})
		assert.Equal(t, RectInt{X: 5, Y: 7, Width: 1, Height: 1}, r)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, RectInt{}, BoundingRect(nil))
	})
}

func TestContourArea(t *testing.T) {
	assert.InDelta(t, 9*79, ContourArea(rectContour(100, 100, 10, 80)), 1e-9)

	// Orientation does not change the sign.
	rev := rectContour(0, 0, 5, 5)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	assert.InDelta(t, 16, ContourArea(rev), 1e-9)

	assert.Zero(t, ContourArea([]image.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}))
}

func TestContourAreaNeverExceedsBoundingArea(t *testing.T) {
	contours := [][]image.Point{
		rectContour(0, 0, 1, 1),
		rectContour(3, 4, 20, 2),
		{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 8}},
		{{X: 2, Y: 2}, {X: 9, Y: 3}, {X: 8, Y: 9}, {X: 1, Y: 7}},
	}
	for _, c := range contours {
		area := ContourArea(c)
		bounding := BoundingRect(c).Area()
		assert.GreaterOrEqual(t, area, 0.0)
		assert.LessOrEqual(t, area, bounding)
	}
}

func TestPointPolygonDistance(t *testing.T) {
	poly := rectContour(100, 100, 10, 80) // edges at x=100,109 y=100,179

	tests := []struct {
		name string
		p    image.Point
		want float64
	}{
		{"inside", image.Point{X: 104, Y: 140}, 4},
		{"on edge", image.Point{X: 100, Y: 150}, 0},
		{"outside right", image.Point{X: 156, Y: 100}, -47},
		{"outside corner", image.Point{X: 112, Y: 183}, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PointPolygonDistance(poly, tt.p), 1e-9)
		})
	}

	assert.True(t, math.IsInf(PointPolygonDistance(nil, image.Point{}), -1))
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.True(t, PointInPolygon(Point2D{X: 5, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 15, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 5, Y: 5}, square[:2]))
}

func TestRectIntHelpers(t *testing.T) {
	r := RectInt{X: 90, Y: 195, Width: 60, Height: 15}
	assert.Equal(t, image.Point{X: 120, Y: 202}, r.Center())
	assert.Equal(t, 60, r.Long())
	assert.Equal(t, 15, r.Short())
	assert.Equal(t, 900.0, r.Area())
	assert.Equal(t, image.Rect(90, 195, 150, 210), r.Rectangle())
}

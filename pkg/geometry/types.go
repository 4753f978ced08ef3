// Package geometry provides basic geometric types used throughout the application.
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

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FromImagePoint converts an integer pixel coordinate to Point2D.
func FromImagePoint(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height as a float.
func (r RectInt) Area() float64 {
	return float64(r.Width) * float64(r.Height)
}

// Center returns the integer center of the rectangle (truncating division).
func (r RectInt) Center() image.Point {
	return image.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Long returns the longer side.
func (r RectInt) Long() int {
	if r.Width > r.Height {
		return r.Width
	}
	return r.Height
}

// Short returns the shorter side.
func (r RectInt) Short() int {
	if r.Width < r.Height {
		return r.Width
	}
	return r.Height
}

// Rectangle converts to an image.Rectangle (exclusive max corner).
func (r RectInt) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

package geometry

import (
	"image"
	"math"
)

// BoundingRect computes the upright bounding rectangle of a pixel contour.
// Matches OpenCV's boundingRect: a single point has width and height 1.
func BoundingRect(contour []image.Point) RectInt {
	if len(contour) == 0 {
		return RectInt{}
	}

	minX, minY := contour[0].X, contour[0].Y
	maxX, maxY := minX, minY
	for _, p := range contour[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return RectInt{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// ContourArea computes the unsigned area enclosed by a closed polygon
// using the shoelace formula.
func ContourArea(contour []image.Point) float64 {
	n := len(contour)
	if n < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(contour[i].X)*float64(contour[j].Y) -
			float64(contour[j].X)*float64(contour[i].Y)
	}

	return math.Abs(sum) / 2
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PointPolygonDistance returns the signed distance from p to the closed
// polygon: positive inside, negative outside, zero on an edge. The
// magnitude is the distance to the nearest edge.
func PointPolygonDistance(polygon []image.Point, p image.Point) float64 {
	if len(polygon) == 0 {
		return math.Inf(-1)
	}

	pt := FromImagePoint(p)
	pts := make([]Point2D, len(polygon))
	for i, v := range polygon {
		pts[i] = FromImagePoint(v)
	}

	n := len(pts)
	minDist := math.Inf(1)
	for i := 0; i < n; i++ {
		d := distToSegment(pt, pts[i], pts[(i+1)%n])
		if d < minDist {
			minDist = d
		}
	}

	if minDist == 0 {
		return 0
	}
	if PointInPolygon(pt, pts) {
		return minDist
	}
	return -minDist
}

// distToSegment returns the distance from p to the segment a-b.
func distToSegment(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Distance(a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return p.Distance(Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}

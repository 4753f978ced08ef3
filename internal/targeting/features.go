package targeting

import (
	"image"
	"math"

	"frc-targeting/pkg/geometry"
)

// ContourFeatures are the metrics derived from one raw contour.
type ContourFeatures struct {
	Contour          []image.Point
	BoundingBox      geometry.RectInt
	ContourArea      float64
	BoundingArea     float64
	Rectangularity   float64 // ContourArea / BoundingArea * 100
	IsVertical       bool    // width/height <= 1
	Center           image.Point
	AspectRatioScore float64 // 0-100
}

// NewContourFeatures computes the features of a contour.
func NewContourFeatures(contour []image.Point) ContourFeatures {
	bbox := geometry.BoundingRect(contour)
	f := ContourFeatures{
		Contour:      contour,
		BoundingBox:  bbox,
		ContourArea:  geometry.ContourArea(contour),
		BoundingArea: bbox.Area(),
		Center:       bbox.Center(),
	}

	if bbox.Height > 0 {
		f.IsVertical = float64(bbox.Width)/float64(bbox.Height) <= 1.0
	}
	if f.BoundingArea > 0 {
		f.Rectangularity = f.ContourArea / f.BoundingArea * 100
	}
	f.AspectRatioScore = AspectRatioScore(bbox, f.IsVertical)

	return f
}

// AspectRatioScore scores how close the bounding box elongation is to the
// ideal strip. isVertical picks the ideal ratio while the w > h comparison
// picks which ratio is measured; both are intentional.
func AspectRatioScore(bbox geometry.RectInt, isVertical bool) float64 {
	short := bbox.Short()
	if short <= 0 {
		return 0
	}
	long := bbox.Long()

	ideal := IdealHorizontalRatio
	if isVertical {
		ideal = IdealVerticalRatio
	}

	var ratio float64
	if bbox.Width > bbox.Height {
		ratio = (float64(long) / float64(short)) / ideal
	} else {
		ratio = (float64(short) / float64(long)) / ideal
	}

	return clamp(100*(1-math.Abs(1-ratio)), 0, 100)
}

// IsValid reports whether the contour passes both candidate thresholds.
func (c Config) IsValid(f ContourFeatures) bool {
	return f.Rectangularity > c.RectangularityThreshold &&
		f.AspectRatioScore > c.AspectRatioThreshold
}

// Partition scores every contour, drops invalid ones and splits the rest
// into vertical and horizontal candidates, preserving extraction order.
func (c Config) Partition(contours [][]image.Point) (vertical, horizontal []ContourFeatures) {
	for _, contour := range contours {
		f := NewContourFeatures(contour)
		if !c.IsValid(f) {
			continue
		}
		if f.IsVertical {
			vertical = append(vertical, f)
		} else {
			horizontal = append(horizontal, f)
		}
	}
	return vertical, horizontal
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

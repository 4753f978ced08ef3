// Package colorutil provides shared color utilities for target segmentation.
package colorutil

import (
	"image/color"
	"math"
)

// Overlay colors for annotated output.
var (
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// HSV is a color in OpenCV convention: H 0-180, S 0-255, V 0-255.
type HSV struct {
	H float64 `json:"h" toml:"h"`
	S float64 `json:"s" toml:"s"`
	V float64 `json:"v" toml:"v"`
}

// HSVRange is an inclusive threshold range.
type HSVRange struct {
	Min HSV `json:"min" toml:"min"`
	Max HSV `json:"max" toml:"max"`
}

// Contains reports whether c lies inside the range on every channel.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Min.H && c.H <= r.Max.H &&
		c.S >= r.Min.S && c.S <= r.Max.S &&
		c.V >= r.Min.V && c.V <= r.Max.V
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0 // V in 0-255

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0 // S in 0-255
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	h = h / 2 // Convert to OpenCV's 0-180 range

	return h, s, v
}

// FromRGB converts an RGB color to HSV.
func FromRGB(c color.RGBA) HSV {
	h, s, v := RGBToHSV(float64(c.R), float64(c.G), float64(c.B))
	return HSV{H: h, S: s, V: v}
}

// RangeAround builds a threshold range centered on a sampled color.
// Hue gets a quarter of the tolerance since OpenCV hue spans only 0-180.
func RangeAround(c HSV, tolerance float64) HSVRange {
	hTol := tolerance / 4
	return HSVRange{
		Min: HSV{
			H: clamp(c.H-hTol, 0, 180),
			S: clamp(c.S-tolerance, 0, 255),
			V: clamp(c.V-tolerance, 0, 255),
		},
		Max: HSV{
			H: clamp(c.H+hTol, 0, 180),
			S: clamp(c.S+tolerance, 0, 255),
			V: clamp(c.V+tolerance, 0, 255),
		},
	}
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

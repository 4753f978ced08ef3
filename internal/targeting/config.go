// Package targeting scores, pairs and measures vision target contours.
package targeting

import (
	"fmt"
	"math"

	"frc-targeting/pkg/colorutil"
)

// Config holds camera intrinsics and scoring thresholds. A Config is
// passed by value and never mutated after a Pipeline is built.
type Config struct {
	// Camera intrinsics the geometry is calibrated against
	CameraResWidth  int     // pixels
	CameraResHeight int     // pixels
	CameraViewAngle float64 // degrees

	// Target color, OpenCV HSV convention
	Color colorutil.HSVRange

	// Candidate gating
	RectangularityThreshold float64 // contour/bounding area, percent
	AspectRatioThreshold    float64 // 0-100 score

	// Pairing gating
	PairingScoreThreshold  float64 // 0-100
	VerticalScoreThreshold float64 // ideal near 1.0

	// Calibration constant for the distance estimate
	TargetHeight float64
}

// Ideal bounding-box elongations (short/long for vertical, long/short for
// horizontal) of the field's vision strips.
const (
	IdealVerticalRatio   = 4.0 / 32.0
	IdealHorizontalRatio = 23.5 / 4.0
)

// degreesPerPixelNumerator is the field-of-view constant spread over the
// sensor diagonal to turn pixel offsets into heading degrees.
const degreesPerPixelNumerator = 85.0

// DefaultConfig returns the calibration for the 640x480 Axis camera
// mounted in portrait orientation.
func DefaultConfig() Config {
	return Config{
		CameraResWidth:  480,
		CameraResHeight: 640,
		CameraViewAngle: 49,

		Color: colorutil.HSVRange{
			Min: colorutil.HSV{H: 75, S: 160, V: 65},
			Max: colorutil.HSV{H: 92, S: 255, V: 180},
		},

		RectangularityThreshold: 40,
		AspectRatioThreshold:    55,

		PairingScoreThreshold:  50,
		VerticalScoreThreshold: 0.8,

		TargetHeight: 32,
	}
}

// WithResolution returns a copy of c with a different camera resolution.
func (c Config) WithResolution(width, height int) Config {
	c.CameraResWidth = width
	c.CameraResHeight = height
	return c
}

// WithColor returns a copy of c with a custom HSV threshold range.
// Useful when the target color has been sampled from a frame.
func (c Config) WithColor(r colorutil.HSVRange) Config {
	c.Color = r
	return c
}

// WithThresholds returns a copy of c with custom candidate thresholds.
func (c Config) WithThresholds(rectangularity, aspectRatio float64) Config {
	c.RectangularityThreshold = rectangularity
	c.AspectRatioThreshold = aspectRatio
	return c
}

// Validate checks that the configuration can produce finite geometry.
func (c Config) Validate() error {
	if c.CameraResWidth <= 0 || c.CameraResHeight <= 0 {
		return fmt.Errorf("camera resolution must be positive, got %dx%d",
			c.CameraResWidth, c.CameraResHeight)
	}
	if c.CameraViewAngle <= 0 || c.CameraViewAngle >= 180 {
		return fmt.Errorf("camera view angle must be in (0, 180), got %f", c.CameraViewAngle)
	}
	if c.Color.Min.H > c.Color.Max.H || c.Color.Min.S > c.Color.Max.S || c.Color.Min.V > c.Color.Max.V {
		return fmt.Errorf("color range min %+v exceeds max %+v", c.Color.Min, c.Color.Max)
	}
	if c.TargetHeight <= 0 {
		return fmt.Errorf("target height must be positive, got %f", c.TargetHeight)
	}
	return nil
}

// viewAngleRadians returns the camera view angle in radians.
func (c Config) viewAngleRadians() float64 {
	return c.CameraViewAngle * math.Pi / 180
}

// degreesPerPixel converts horizontal pixel offsets to heading degrees.
func (c Config) degreesPerPixel() float64 {
	w := float64(c.CameraResWidth)
	h := float64(c.CameraResHeight)
	return degreesPerPixelNumerator / math.Sqrt(h*h+w*w)
}

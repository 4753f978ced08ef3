package targeting

import (
	"math"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
)

// Distance estimates the forward distance to a vertical strip from its
// pixel height. Degenerate heights yield 0 and a logged warning.
func (c Config) Distance(f ContourFeatures) float64 {
	bbox := f.BoundingBox
	height := math.Min(float64(bbox.Height), float64(bbox.Long()))
	if height <= 0 {
		monitoring.Logf("targeting: cannot compute distance for contour at (%d,%d): height %v",
			bbox.X, bbox.Y, height)
		return 0
	}

	// 24 = 12 in/ft * 2 for the half view angle.
	d := float64(c.CameraResWidth) * c.TargetHeight /
		(height * 24 * math.Tan(c.viewAngleRadians()/2))
	if math.IsNaN(d) || math.IsInf(d, 0) {
		monitoring.Logf("targeting: non-finite distance for contour at (%d,%d)", bbox.X, bbox.Y)
		return 0
	}
	return d
}

// Angle returns the heading offset in degrees, positive to the right.
func (c Config) Angle(f ContourFeatures) float64 {
	offset := f.Center.X - c.CameraResWidth/2
	return float64(offset) * c.degreesPerPixel()
}

// BuildTarget converts a paired or unpaired candidate into a Target.
func (c Config) BuildTarget(cand Candidate) target.Target {
	t := target.Target{
		Angle:    c.Angle(cand.Vertical),
		Distance: c.Distance(cand.Vertical),
		Side:     target.SideUnknown,
	}

	if p := cand.Pairing; p != nil {
		t.IsHot = true
		t.Confidence = p.VerticalScore*50 + p.Score/2
		if cand.Vertical.BoundingBox.X-p.Horizontal.BoundingBox.X < 0 {
			t.Side = target.SideRight
		} else {
			t.Side = target.SideLeft
		}
	}

	return t
}

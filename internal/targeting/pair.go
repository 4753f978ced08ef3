package targeting

import (
	"math"

	"frc-targeting/pkg/geometry"
)

// Pairing links a vertical candidate to the horizontal strip beside it.
type Pairing struct {
	Horizontal    *ContourFeatures
	Distance      float64 // signed contour-to-center distance, pixels
	Score         float64 // 0-100
	VerticalScore float64 // 1.0 when the strip sits level with the vertical's top
}

// Candidate is a vertical contour with its optional pairing.
type Candidate struct {
	Vertical ContourFeatures
	Pairing  *Pairing
}

// Paired reports whether a horizontal strip was matched.
func (c Candidate) Paired() bool {
	return c.Pairing != nil
}

// PairingScore converts a distance/width ratio into a 0-100 score that
// peaks when the strip center sits one strip-width from the vertical.
func PairingScore(ratio float64) float64 {
	if ratio <= 0 || ratio > 2 {
		return 0
	}
	return 100 - math.Abs(1-ratio)*100
}

// VerticalAlignmentScore measures how level h's center is with v's top edge.
func VerticalAlignmentScore(v, h ContourFeatures) float64 {
	return 1 - math.Abs(float64(v.BoundingBox.Y-h.Center.Y))/(4*float64(h.BoundingBox.Height))
}

// Pair matches each vertical with the first horizontal, in order, that
// clears both thresholds. The search is greedy and order dependent.
func (c Config) Pair(vertical, horizontal []ContourFeatures) []Candidate {
	candidates := make([]Candidate, 0, len(vertical))
	for _, v := range vertical {
		cand := Candidate{Vertical: v}
		for i := range horizontal {
			h := &horizontal[i]
			if h.BoundingBox.Width <= 0 || h.BoundingBox.Height <= 0 {
				continue
			}
			dist := geometry.PointPolygonDistance(v.Contour, h.Center)
			score := PairingScore(math.Abs(dist) / float64(h.BoundingBox.Width))
			vscore := VerticalAlignmentScore(v, *h)
			if vscore > c.VerticalScoreThreshold && score > c.PairingScoreThreshold {
				cand.Pairing = &Pairing{
					Horizontal:    h,
					Distance:      dist,
					Score:         score,
					VerticalScore: vscore,
				}
				break
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

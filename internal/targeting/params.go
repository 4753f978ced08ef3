package targeting

import (
	"fmt"

	"frc-targeting/internal/parameters"
	"frc-targeting/pkg/colorutil"
)

// ParametersSection is the parameters file section read by
// ConfigFromParameters.
const ParametersSection = "vision"

// ConfigFromParameters overlays the [vision] section of p onto base.
// Missing keys keep the base value.
func ConfigFromParameters(base Config, p *parameters.Parameters) (Config, error) {
	const s = ParametersSection
	c := base

	c = c.WithResolution(
		p.Int(s, "camera_res_width", c.CameraResWidth),
		p.Int(s, "camera_res_height", c.CameraResHeight),
	)
	c.CameraViewAngle = p.Float(s, "camera_view_angle", c.CameraViewAngle)

	c = c.WithColor(colorutil.HSVRange{
		Min: colorutil.HSV{
			H: p.Float(s, "hue_min", c.Color.Min.H),
			S: p.Float(s, "sat_min", c.Color.Min.S),
			V: p.Float(s, "val_min", c.Color.Min.V),
		},
		Max: colorutil.HSV{
			H: p.Float(s, "hue_max", c.Color.Max.H),
			S: p.Float(s, "sat_max", c.Color.Max.S),
			V: p.Float(s, "val_max", c.Color.Max.V),
		},
	})

	c = c.WithThresholds(
		p.Float(s, "rectangularity_threshold", c.RectangularityThreshold),
		p.Float(s, "aspect_ratio_threshold", c.AspectRatioThreshold),
	)
	c.PairingScoreThreshold = p.Float(s, "pairing_score_threshold", c.PairingScoreThreshold)
	c.VerticalScoreThreshold = p.Float(s, "vertical_score_threshold", c.VerticalScoreThreshold)
	c.TargetHeight = p.Float(s, "target_height", c.TargetHeight)

	if err := c.Validate(); err != nil {
		return base, fmt.Errorf("vision parameters: %w", err)
	}
	return c, nil
}

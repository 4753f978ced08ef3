package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frc-targeting/internal/parameters"
)

func TestConfigFromParameters(t *testing.T) {
	p, err := parameters.Parse(`
[vision]
camera_res_width = 320
camera_res_height = 240
hue_min = 70
val_max = 200.5
rectangularity_threshold = 45
vertical_score_threshold = 0.75
`)
	require.NoError(t, err)

	c, err := ConfigFromParameters(DefaultConfig(), p)
	require.NoError(t, err)

	want := DefaultConfig().WithResolution(320, 240)
	want.Color.Min.H = 70
	want.Color.Max.V = 200.5
	want.RectangularityThreshold = 45
	want.VerticalScoreThreshold = 0.75
	assert.Equal(t, want, c)

	same, err := ConfigFromParameters(DefaultConfig(), parameters.Empty())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), same)
}

func TestConfigFromParametersInvalid(t *testing.T) {
	p, err := parameters.Parse("[vision]\ncamera_view_angle = 0\n")
	require.NoError(t, err)

	c, err := ConfigFromParameters(DefaultConfig(), p)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

package targeting

import (
	"context"
	"image"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
)

// ContourSource yields the raw contours of the next frame in extraction
// order. An error means the frame could not be acquired.
type ContourSource interface {
	Contours(ctx context.Context) ([][]image.Point, error)
}

// Pipeline runs one frame through scoring, pairing and geometry.
type Pipeline struct {
	config Config
	source ContourSource
}

// NewPipeline creates a Pipeline. The config is copied.
func NewPipeline(config Config, source ContourSource) *Pipeline {
	return &Pipeline{config: config, source: source}
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Targets processes the next frame. The result is never empty: it is
// either one or more real targets or a single NoTargets sentinel.
func (p *Pipeline) Targets(ctx context.Context) []target.Target {
	contours, err := p.source.Contours(ctx)
	if err != nil {
		monitoring.Logf("targeting: frame unavailable: %v", err)
		contours = nil
	}

	targets := p.Process(contours)
	if len(targets) == 0 {
		return []target.Target{target.NoTargets()}
	}
	return targets
}

// Process converts already extracted contours into targets, one per
// valid vertical candidate. It may return an empty slice.
func (p *Pipeline) Process(contours [][]image.Point) []target.Target {
	vertical, horizontal := p.config.Partition(contours)
	candidates := p.config.Pair(vertical, horizontal)

	targets := make([]target.Target, 0, len(candidates))
	for _, cand := range candidates {
		targets = append(targets, p.config.BuildTarget(cand))
	}
	return targets
}

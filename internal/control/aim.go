package control

import (
	"math"

	"frc-targeting/internal/target"
)

// AimConfig tunes the aim-at-target maneuver.
type AimConfig struct {
	OptimumRange   float64 // feet
	RangeTolerance float64 // feet
	AngleOffset    float64 // degrees toward the goal from the side target
	AngleTolerance float64 // degrees
	Speed          float64 // drive and turn output, 0-1
}

// DefaultAimConfig returns the shooting position used in competition.
func DefaultAimConfig() AimConfig {
	return AimConfig{
		OptimumRange:   10,
		RangeTolerance: 0.5,
		AngleOffset:    0,
		AngleTolerance: 1,
		Speed:          0.3,
	}
}

type aimStep int

const (
	aimRange aimStep = iota
	aimTurn
	aimDone
)

// Aimer drives to shooting range and then turns to face a target. Call
// Step once per control tick until it reports done.
type Aimer struct {
	config AimConfig
	drive  Drive
	step   aimStep
}

// NewAimer creates an Aimer commanding drive.
func NewAimer(config AimConfig, drive Drive) *Aimer {
	return &Aimer{config: config, drive: drive}
}

// Reset restarts the maneuver.
func (a *Aimer) Reset() {
	a.step = aimRange
}

// Step advances the maneuver toward tgt and reports completion. Targets
// with an unknown side cannot be aimed at and complete immediately.
func (a *Aimer) Step(tgt target.Target) bool {
	switch a.step {
	case aimRange:
		remaining := tgt.Distance - a.config.OptimumRange
		if math.Abs(remaining) < a.config.RangeTolerance {
			a.drive.Stop()
			a.step = aimTurn
			return false
		}
		a.drive.ArcadeDrive(math.Copysign(a.config.Speed, remaining), 0)
		return false

	case aimTurn:
		heading := tgt.Angle
		switch tgt.Side {
		case target.SideLeft:
			heading += a.config.AngleOffset
		case target.SideRight:
			heading -= a.config.AngleOffset
		default:
			a.drive.Stop()
			a.step = aimDone
			return true
		}
		if math.Abs(heading) <= a.config.AngleTolerance {
			a.drive.Stop()
			a.step = aimDone
			return true
		}
		a.drive.ArcadeDrive(0, math.Copysign(a.config.Speed, heading))
		return false
	}
	return true
}

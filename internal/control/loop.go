package control

import (
	"context"
	"time"

	"frc-targeting/internal/autoscript"
	"frc-targeting/internal/timeutil"
)

// DefaultPeriod is the control loop tick.
const DefaultPeriod = 20 * time.Millisecond

// Loop polls targets and steps the autonomous script on every tick.
type Loop struct {
	Tracker *TargetTracker
	Runner  *autoscript.Runner // optional
	Drive   Drive
	Clock   timeutil.Clock
	Period  time.Duration

	// OnTick, if set, runs after each tick. Used for diagnostics.
	OnTick func()
}

// Run ticks until ctx is cancelled. The drive is stopped on return.
func (l *Loop) Run(ctx context.Context) error {
	clock := l.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	period := l.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	ticker := clock.NewTicker(period)
	defer ticker.Stop()
	defer l.Drive.Stop()

	scriptDone := l.Runner == nil
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}

		l.Tracker.Poll()
		if !scriptDone {
			if scriptDone = l.Runner.Step(); scriptDone {
				l.Drive.Stop()
			}
		}
		if l.OnTick != nil {
			l.OnTick()
		}
	}
}

// Package control consumes received targets on the robot's control loop.
package control

import (
	"math"
	"sync"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
)

// BatchSource is the non-blocking end of the target queue.
type BatchSource interface {
	TryTake() ([]target.Target, bool)
}

// TargetTracker holds the targets the control loop is acting on.
type TargetTracker struct {
	source BatchSource

	mu      sync.Mutex
	current []target.Target
}

// NewTargetTracker creates a tracker draining source.
func NewTargetTracker(source BatchSource) *TargetTracker {
	return &TargetTracker{source: source}
}

// Poll takes the newest batch, if any. A batch with no real targets clears
// the current targets; sentinel elements are never tracked. No new batch
// keeps the current targets. It reports whether a batch was
// taken.
func (t *TargetTracker) Poll() bool {
	batch, ok := t.source.TryTake()
	if !ok {
		return false
	}

	kept := make([]target.Target, 0, len(batch))
	for _, tgt := range batch {
		if !tgt.NoTargets {
			kept = append(kept, tgt)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(kept) == 0 {
		if len(t.current) > 0 {
			monitoring.Logf("control: no targets, clearing")
		}
		t.current = nil
		return true
	}
	t.current = kept
	return true
}

// Current returns a copy of the targets being tracked.
func (t *TargetTracker) Current() []target.Target {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]target.Target, len(t.current))
	copy(out, t.current)
	return out
}

// Best returns the hot target closest to the robot's heading, falling
// back to the closest unpaired one.
func (t *TargetTracker) Best() (target.Target, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	best, found := nearestHeading(t.current, func(tgt target.Target) bool { return tgt.IsHot })
	if found {
		return best, true
	}
	return nearestHeading(t.current, func(target.Target) bool { return true })
}

// OnSide returns the last tracked target on side. SideEither matches any
// side.
func (t *TargetTracker) OnSide(side target.Side) (target.Target, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var found target.Target
	ok := false
	for _, tgt := range t.current {
		if tgt.NoTargets {
			continue
		}
		if tgt.Side == side || side == target.SideEither {
			found, ok = tgt, true
		}
	}
	return found, ok
}

// HotOn reports whether a hot target is tracked on side.
func (t *TargetTracker) HotOn(side target.Side) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tgt := range t.current {
		if !tgt.NoTargets && tgt.IsHot && (tgt.Side == side || side == target.SideEither) {
			return true
		}
	}
	return false
}

func nearestHeading(targets []target.Target, keep func(target.Target) bool) (target.Target, bool) {
	var best target.Target
	found := false
	for _, tgt := range targets {
		if tgt.NoTargets || !keep(tgt) {
			continue
		}
		if !found || math.Abs(tgt.Angle) < math.Abs(best.Angle) {
			best, found = tgt, true
		}
	}
	return best, found
}

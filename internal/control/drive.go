package control

import (
	"sync"

	"frc-targeting/internal/monitoring"
)

// Drive is the drivetrain as seen by aiming and scripts. move is forward
// speed and rotate is clockwise turn rate, both in [-1, 1].
type Drive interface {
	ArcadeDrive(move, rotate float64)
	Stop()
}

// LogDrive is a bench Drive that logs commanded changes.
type LogDrive struct {
	mu           sync.Mutex
	move, rotate float64
}

// ArcadeDrive logs the command when it differs from the last one.
func (d *LogDrive) ArcadeDrive(move, rotate float64) {
	move, rotate = clampUnit(move), clampUnit(rotate)

	d.mu.Lock()
	changed := move != d.move || rotate != d.rotate
	d.move, d.rotate = move, rotate
	d.mu.Unlock()

	if changed {
		monitoring.Logf("drive: move=%.2f rotate=%.2f", move, rotate)
	}
}

// Stop commands zero output.
func (d *LogDrive) Stop() {
	d.ArcadeDrive(0, 0)
}

// Output returns the last commanded values.
func (d *LogDrive) Output() (move, rotate float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.move, d.rotate
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

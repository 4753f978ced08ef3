// Package target describes vision targets and their line-delimited JSON
// wire format.
package target

import "fmt"

// Side identifies which side of the field wall a target is on.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SideUnknown
	SideEither
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	case SideUnknown:
		return "Unknown"
	case SideEither:
		return "Either"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined wire codes.
func (s Side) Valid() bool {
	return s >= SideLeft && s <= SideEither
}

// Target is a single detection as seen by the robot.
type Target struct {
	Side       Side    // Which side of the wall
	Distance   float64 // Estimated forward distance (feet)
	Angle      float64 // Degrees off heading, positive is right of center
	IsHot      bool    // A horizontal pairing was found
	Confidence float64 // 0-100, only meaningful when IsHot
	NoTargets  bool    // Sentinel: the frame had no detections
}

// NoTargets returns the sentinel target for a frame without detections.
func NoTargets() Target {
	return Target{Side: SideUnknown, NoTargets: true}
}

// IsSentinel reports whether batch is the single-element "no targets" batch.
func IsSentinel(batch []Target) bool {
	return len(batch) == 1 && batch[0].NoTargets
}

func (t Target) String() string {
	if t.NoTargets {
		return "Target{none}"
	}
	return fmt.Sprintf("Target{side=%s dist=%.2f angle=%.2f hot=%v conf=%.1f}",
		t.Side, t.Distance, t.Angle, t.IsHot, t.Confidence)
}

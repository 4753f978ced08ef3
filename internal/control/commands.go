package control

import (
	"fmt"
	"strings"
	"time"

	"frc-targeting/internal/autoscript"
	"frc-targeting/internal/target"
)

// DefaultHotGoalTimeout bounds wait_for_hot_goal_with_time.
const DefaultHotGoalTimeout = 5 * time.Second

// RegisterCommands adds the targeting-aware autonomous commands:
//
//	wait_time,<seconds>
//	drive_time,<speed>,<seconds>
//	stop
//	aim_at_target[,<side>]
//	wait_for_hot_goal_with_time,<side>[,<timeout seconds>]
//
// Sides are left, right, unknown, either or their wire codes 0-3.
func RegisterCommands(reg *autoscript.Registry, tracker *TargetTracker, drive Drive, aimer *Aimer) {
	reg.RegisterTimed("wait_time", func(elapsed time.Duration, params []any) (bool, error) {
		return elapsed >= seconds(autoscript.Float(params, 0, 0)), nil
	})

	reg.RegisterTimed("drive_time", func(elapsed time.Duration, params []any) (bool, error) {
		if elapsed >= seconds(autoscript.Float(params, 1, 0)) {
			drive.Stop()
			return true, nil
		}
		drive.ArcadeDrive(autoscript.Float(params, 0, 0), 0)
		return false, nil
	})

	reg.Register("stop", func([]any) (bool, error) {
		drive.Stop()
		return true, nil
	})

	reg.OnStart("aim_at_target", func([]any) { aimer.Reset() })
	reg.Register("aim_at_target", func(params []any) (bool, error) {
		var tgt target.Target
		var ok bool
		if len(params) > 0 {
			side, err := ParseSide(params[0])
			if err != nil {
				return true, err
			}
			tgt, ok = tracker.OnSide(side)
		} else {
			tgt, ok = tracker.Best()
		}
		if !ok {
			drive.Stop()
			return true, nil
		}
		return aimer.Step(tgt), nil
	})

	reg.RegisterTimed("wait_for_hot_goal_with_time", func(elapsed time.Duration, params []any) (bool, error) {
		if len(params) == 0 {
			return true, nil
		}
		side, err := ParseSide(params[0])
		if err != nil {
			return true, err
		}
		if tracker.HotOn(side) {
			return true, nil
		}
		timeout := DefaultHotGoalTimeout
		if len(params) > 1 {
			timeout = seconds(autoscript.Float(params, 1, DefaultHotGoalTimeout.Seconds()))
		}
		return elapsed >= timeout, nil
	})
}

// ParseSide converts a script parameter to a Side.
func ParseSide(v any) (target.Side, error) {
	switch p := v.(type) {
	case float64:
		side := target.Side(p)
		if float64(side) != p || !side.Valid() {
			return target.SideUnknown, fmt.Errorf("invalid side %v", p)
		}
		return side, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "left":
			return target.SideLeft, nil
		case "right":
			return target.SideRight, nil
		case "unknown":
			return target.SideUnknown, nil
		case "either":
			return target.SideEither, nil
		}
	}
	return target.SideUnknown, fmt.Errorf("invalid side %v", v)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

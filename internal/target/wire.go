package target

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"frc-targeting/internal/monitoring"
)

// ErrNotArray is returned when a wire line is not a JSON array.
var ErrNotArray = errors.New("wire message is not a JSON array")

// wireTarget is the on-the-wire object. Pointer fields distinguish
// missing keys from zero values.
type wireTarget struct {
	Side       *int     `json:"side,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
	Angle      *float64 `json:"angle,omitempty"`
	IsHot      *bool    `json:"is_hot,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	NoTargets  bool     `json:"no_targets"`
}

func toWire(t Target) wireTarget {
	if t.NoTargets {
		return wireTarget{NoTargets: true}
	}
	side := int(t.Side)
	dist, angle, hot, conf := t.Distance, t.Angle, t.IsHot, t.Confidence
	return wireTarget{
		Side:       &side,
		Distance:   &dist,
		Angle:      &angle,
		IsHot:      &hot,
		Confidence: &conf,
	}
}

func fromWire(w wireTarget) (Target, error) {
	if w.NoTargets {
		return NoTargets(), nil
	}
	t := Target{Side: SideUnknown}
	if w.Side != nil {
		t.Side = Side(*w.Side)
		if !t.Side.Valid() {
			return Target{}, fmt.Errorf("invalid side code %d", *w.Side)
		}
	}
	if w.Distance != nil {
		t.Distance = *w.Distance
	}
	if w.Angle != nil {
		t.Angle = *w.Angle
	}
	if w.IsHot != nil {
		t.IsHot = *w.IsHot
	}
	if w.Confidence != nil {
		t.Confidence = *w.Confidence
	}
	return t, nil
}

// MarshalLine encodes a batch as one newline-terminated JSON array. An
// empty batch is encoded as the sentinel.
func MarshalLine(batch []Target) ([]byte, error) {
	if len(batch) == 0 {
		batch = []Target{NoTargets()}
	}
	out := make([]wireTarget, len(batch))
	for i, t := range batch {
		out[i] = toWire(t)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode targets: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseLine decodes one wire line into targets. Elements that are not
// objects or carry an invalid side are skipped with a warning; a line that
// is not a JSON array is an error. The result is never a mix of sentinel
// and real targets.
func ParseLine(line []byte) ([]Target, error) {
	line = bytes.TrimSpace(line)
	var raw []json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if raw == nil {
		return nil, ErrNotArray
	}

	targets := make([]Target, 0, len(raw))
	for i, elem := range raw {
		if len(elem) == 0 || elem[0] != '{' {
			monitoring.Logf("skipping wire element %d: not an object", i)
			continue
		}
		var w wireTarget
		if err := json.Unmarshal(elem, &w); err != nil {
			monitoring.Logf("skipping wire element %d: %v", i, err)
			continue
		}
		t, err := fromWire(w)
		if err != nil {
			monitoring.Logf("skipping wire element %d: %v", i, err)
			continue
		}
		targets = append(targets, t)
	}
	return collapseSentinels(targets), nil
}

// collapseSentinels keeps a batch either all real targets or a single
// sentinel. Sentinel elements beside real targets are dropped.
func collapseSentinels(targets []Target) []Target {
	kept := targets[:0:0]
	sentinels := 0
	for _, t := range targets {
		if t.NoTargets {
			sentinels++
			continue
		}
		kept = append(kept, t)
	}
	switch {
	case sentinels == 0:
		return targets
	case len(kept) > 0:
		monitoring.Logf("dropping %d no-targets element(s) mixed with %d target(s)", sentinels, len(kept))
		return kept
	default:
		return []Target{NoTargets()}
	}
}

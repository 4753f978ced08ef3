// Package parameters reads sectioned robot tuning values from a TOML file.
//
//	[vision]
//	camera_view_angle = 49
//	rectangularity_threshold = 40.0
//
//	[network]
//	robot_addr = "10.0.94.2:1180"
package parameters

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Parameters is a read-only section -> key -> value store. Keys are
// case-insensitive. The zero value is an empty store.
type Parameters struct {
	path     string
	sections map[string]map[string]any
}

// Empty returns a store with no values; every getter returns its default.
func Empty() *Parameters {
	return &Parameters{sections: map[string]map[string]any{}}
}

// Load parses a parameters file.
func Load(path string) (*Parameters, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load parameters %s: %w", path, err)
	}
	p, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("load parameters %s: %w", path, err)
	}
	p.path = path
	return p, nil
}

// Parse parses parameters from TOML text.
func Parse(data string) (*Parameters, error) {
	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]any) (*Parameters, error) {
	p := Empty()
	for name, v := range raw {
		table, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("top-level key %q is not a [section]", name)
		}
		section := make(map[string]any, len(table))
		for k, val := range table {
			section[strings.ToLower(k)] = val
		}
		p.sections[strings.ToLower(name)] = section
	}
	return p, nil
}

// Path returns the file the parameters were loaded from, if any.
func (p *Parameters) Path() string {
	return p.path
}

// Sections lists the section names in sorted order.
func (p *Parameters) Sections() []string {
	names := make([]string, 0, len(p.sections))
	for name := range p.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the raw value of section.key.
func (p *Parameters) Get(section, key string) (any, bool) {
	if p == nil || section == "" || key == "" {
		return nil, false
	}
	s, ok := p.sections[strings.ToLower(section)]
	if !ok {
		return nil, false
	}
	v, ok := s[strings.ToLower(key)]
	return v, ok
}

// Float returns section.key as a float64. Integers and numeric strings
// convert; anything else yields def.
func (p *Parameters) Float(section, key string, def float64) float64 {
	v, ok := p.Get(section, key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return def
}

// Int returns section.key as an int. Floats are truncated.
func (p *Parameters) Int(section, key string, def int) int {
	v, ok := p.Get(section, key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// String returns section.key as a string. Non-string values are formatted.
func (p *Parameters) String(section, key string, def string) string {
	v, ok := p.Get(section, key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns section.key as a bool. Strings accepted by
// strconv.ParseBool convert.
func (p *Parameters) Bool(section, key string, def bool) bool {
	v, ok := p.Get(section, key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	}
	return def
}

// Duration returns section.key as a duration. Strings use
// time.ParseDuration; bare numbers are seconds.
func (p *Parameters) Duration(section, key string, def time.Duration) time.Duration {
	v, ok := p.Get(section, key)
	if !ok {
		return def
	}
	switch d := v.(type) {
	case string:
		if parsed, err := time.ParseDuration(strings.TrimSpace(d)); err == nil {
			return parsed
		}
	case int64:
		return time.Duration(d) * time.Second
	case float64:
		return time.Duration(d * float64(time.Second))
	}
	return def
}

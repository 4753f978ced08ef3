// Package autoscript reads autonomous-mode scripts and steps through them
// one control tick at a time.
//
// A script is CSV: the first column names a command, the rest are its
// parameters. Numeric parameters become float64, everything else stays a
// string.
//
//	wait_time,1.5
//	aim_at_target,right
//	end
package autoscript

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Ext is the file extension of script files.
const Ext = ".as"

// Reserved command names that stop a script.
const (
	CommandEnd     = "end"
	CommandInvalid = "invalid"
)

// Command is one script line.
type Command struct {
	Name   string
	Params []any
}

func (c Command) String() string {
	if len(c.Params) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = fmt.Sprint(p)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Parse reads all commands from r. Rows with an empty command column are
// skipped.
func Parse(r io.Reader) ([]Command, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var commands []Command
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		cmd := Command{Name: strings.TrimSpace(row[0])}
		for _, col := range row[1:] {
			cmd.Params = append(cmd.Params, parseParam(col))
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func parseParam(s string) any {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}

// ParseFile reads a script file.
func ParseFile(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	commands, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return commands, nil
}

// ListScripts returns the script files in dir, sorted by name.
func ListScripts(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Float returns params[i] as a number, or def when missing or not numeric.
func Float(params []any, i int, def float64) float64 {
	if i < 0 || i >= len(params) {
		return def
	}
	if f, ok := params[i].(float64); ok {
		return f
	}
	return def
}

// String returns params[i] as a string, or def when missing or empty.
// Numbers are formatted.
func String(params []any, i int, def string) string {
	if i < 0 || i >= len(params) {
		return def
	}
	switch v := params[i].(type) {
	case string:
		if v == "" {
			return def
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return def
}

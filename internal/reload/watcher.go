// Package reload watches a file for modification so long-running
// processes can pick up edited parameters without a restart.
package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"frc-targeting/internal/timeutil"
)

// DefaultInterval is how often the watched file is checked.
const DefaultInterval = 2 * time.Second

// Watcher polls a file's modification time.
type Watcher struct {
	path     string
	interval time.Duration
	clock    timeutil.Clock

	mu       sync.Mutex
	baseline time.Time
}

// NewWatcher creates a watcher for path. Symlinks are resolved so an
// editor replacing the target file is still noticed.
func NewWatcher(path string, interval time.Duration, clock timeutil.Clock) (*Watcher, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Watcher{
		path:     path,
		interval: interval,
		clock:    clock,
		baseline: info.ModTime(),
	}, nil
}

// Path returns the resolved path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Changed reports whether the file was modified since the baseline. A
// file that cannot be stat'ed, for example mid-save, is not a change.
func (w *Watcher) Changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return info.ModTime().After(w.baseline)
}

// ResetBaseline accepts the file's current state as unchanged.
func (w *Watcher) ResetBaseline() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.baseline = info.ModTime()
	w.mu.Unlock()
}

// Run calls onChange each time the file is modified, until ctx is
// cancelled. The baseline is reset before onChange runs, so a change is
// reported once.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if w.Changed() {
				w.ResetBaseline()
				onChange()
			}
		}
	}
}

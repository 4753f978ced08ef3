package autoscript

import (
	"sort"
	"time"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/timeutil"
)

// Func runs one tick of a command and reports whether it has finished.
// An error abandons the command and the script moves on.
type Func func(params []any) (done bool, err error)

// TimedFunc is a Func that also receives the time since the command
// started.
type TimedFunc func(elapsed time.Duration, params []any) (done bool, err error)

// Registry maps command names to their implementations.
type Registry struct {
	funcs  map[string]TimedFunc
	starts map[string]func(params []any)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:  make(map[string]TimedFunc),
		starts: make(map[string]func(params []any)),
	}
}

// Register adds a command. A later registration replaces an earlier one.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = func(_ time.Duration, params []any) (bool, error) {
		return fn(params)
	}
}

// RegisterTimed adds a command that needs its own elapsed time.
func (r *Registry) RegisterTimed(name string, fn TimedFunc) {
	r.funcs[name] = fn
}

// OnStart sets a hook run each time the named command begins, before its
// first tick. Commands with internal state use it to reset.
func (r *Registry) OnStart(name string, fn func(params []any)) {
	r.starts[name] = fn
}

// Names lists the registered commands in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (TimedFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Runner executes a script against a registry, one Step per control tick.
type Runner struct {
	registry *Registry
	commands []Command
	clock    timeutil.Clock

	next     int
	current  *Command
	fn       TimedFunc
	started  time.Time
	finished bool
}

// NewRunner creates a runner positioned before the first command.
func NewRunner(registry *Registry, commands []Command, clock timeutil.Clock) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Runner{registry: registry, commands: commands, clock: clock}
}

// Current returns the command in progress, if any.
func (r *Runner) Current() (Command, bool) {
	if r.current == nil {
		return Command{}, false
	}
	return *r.current, true
}

// Finished reports whether the script has ended.
func (r *Runner) Finished() bool {
	return r.finished
}

// Step runs the current command once, advancing when it completes. It
// returns true once the script has ended: after the last command, or at
// an end or invalid command. Unknown commands are logged and skipped.
func (r *Runner) Step() bool {
	if r.finished {
		return true
	}
	if r.current == nil && !r.advance() {
		return true
	}

	done, err := r.fn(r.clock.Since(r.started), r.current.Params)
	if err != nil {
		monitoring.Logf("autoscript: %s failed: %v", r.current, err)
		done = true
	}
	if done {
		r.current = nil
		r.fn = nil
		if r.next >= len(r.commands) {
			r.finished = true
		}
	}
	return r.finished
}

// advance loads the next runnable command. It returns false when the
// script has ended.
func (r *Runner) advance() bool {
	for r.next < len(r.commands) {
		cmd := r.commands[r.next]
		r.next++

		if cmd.Name == CommandEnd || cmd.Name == CommandInvalid {
			break
		}
		fn, ok := r.registry.lookup(cmd.Name)
		if !ok {
			monitoring.Logf("autoscript: unknown command %q, skipping", cmd.Name)
			continue
		}

		if start, ok := r.registry.starts[cmd.Name]; ok {
			start(cmd.Params)
		}
		r.current = &cmd
		r.fn = fn
		r.started = r.clock.Now()
		return true
	}

	r.finished = true
	return false
}

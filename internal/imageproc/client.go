// Package imageproc runs the driver-station side of vision targeting: it
// keeps a connection to the robot and a live camera, and streams one
// target batch per processed frame.
package imageproc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
	"frc-targeting/internal/timeutil"
)

const (
	DefaultRobotAddr      = "10.0.94.2:1180"
	DefaultRetryDelay     = 5 * time.Second
	DefaultReconnectDelay = time.Second
)

// statsLogEvery controls how often streaming statistics are logged.
const statsLogEvery = 100

// Camera is checked for liveness before streaming starts.
type Camera interface {
	Probe(ctx context.Context) error
}

// Targeter produces the target batch for the next frame. It must never
// return an empty batch.
type Targeter interface {
	Targets(ctx context.Context) []target.Target
}

// Dialer opens the robot connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config configures a Client.
type Config struct {
	RobotAddr      string
	RetryDelay     time.Duration // after a failed connection attempt
	ReconnectDelay time.Duration // after a dropped stream
	Clock          timeutil.Clock
	Dialer         Dialer
}

// DefaultConfig returns the competition network defaults.
func DefaultConfig() Config {
	return Config{
		RobotAddr:      DefaultRobotAddr,
		RetryDelay:     DefaultRetryDelay,
		ReconnectDelay: DefaultReconnectDelay,
		Clock:          timeutil.RealClock{},
		Dialer:         &net.Dialer{},
	}
}

// Client streams targets to the robot, reconnecting on any I/O failure.
type Client struct {
	config   Config
	camera   Camera
	targeter Targeter
	stats    *cycleStats

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewClient creates a client. Zero-valued config fields take defaults.
func NewClient(config Config, camera Camera, targeter Targeter) *Client {
	def := DefaultConfig()
	if config.RobotAddr == "" {
		config.RobotAddr = def.RobotAddr
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = def.RetryDelay
	}
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = def.ReconnectDelay
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if config.Dialer == nil {
		config.Dialer = def.Dialer
	}
	return &Client{
		config:   config,
		camera:   camera,
		targeter: targeter,
		stats:    newCycleStats(),
	}
}

// OnStateChange registers a callback invoked on every state transition.
// Must be called before Run.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return c.stats.snapshot()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	fn := c.onChange
	c.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

// Run connects and streams until ctx is cancelled, which is the only way
// it returns. Every other failure is logged and retried.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(Disconnected)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.stats.addFailure()
			monitoring.Logf("imageproc: %v; retrying in %s", err, c.config.RetryDelay)
			if err := c.sleep(ctx, c.config.RetryDelay); err != nil {
				return err
			}
			continue
		}

		err = c.stream(ctx, conn)
		conn.Close()
		c.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.stats.addFailure()
		monitoring.Logf("imageproc: stream to %s lost: %v; reconnecting in %s",
			c.config.RobotAddr, err, c.config.ReconnectDelay)
		if err := c.sleep(ctx, c.config.ReconnectDelay); err != nil {
			return err
		}
	}
}

// connect opens the robot socket and checks the camera. Both must succeed;
// on any failure nothing is left open.
func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	c.setState(ConnectingRobot)
	conn, err := c.config.Dialer.DialContext(ctx, "tcp", c.config.RobotAddr)
	if err != nil {
		c.setState(Disconnected)
		return nil, fmt.Errorf("connect to robot %s: %w", c.config.RobotAddr, err)
	}

	c.setState(ConnectingCamera)
	if err := c.camera.Probe(ctx); err != nil {
		conn.Close()
		c.setState(Disconnected)
		return nil, fmt.Errorf("camera unavailable: %w", err)
	}

	c.setState(Connected)
	c.stats.addConnect()
	monitoring.Logf("imageproc: connected to robot %s", c.config.RobotAddr)
	return conn, nil
}

// stream writes one line per frame until a write fails or ctx ends.
func (c *Client) stream(ctx context.Context, conn net.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.setState(Streaming)
	for {
		start := c.config.Clock.Now()

		targets := c.targeter.Targets(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := target.MarshalLine(targets)
		if err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
		if _, err := conn.Write(line); err != nil {
			return fmt.Errorf("write: %w", err)
		}

		if n := c.stats.addFrame(c.config.Clock.Since(start)); n%statsLogEvery == 0 {
			s := c.stats.snapshot()
			monitoring.Logf("imageproc: %d frames sent, latency %s ± %s",
				s.Frames, s.MeanLatency, s.StdDevLatency)
		}
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.config.Clock.After(d):
		return nil
	}
}

package imageproc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
	"frc-targeting/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

var epoch = time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeCamera fails its first failFirst probes.
type fakeCamera struct {
	failFirst int32
	probes    atomic.Int32
}

func (c *fakeCamera) Probe(context.Context) error {
	if n := c.probes.Add(1); n <= c.failFirst {
		return errors.New("camera not answering")
	}
	return nil
}

type fixedTargeter struct {
	batch []target.Target
	calls atomic.Int32
}

func (f *fixedTargeter) Targets(context.Context) []target.Target {
	f.calls.Add(1)
	return f.batch
}

// funcDialer adapts a function to Dialer.
type funcDialer func(ctx context.Context, network, address string) (net.Conn, error)

func (f funcDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

func runClient(t *testing.T, ctx context.Context, c *Client) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Disconnected", Disconnected.String())
	assert.Equal(t, "ConnectingRobot", ConnectingRobot.String())
	assert.Equal(t, "ConnectingCamera", ConnectingCamera.String())
	assert.Equal(t, "Connected", Connected.String())
	assert.Equal(t, "Streaming", Streaming.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestClientStreamsLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	targeter := &fixedTargeter{batch: []target.Target{target.NoTargets()}}
	cfg := DefaultConfig()
	cfg.RobotAddr = ln.Addr().String()
	cfg.Clock = timeutil.NewMockClock(epoch)
	client := NewClient(cfg, &fakeCamera{}, targeter)

	var mu sync.Mutex
	var states []State
	client.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runClient(t, ctx, client)

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for i := 0; i < 3; i++ {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, `[{"no_targets":true}]`+"\n", line)
	}
	assert.Equal(t, Streaming, client.State())

	cancel()
	assert.ErrorIs(t, waitRun(t, done), context.Canceled)
	assert.Equal(t, Disconnected, client.State())

	stats := client.Stats()
	assert.GreaterOrEqual(t, stats.Frames, uint64(3))
	assert.Equal(t, uint64(1), stats.Connects)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 4)
	assert.Equal(t, []State{ConnectingRobot, ConnectingCamera, Connected, Streaming}, states[:4])
}

func TestClientRetriesUntilCameraAnswers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	clock := timeutil.NewMockClock(epoch)
	camera := &fakeCamera{failFirst: 2}
	cfg := DefaultConfig()
	cfg.RobotAddr = ln.Addr().String()
	cfg.Clock = clock
	client := NewClient(cfg, camera, &fixedTargeter{batch: []target.Target{{Side: target.SideLeft}}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runClient(t, ctx, client)

	// Robot connections opened during failed camera probes are closed again.
	for i := 0; i < 2; i++ {
		conn, err := ln.Accept()
		require.NoError(t, err)
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, err = conn.Read(make([]byte, 1))
		assert.Error(t, err)
		conn.Close()
	}

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"side":0`)

	cancel()
	assert.ErrorIs(t, waitRun(t, done), context.Canceled)

	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay}, clock.Waits())
	assert.Equal(t, int32(3), camera.probes.Load())
	assert.Equal(t, uint64(2), client.Stats().Failures)
}

func TestClientRetriesFailedDial(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dials atomic.Int32
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Dialer = funcDialer(func(context.Context, string, string) (net.Conn, error) {
		if dials.Add(1) == 3 {
			cancel()
		}
		return nil, errors.New("connection refused")
	})
	camera := &fakeCamera{}
	client := NewClient(cfg, camera, &fixedTargeter{})

	err := waitRun(t, runClient(t, ctx, client))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), dials.Load())
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay}, clock.Waits())
	assert.Zero(t, camera.probes.Load(), "camera is not probed without a robot connection")
}

func TestClientReconnectsAfterWriteFailure(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dials atomic.Int32
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Dialer = funcDialer(func(context.Context, string, string) (net.Conn, error) {
		if dials.Add(1) == 3 {
			cancel()
			return nil, context.Canceled
		}
		local, remote := net.Pipe()
		remote.Close()
		return local, nil
	})
	client := NewClient(cfg, &fakeCamera{}, &fixedTargeter{batch: []target.Target{target.NoTargets()}})

	err := waitRun(t, runClient(t, ctx, client))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{DefaultReconnectDelay, DefaultReconnectDelay}, clock.Waits())

	stats := client.Stats()
	assert.Equal(t, uint64(2), stats.Connects)
	assert.Zero(t, stats.Frames)
}

func TestClientCancelDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Hour
	cfg.Dialer = funcDialer(func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("unreachable")
	})
	client := NewClient(cfg, &fakeCamera{}, &fixedTargeter{})

	done := runClient(t, ctx, client)
	require.Eventually(t, func() bool { return client.Stats().Failures == 1 }, 5*time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, waitRun(t, done), context.Canceled)
}

func TestCycleStats(t *testing.T) {
	s := newCycleStats()
	assert.Equal(t, Stats{}, s.snapshot())

	s.addFrame(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, s.snapshot().MeanLatency)

	s.addFrame(20 * time.Millisecond)
	s.addFrame(30 * time.Millisecond)
	snap := s.snapshot()
	assert.Equal(t, uint64(3), snap.Frames)
	assert.InDelta(t, float64(20*time.Millisecond), float64(snap.MeanLatency), float64(time.Microsecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(snap.StdDevLatency), float64(time.Microsecond))

	for i := 0; i < latencyWindow; i++ {
		s.addFrame(5 * time.Millisecond)
	}
	snap = s.snapshot()
	assert.Equal(t, uint64(3+latencyWindow), snap.Frames)
	assert.InDelta(t, float64(5*time.Millisecond), float64(snap.MeanLatency), float64(time.Microsecond))
	assert.InDelta(t, 0, float64(snap.StdDevLatency), float64(time.Microsecond))
}

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
	"frc-targeting/internal/timeutil"
)

// DefaultReadInterval is the pause after each message on a connection.
const DefaultReadInterval = 100 * time.Millisecond

// DefaultMaxLineSize bounds a single wire line, newline included.
const DefaultMaxLineSize = 64 * 1024

// ErrLineTooLong is counted as a malformed message when a peer sends more
// than MaxLineSize bytes without a newline.
var ErrLineTooLong = errors.New("wire line exceeds maximum size")

// Recorder persists received batches. Recording errors are logged and
// never interrupt ingestion.
type Recorder interface {
	RecordBatch(ctx context.Context, connID string, at time.Time, batch []target.Target) error
}

// Config configures a Server.
type Config struct {
	Addr         string        // listen address, e.g. ":1180"
	ReadInterval time.Duration // pause after each message
	MaxLineSize  int           // longer lines are discarded as malformed
	Clock        timeutil.Clock
	Recorder     Recorder // optional
}

// DefaultConfig returns the robot-side defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":1180",
		ReadInterval: DefaultReadInterval,
		MaxLineSize:  DefaultMaxLineSize,
		Clock:        timeutil.RealClock{},
	}
}

// ConnInfo describes a live client connection.
type ConnInfo struct {
	ID        string    `json:"id"`
	Remote    string    `json:"remote"`
	Connected time.Time `json:"connected"`
	Messages  uint64    `json:"messages"`
	Malformed uint64    `json:"malformed"`
}

// Server accepts vision clients and forwards every parsed batch into a
// Slot, overwriting whatever the control loop has not consumed yet.
type Server struct {
	config Config
	slot   *Slot[[]target.Target]

	mu        sync.Mutex
	conns     map[string]*trackedConn
	latest    []target.Target
	latestAt  time.Time
	malformed uint64
	closed    bool
	wg        sync.WaitGroup
}

type trackedConn struct {
	conn net.Conn
	info ConnInfo
}

// NewServer creates a server feeding slot.
func NewServer(config Config, slot *Slot[[]target.Target]) *Server {
	if config.Clock == nil {
		config.Clock = timeutil.RealClock{}
	}
	if config.ReadInterval < 0 {
		config.ReadInterval = 0
	}
	if config.MaxLineSize <= 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}
	return &Server{
		config: config,
		slot:   slot,
		conns:  make(map[string]*trackedConn),
	}
}

// Slot returns the queue the server writes to.
func (s *Server) Slot() *Slot[[]target.Target] {
	return s.slot
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// It closes ln and every open connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	monitoring.Logf("ingest: listening on %s", ln.Addr())

	defer s.wg.Wait()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		tc := s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(tc)
			s.handle(ctx, tc)
		}()
	}
}

// handle reads newline-delimited batches until the peer disconnects.
func (s *Server) handle(ctx context.Context, tc *trackedConn) {
	id := tc.info.ID
	monitoring.Logf("ingest: connection %s from %s", id, tc.info.Remote)

	reader := bufio.NewReaderSize(tc.conn, s.config.MaxLineSize)
	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = reader.ReadSlice('\n')
			}
			s.malformedLine(tc, ErrLineTooLong)
		} else if len(bytes.TrimSpace(line)) > 0 {
			s.handleLine(ctx, tc, line)
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				monitoring.Logf("ingest: connection %s closed by peer", id)
			case ctx.Err() != nil || errors.Is(err, net.ErrClosed):
			default:
				monitoring.Logf("ingest: connection %s read error: %v", id, err)
			}
			return
		}

		if s.config.ReadInterval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-s.config.Clock.After(s.config.ReadInterval):
			}
		}
	}
}

func (s *Server) handleLine(ctx context.Context, tc *trackedConn, line []byte) {
	batch, err := target.ParseLine(line)
	if err != nil {
		s.malformedLine(tc, err)
		return
	}

	now := s.config.Clock.Now()
	s.mu.Lock()
	tc.info.Messages++
	if len(batch) > 0 {
		s.latest = batch
		s.latestAt = now
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.slot.Put(batch)

	if s.config.Recorder != nil {
		if err := s.config.Recorder.RecordBatch(ctx, tc.info.ID, now, batch); err != nil {
			monitoring.Logf("ingest: record batch: %v", err)
		}
	}
}

func (s *Server) malformedLine(tc *trackedConn, err error) {
	s.mu.Lock()
	tc.info.Malformed++
	s.malformed++
	s.mu.Unlock()
	monitoring.Logf("ingest: connection %s: dropping malformed message: %v", tc.info.ID, err)
}

func (s *Server) track(conn net.Conn) *trackedConn {
	tc := &trackedConn{
		conn: conn,
		info: ConnInfo{
			ID:        uuid.New().String(),
			Remote:    conn.RemoteAddr().String(),
			Connected: s.config.Clock.Now(),
		},
	}
	s.mu.Lock()
	s.conns[tc.info.ID] = tc
	if s.closed {
		conn.Close()
	}
	s.mu.Unlock()
	return tc
}

func (s *Server) untrack(tc *trackedConn) {
	s.mu.Lock()
	delete(s.conns, tc.info.ID)
	s.mu.Unlock()
	tc.conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, tc := range s.conns {
		tc.conn.Close()
	}
}

// Connections returns a snapshot of the live connections.
func (s *Server) Connections() []ConnInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnInfo, 0, len(s.conns))
	for _, tc := range s.conns {
		out = append(out, tc.info)
	}
	return out
}

// Status is a point-in-time view of the server for diagnostics.
type Status struct {
	Latest      []target.Target `json:"latest"`
	LatestAt    time.Time       `json:"latest_at"`
	Malformed   uint64          `json:"malformed"`
	Slot        SlotStats       `json:"slot"`
	Connections []ConnInfo      `json:"connections"`
}

// Status returns the current diagnostics snapshot.
func (s *Server) Status() Status {
	conns := s.Connections()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Latest:      s.latest,
		LatestAt:    s.latestAt,
		Malformed:   s.malformed,
		Slot:        s.slot.Stats(),
		Connections: conns,
	}
}

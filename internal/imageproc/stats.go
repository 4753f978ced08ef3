package imageproc

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// latencyWindow is the number of recent cycles kept for latency stats.
const latencyWindow = 100

// Stats summarizes client activity.
type Stats struct {
	Frames        uint64        // batches written to the robot
	Connects      uint64        // successful robot+camera connections
	Failures      uint64        // failed connection attempts and dropped streams
	MeanLatency   time.Duration // over the last latencyWindow cycles
	StdDevLatency time.Duration
}

// cycleStats tracks per-frame pipeline latency in a fixed ring.
type cycleStats struct {
	mu       sync.Mutex
	ring     []float64 // milliseconds
	next     int
	frames   uint64
	connects uint64
	failures uint64
}

func newCycleStats() *cycleStats {
	return &cycleStats{ring: make([]float64, 0, latencyWindow)}
}

func (s *cycleStats) addFrame(d time.Duration) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := float64(d) / float64(time.Millisecond)
	if len(s.ring) < latencyWindow {
		s.ring = append(s.ring, ms)
	} else {
		s.ring[s.next] = ms
	}
	s.next = (s.next + 1) % latencyWindow
	s.frames++
	return s.frames
}

func (s *cycleStats) addConnect() {
	s.mu.Lock()
	s.connects++
	s.mu.Unlock()
}

func (s *cycleStats) addFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

func (s *cycleStats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{Frames: s.frames, Connects: s.connects, Failures: s.failures}
	switch len(s.ring) {
	case 0:
	case 1:
		out.MeanLatency = msToDuration(s.ring[0])
	default:
		mean, std := stat.MeanStdDev(s.ring, nil)
		out.MeanLatency = msToDuration(mean)
		out.StdDevLatency = msToDuration(std)
	}
	return out
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

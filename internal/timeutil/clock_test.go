package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClockAfter(t *testing.T) {
	start := time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	select {
	case got := <-c.After(5 * time.Second):
		assert.Equal(t, start.Add(5*time.Second), got)
	default:
		t.Fatal("After should be ready immediately")
	}

	<-c.After(time.Second)
	assert.Equal(t, []time.Duration{5 * time.Second, time.Second}, c.Waits())
	assert.Equal(t, 6*time.Second, c.Since(start))
}

func TestMockTicker(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(20 * time.Millisecond)

	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
	default:
		t.Fatal("ticker did not fire")
	}

	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	<-c.After(time.Millisecond)
	require.GreaterOrEqual(t, c.Since(start), time.Millisecond)

	tk := c.NewTicker(time.Millisecond)
	<-tk.C()
	tk.Stop()
}

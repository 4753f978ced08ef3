package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotEmpty(t *testing.T) {
	s := NewSlot[int]()
	v, ok := s.TryTake()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, 0, s.Len())
}

func TestSlotOverwrite(t *testing.T) {
	s := NewSlot[string]()

	assert.False(t, s.Put("A"))
	assert.True(t, s.Put("B"))
	assert.Equal(t, 1, s.Len())

	v, ok := s.TryTake()
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	_, ok = s.TryTake()
	assert.False(t, ok)

	assert.Equal(t, SlotStats{Puts: 2, Drops: 1, Takes: 1}, s.Stats())
}

func TestSlotConcurrentProducers(t *testing.T) {
	s := NewSlot[int]()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Put(p*1000 + i)
			}
		}(p)
	}

	taken := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if _, ok := s.TryTake(); ok {
				taken++
			}
		}
	}()

	wg.Wait()
	<-done

	stats := s.Stats()
	assert.Equal(t, uint64(800), stats.Puts)
	assert.Equal(t, uint64(taken), stats.Takes)
	assert.LessOrEqual(t, s.Len(), 1)
	// Every put was either taken, dropped or is still waiting.
	assert.Equal(t, stats.Puts, stats.Takes+stats.Drops+uint64(s.Len()))
}

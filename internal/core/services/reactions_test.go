package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReactionAggregator_FlushSumsAndResets(t *testing.T) {
	ticks := make(chan time.Time)
	emitted := make(chan int, 16)

	agg := NewReactionAggregatorWithTicker(ticks, func(count int) {
		emitted <- count
	})
	defer agg.Stop()

	for i := 0; i < 5; i++ {
		agg.Add(1)
	}
	agg.Add(3)

	ticks <- time.Time{}
	require.Equal(t, 8, <-emitted)

	// The counter must reset after each flush; a tick with no adds still
	// emits, with zero.
	ticks <- time.Time{}
	require.Equal(t, 0, <-emitted)

	agg.Add(2)
	ticks <- time.Time{}
	require.Equal(t, 2, <-emitted)
}

func TestReactionAggregator_StopIsIdempotent(t *testing.T) {
	ticks := make(chan time.Time)
	agg := NewReactionAggregatorWithTicker(ticks, func(count int) {})

	agg.Stop()
	agg.Stop()

	// After stop the loop is gone; a tick must not be consumed.
	select {
	case ticks <- time.Time{}:
		t.Fatal("tick consumed after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

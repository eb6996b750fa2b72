package services

import (
	"sync"
	"time"
)

// ReactionAggregator accumulates reactions and flushes the running sum on
// every tick, resetting the counter. The tick source is injectable so tests
// drive it without a wall clock.
type ReactionAggregator struct {
	mu    sync.Mutex
	count int

	ticks <-chan time.Time
	stop  func()
	done  chan struct{}
	once  sync.Once

	emit func(count int)
}

// NewReactionAggregator flushes on a wall-clock ticker with the given
// interval.
func NewReactionAggregator(interval time.Duration, emit func(count int)) *ReactionAggregator {
	ticker := time.NewTicker(interval)
	agg := newReactionAggregator(ticker.C, ticker.Stop, emit)
	return agg
}

// NewReactionAggregatorWithTicker flushes whenever ticks fires; used in
// tests.
func NewReactionAggregatorWithTicker(ticks <-chan time.Time, emit func(count int)) *ReactionAggregator {
	return newReactionAggregator(ticks, func() {}, emit)
}

func newReactionAggregator(ticks <-chan time.Time, stop func(), emit func(count int)) *ReactionAggregator {
	agg := &ReactionAggregator{
		ticks: ticks,
		stop:  stop,
		done:  make(chan struct{}),
		emit:  emit,
	}
	go agg.run()
	return agg
}

func (a *ReactionAggregator) run() {
	for {
		select {
		case <-a.ticks:
			a.flush()
		case <-a.done:
			return
		}
	}
}

func (a *ReactionAggregator) flush() {
	a.mu.Lock()
	count := a.count
	a.count = 0
	a.mu.Unlock()

	a.emit(count)
}

// Add increments the running sum by n.
func (a *ReactionAggregator) Add(n int) {
	a.mu.Lock()
	a.count += n
	a.mu.Unlock()
}

// Stop halts the flush loop. Safe to call more than once.
func (a *ReactionAggregator) Stop() {
	a.once.Do(func() {
		close(a.done)
		a.stop()
	})
}

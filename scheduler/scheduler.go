// Package scheduler runs the periodic update of one engine session.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler invokes a tick function on a fixed period until stopped.
type Scheduler struct {
	tick   func()
	quit   chan struct{}
	done   chan struct{}
	period time.Duration
	ticks  atomic.Uint64
	once   sync.Once
}

// Start launches a scheduler firing tick every period.
// period must be positive.
func Start(period time.Duration, tick func()) *Scheduler {
	s := &Scheduler{
		tick:   tick,
		period: period,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
		}

		// Stop may race with the ticker; quit wins.
		select {
		case <-s.quit:
			return
		default:
		}

		s.ticks.Add(1)
		s.tick()
	}
}

// Stop stops further ticks. It does not wait for a running tick, so it is
// safe to call from inside the tick function. Idempotent.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.quit) })
}

// Done is closed once the scheduler goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Ticks returns the number of ticks fired. The counter is incremented before
// the tick function runs.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Period returns the tick period.
func (s *Scheduler) Period() time.Duration {
	return s.period
}

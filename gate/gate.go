// Package gate provides a reusable broadcast rendezvous.
//
// Waiters take the channel of the current epoch with Wait. Notify closes that
// channel, which wakes every waiter at once, and opens a new epoch so a waiter
// arriving after the broadcast blocks until the next one. There is no
// wake-one mode.
package gate

import (
	"context"
	"sync"

	"github.com/wippyai/wasm-kcp/errors"
)

// Gate is safe for concurrent use. The zero value is not usable; use New.
type Gate struct {
	ch     chan struct{}
	gen    uint64
	mu     sync.Mutex
	closed bool
}

// New creates an open gate at generation 0.
func New() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Wait returns a channel closed by the next Notify or by Close.
func (g *Gate) Wait() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch
}

// Notify wakes all current waiters and starts a new epoch.
// Without waiters it only advances the generation.
func (g *Gate) Notify() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	close(g.ch)
	g.ch = make(chan struct{})
	g.gen++
}

// Close wakes all waiters permanently. Later Wait calls return a closed channel.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.ch)
}

// Closed reports whether Close has been called.
func (g *Gate) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Generation returns the number of Notify broadcasts so far.
func (g *Gate) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// Await blocks until the next Notify. It returns ErrClosed if the gate is or
// becomes closed, and ctx.Err() if ctx is done first.
func (g *Gate) Await(ctx context.Context) error {
	g.mu.Lock()
	ch, closed := g.ch, g.closed
	g.mu.Unlock()
	if closed {
		return errors.ErrClosed
	}

	select {
	case <-ch:
		if g.Closed() {
			return errors.ErrClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

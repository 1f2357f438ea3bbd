package session

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-kcp/engine"
	"github.com/wippyai/wasm-kcp/errors"
	"github.com/wippyai/wasm-kcp/gate"
	"github.com/wippyai/wasm-kcp/registry"
	"github.com/wippyai/wasm-kcp/scheduler"
)

// Session is one reliable ordered stream multiplexed onto the shared engine.
// All methods are safe for concurrent use. Once released, Input, Send and
// Flush are no-ops and Recv fails with ErrSessionReleased.
type Session struct {
	inst     *engine.Instance
	sched    *scheduler.Scheduler
	gate     *gate.Gate
	cfg      Config
	handle   uint32
	released atomic.Bool // written only inside inst.Exec
	teardown sync.Once
}

// New creates a session on the engine loaded into rt. cb receives every
// datagram the session emits and may call back into any session. A nil cfg
// selects the defaults.
func New(ctx context.Context, rt *engine.Runtime, cb registry.Callback, cfg *Config) (*Session, error) {
	if rt == nil {
		return nil, errors.NotInitialized(errors.PhaseSession, "engine")
	}
	inst, err := rt.Instance()
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if cfg != nil {
		c = cfg.Normalize()
	}

	s := &Session{inst: inst, gate: gate.New(), cfg: c}
	err = inst.Exec(ctx, func(calls *engine.Calls) error {
		h, err := calls.Create(c.Conv)
		if err != nil {
			return err
		}
		if err := configure(calls, h, c); err != nil {
			return multierr.Append(err, calls.Destroy(h))
		}
		if err := inst.Registry().Register(h, cb); err != nil {
			return multierr.Append(err, calls.Destroy(h))
		}
		s.handle = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sched = scheduler.Start(c.TickPeriod(), s.tick)

	Logger().Debug("session created",
		zap.Uint32("handle", s.handle),
		zap.Uint32("conv", c.Conv),
		zap.Int("interval", c.Interval))
	return s, nil
}

func configure(calls *engine.Calls, h uint32, c Config) error {
	st, err := calls.NoDelay(h, c.NoDelay, c.Interval, c.Resend, c.NoCongestion)
	if err != nil {
		return err
	}
	if st < 0 {
		return errors.EngineStatus(engine.ExportNoDelay, h, st)
	}

	if st, err = calls.WndSize(h, c.SendWindow, c.RecvWindow); err != nil {
		return err
	}
	if st < 0 {
		return errors.EngineStatus(engine.ExportWndSize, h, st)
	}

	if st, err = calls.SetMTU(h, c.MTU); err != nil {
		return err
	}
	if st < 0 {
		return errors.EngineStatus(engine.ExportSetMTU, h, st)
	}
	return nil
}

// tick advances the engine clock and wakes pending receivers.
func (s *Session) tick() {
	err := s.inst.Exec(context.Background(), func(c *engine.Calls) error {
		if s.released.Load() {
			return nil
		}
		return c.Update(s.handle, s.inst.Now())
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrClosed) {
			s.shutdown()
			return
		}
		Logger().Warn("session update failed", zap.Uint32("handle", s.handle), zap.Error(err))
	}
	s.gate.Notify()
}

// live runs fn under the engine lock unless the session is released.
func (s *Session) live(ctx context.Context, fn func(c *engine.Calls) error) error {
	return s.inst.Exec(ctx, func(c *engine.Calls) error {
		if s.released.Load() {
			return nil
		}
		return fn(c)
	})
}

// Input feeds one datagram received from the peer.
func (s *Session) Input(data []byte) error {
	return s.live(context.Background(), func(c *engine.Calls) error {
		return c.Input(s.handle, data)
	})
}

// Send queues data for reliable delivery. A negative engine status is
// returned as an engine_status error.
func (s *Session) Send(data []byte) error {
	return s.live(context.Background(), func(c *engine.Calls) error {
		st, err := c.Send(s.handle, data)
		if err != nil {
			return err
		}
		if st < 0 {
			return errors.EngineStatus(engine.ExportSend, s.handle, st)
		}
		return nil
	})
}

// Flush emits pending segments without waiting for the next tick.
func (s *Session) Flush() error {
	return s.live(context.Background(), func(c *engine.Calls) error {
		return c.Flush(s.handle)
	})
}

// Recv blocks until a whole message of at most maxSize bytes is available and
// returns it. A non-positive maxSize selects DefaultRecvSize. It returns
// ErrSessionReleased if the session is or becomes released, and ctx.Err() if
// ctx is done first.
func (s *Session) Recv(ctx context.Context, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultRecvSize
	}
	size := uint32(maxSize)

	var ptr uint32
	err := s.inst.Exec(ctx, func(c *engine.Calls) (err error) {
		if s.released.Load() {
			return errors.Released("recv")
		}
		ptr, err = c.Alloc(size)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer s.free(ptr)

	for {
		// Taken before polling so a tick between poll and wait is not lost.
		wait := s.gate.Wait()

		var (
			msg   []byte
			ready bool
		)
		err := s.inst.Exec(ctx, func(c *engine.Calls) error {
			if s.released.Load() {
				return errors.Released("recv")
			}
			n, err := c.Recv(s.handle, ptr, size)
			if err != nil || n < 0 {
				return err
			}
			ready = true
			msg, err = c.ReadOut(ptr, uint32(n))
			return err
		})
		if err != nil {
			return nil, err
		}
		if ready {
			return msg, nil
		}

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Session) free(ptr uint32) {
	err := s.inst.Exec(context.Background(), func(c *engine.Calls) error {
		return c.Free(ptr)
	})
	if err != nil {
		Logger().Debug("free receive buffer", zap.Uint32("handle", s.handle), zap.Error(err))
	}
}

// Release destroys the engine session, unregisters its callback and stops its
// scheduler. Pending Recv calls return ErrSessionReleased. Idempotent.
func (s *Session) Release() error {
	var first bool
	err := s.inst.Exec(context.Background(), func(c *engine.Calls) error {
		if s.released.Load() {
			return nil
		}
		s.released.Store(true)
		first = true
		s.inst.Registry().Unregister(s.handle)
		return c.Destroy(s.handle)
	})
	if stderrors.Is(err, errors.ErrClosed) {
		// The engine is gone along with the session.
		s.shutdown()
		return nil
	}
	if first {
		s.shutdown()
		Logger().Debug("session released", zap.Uint32("handle", s.handle))
	}
	return err
}

func (s *Session) shutdown() {
	s.teardown.Do(func() {
		s.sched.Stop()
		s.gate.Close()
	})
}

// Config returns the normalized configuration applied to the engine.
func (s *Session) Config() Config {
	return s.cfg
}

// Handle returns the engine session handle.
func (s *Session) Handle() uint32 {
	return s.handle
}

// Released reports whether Release has run.
func (s *Session) Released() bool {
	return s.released.Load()
}

// Ticks returns the number of scheduler ticks fired so far.
func (s *Session) Ticks() uint64 {
	return s.sched.Ticks()
}

package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-kcp/engine"
	"github.com/wippyai/wasm-kcp/session"
)

// pair is two sessions wired back to back: whatever one emits is fed to the
// other's Input.
type pair struct {
	rt   *engine.Runtime
	inst *engine.Instance
	log  *zap.Logger
	a, b atomic.Pointer[session.Session]
}

func openPair(ctx context.Context, wasm []byte, cfg *pairConfig, log *zap.Logger) (*pair, error) {
	rt, err := engine.NewRuntime(ctx, &engine.Config{CacheDir: cfg.CacheDir})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}

	inst, err := rt.Load(ctx, wasm)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("load engine: %w", err), rt.Close(ctx))
	}

	p := &pair{rt: rt, inst: inst, log: log}
	a, err := session.New(ctx, rt, p.forward("a", &p.b), &cfg.A)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("create session a: %w", err), rt.Close(ctx))
	}
	p.a.Store(a)

	b, err := session.New(ctx, rt, p.forward("b", &p.a), &cfg.B)
	if err != nil {
		return nil, multierr.Combine(fmt.Errorf("create session b: %w", err), a.Release(), rt.Close(ctx))
	}
	p.b.Store(b)
	return p, nil
}

// forward returns a callback delivering datagrams from one side to the peer.
// The peer is resolved per datagram since it may not exist yet.
func (p *pair) forward(from string, peer *atomic.Pointer[session.Session]) func([]byte) {
	return func(data []byte) {
		dst := peer.Load()
		if dst == nil {
			p.log.Debug("datagram before peer ready", zap.String("from", from), zap.Int("bytes", len(data)))
			return
		}
		if err := dst.Input(data); err != nil {
			p.log.Warn("deliver datagram", zap.String("from", from), zap.Error(err))
		}
	}
}

// side returns the session named by name and its peer.
func (p *pair) side(name string) (*session.Session, *session.Session) {
	if name == "b" {
		return p.b.Load(), p.a.Load()
	}
	return p.a.Load(), p.b.Load()
}

func (p *pair) close(ctx context.Context) error {
	return multierr.Combine(p.a.Load().Release(), p.b.Load().Release(), p.rt.Close(ctx))
}

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-kcp/bridge"
	"github.com/wippyai/wasm-kcp/errors"
	"github.com/wippyai/wasm-kcp/registry"
)

// Instance is the loaded engine module. The module is not reentrant, so every
// call into it goes through Exec, which serializes callers. Segments the
// engine emits during a call are copied out immediately and delivered to the
// registry after Exec releases the instance, so output callbacks may call back
// into any session.
type Instance struct {
	module   api.Module
	host     api.Module
	callCtx  context.Context
	bridge   *bridge.Bridge
	registry *registry.Registry
	exports  map[string]api.Function
	epoch    time.Time
	outbox   []Output
	calls    atomic.Uint64
	outputs  atomic.Uint64
	mu       sync.Mutex
	digest   [32]byte
	closed   bool
}

// Output is one segment the engine asked the host to transmit.
type Output struct {
	Data   []byte
	Handle uint32
}

// Stats reports engine activity counters.
type Stats struct {
	Calls   uint64 // export invocations, allocator included
	Outputs uint64 // segments emitted through env.output
	Dropped uint64 // segments with no registered callback
}

func (in *Instance) bind(mod, host api.Module) error {
	if mod.Memory() == nil {
		return errors.MissingExport(ExportMemory)
	}
	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return errors.MissingExport(name)
		}
		in.exports[name] = fn
	}
	in.module = mod
	in.host = host
	return nil
}

// Exec runs fn with exclusive access to the engine. Outputs produced while fn
// runs are dispatched after the lock is released, in production order.
func (in *Instance) Exec(ctx context.Context, fn func(c *Calls) error) error {
	pending, err := in.run(ctx, fn)
	in.deliver(pending)
	return err
}

func (in *Instance) run(ctx context.Context, fn func(c *Calls) error) ([]Output, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil, errors.Closed(errors.PhaseEngine, "engine instance")
	}

	in.callCtx = ctx
	defer func() { in.callCtx = nil }()

	err := fn(&Calls{in: in})

	pending := in.outbox
	in.outbox = nil
	return pending, err
}

func (in *Instance) deliver(pending []Output) {
	for _, o := range pending {
		if !in.registry.Dispatch(o.Handle, o.Data) {
			Logger().Debug("dropped engine output",
				zap.Uint32("handle", o.Handle),
				zap.Int("bytes", len(o.Data)))
		}
	}
}

// output implements env.output(handle, ptr, len) -> i32. It runs inside an
// export call, so the instance lock is already held. The return value is
// always 0; the engine does not act on it.
func (in *Instance) output(_ context.Context, _ api.Module, stack []uint64) {
	handle := api.DecodeU32(stack[0])
	ptr := api.DecodeU32(stack[1])
	n := api.DecodeI32(stack[2])
	stack[0] = api.EncodeI32(0)

	if n <= 0 {
		return
	}
	data, err := in.bridge.ReadOut(ptr, uint32(n))
	if err != nil {
		Logger().Warn("read engine output", zap.Uint32("handle", handle), zap.Error(err))
		return
	}
	in.outputs.Add(1)
	in.outbox = append(in.outbox, Output{Handle: handle, Data: data})
}

func (in *Instance) invoke(name string, handle uint32, params ...uint64) ([]uint64, error) {
	fn := in.exports[name]
	if fn == nil {
		return nil, errors.MissingExport(name)
	}
	ctx := in.callCtx
	if ctx == nil {
		ctx = context.Background()
	}
	in.calls.Add(1)
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Trap(name, handle, err)
	}
	return res, nil
}

// Registry returns the handle table output is delivered through.
func (in *Instance) Registry() *registry.Registry {
	return in.registry
}

// Digest returns the BLAKE3 digest of the loaded binary.
func (in *Instance) Digest() [32]byte {
	return in.digest
}

// Now returns the engine clock: milliseconds since the module was loaded,
// truncated to 32 bits as the engine expects.
func (in *Instance) Now() uint32 {
	return uint32(time.Since(in.epoch).Milliseconds())
}

// MemorySize returns the current size of the engine's linear memory in bytes.
func (in *Instance) MemorySize() uint32 {
	mem := in.memoryView()
	if mem == nil {
		return 0
	}
	return mem.Size()
}

// Stats returns a snapshot of the activity counters.
func (in *Instance) Stats() Stats {
	return Stats{
		Calls:   in.calls.Load(),
		Outputs: in.outputs.Load(),
		Dropped: in.registry.Dropped(),
	}
}

// Close closes the engine module. Later Exec calls fail with a closed error.
func (in *Instance) Close(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true

	var err error
	if in.module != nil {
		err = multierr.Append(err, in.module.Close(ctx))
	}
	if in.host != nil {
		err = multierr.Append(err, in.host.Close(ctx))
	}
	return err
}

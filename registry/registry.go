// Package registry maps engine session handles to the host callbacks that
// receive the datagrams those sessions emit.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/wasm-kcp/errors"
)

// Callback receives one outbound datagram. The slice is owned by the callee.
type Callback func(data []byte)

// Registry is a handle table shared by all sessions of one engine instance.
// Callbacks run without the table lock held, so a callback may feed another
// session or release sessions.
type Registry struct {
	entries map[uint32]*entry
	dropped atomic.Uint64
	mu      sync.RWMutex
}

type entry struct {
	cb   Callback
	live atomic.Bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[uint32]*entry)}
}

// Register binds cb to handle. Handles are assigned by the engine and must be
// unique and non-zero.
func (r *Registry) Register(handle uint32, cb Callback) error {
	if handle == 0 {
		return errors.InvalidInput(errors.PhaseSession, "register null handle")
	}

	e := &entry{cb: cb}
	e.live.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[handle]; exists {
		return errors.New(errors.PhaseSession, errors.KindInvalidInput).
			Handle(handle).
			Detail("handle already registered").
			Build()
	}
	r.entries[handle] = e
	return nil
}

// Lookup returns the callback bound to handle.
func (r *Registry) Lookup(handle uint32) (Callback, bool) {
	r.mu.RLock()
	e, ok := r.entries[handle]
	r.mu.RUnlock()
	if !ok || !e.live.Load() {
		return nil, false
	}
	return e.cb, true
}

// Unregister removes handle. Once it returns no new delivery for handle starts.
func (r *Registry) Unregister(handle uint32) bool {
	r.mu.Lock()
	e, ok := r.entries[handle]
	if ok {
		delete(r.entries, handle)
		e.live.Store(false)
	}
	r.mu.Unlock()
	return ok
}

// Dispatch delivers data to the callback bound to handle. Events for unknown
// handles, or handles with a nil callback, are dropped and counted.
func (r *Registry) Dispatch(handle uint32, data []byte) bool {
	cb, ok := r.Lookup(handle)
	if !ok || cb == nil {
		r.dropped.Add(1)
		return false
	}
	cb(data)
	return true
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Dropped returns the number of events dropped by Dispatch.
func (r *Registry) Dropped() uint64 {
	return r.dropped.Load()
}

package bridge

import (
	wasmkcp "github.com/wippyai/wasm-kcp"
	"github.com/wippyai/wasm-kcp/errors"
)

// Bridge moves bytes between host memory and module linear memory.
// It is not safe for concurrent use; callers serialize access together with
// the engine calls that consume the pointers.
type Bridge struct {
	memory func() wasmkcp.Memory
	alloc  wasmkcp.Allocator
}

// New creates a bridge. memory is invoked on every copy.
func New(memory func() wasmkcp.Memory, alloc wasmkcp.Allocator) *Bridge {
	return &Bridge{memory: memory, alloc: alloc}
}

// Alloc allocates size bytes in module memory.
func (b *Bridge) Alloc(size uint32) (uint32, error) {
	if b.alloc == nil {
		return 0, errors.NotInitialized(errors.PhaseBridge, "allocator")
	}
	ptr, err := b.alloc.Alloc(size)
	if err != nil {
		return 0, errors.AllocationFailed(size, err)
	}
	if ptr == 0 {
		return 0, errors.AllocationFailed(size, nil)
	}
	return ptr, nil
}

// Free releases a pointer returned by Alloc or WriteIn. Null is ignored.
func (b *Bridge) Free(ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	if b.alloc == nil {
		return errors.NotInitialized(errors.PhaseBridge, "allocator")
	}
	return b.alloc.Free(ptr)
}

// WriteIn allocates a buffer of len(data) bytes and copies data into it.
// Empty data still gets a one byte allocation so the pointer is distinct.
func (b *Bridge) WriteIn(data []byte) (uint32, error) {
	size := uint32(len(data))
	if size == 0 {
		size = 1
	}

	ptr, err := b.Alloc(size)
	if err != nil {
		return 0, err
	}

	mem, err := b.view()
	if err != nil {
		_ = b.Free(ptr)
		return 0, err
	}
	if err := mem.Write(ptr, data); err != nil {
		_ = b.Free(ptr)
		return 0, errors.OutOfBounds(ptr, uint32(len(data)), mem.Size())
	}
	return ptr, nil
}

// ReadOut copies length bytes at ptr into a new host slice.
func (b *Bridge) ReadOut(ptr, length uint32) ([]byte, error) {
	mem, err := b.view()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	view, err := mem.Read(ptr, length)
	if err != nil {
		return nil, errors.OutOfBounds(ptr, length, mem.Size())
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

func (b *Bridge) view() (wasmkcp.Memory, error) {
	if b.memory == nil {
		return nil, errors.NotInitialized(errors.PhaseBridge, "memory view")
	}
	mem := b.memory()
	if mem == nil {
		return nil, errors.NotInitialized(errors.PhaseBridge, "memory view")
	}
	return mem, nil
}

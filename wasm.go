package wasmkcp

// Memory is a view of the engine module's linear memory.
// A view must be re-resolved for every copy: the module's allocator may grow
// memory between calls, which invalidates slices obtained earlier.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}

// Allocator allocates boundary buffers inside the engine module's heap.
// Alloc returns the null pointer when the module is out of memory.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(ptr uint32) error
}

// Package bridge copies byte buffers across the linear memory boundary of
// the engine module.
//
// WriteIn allocates a boundary buffer inside the module and copies host bytes
// into it; the caller owns the pointer and must Free it. ReadOut copies bytes
// out of module memory into a host-owned slice and never frees.
//
// The memory view is resolved on every call. The module's allocator can grow
// linear memory between calls, and a slice read from an older view would
// alias released host memory.
package bridge

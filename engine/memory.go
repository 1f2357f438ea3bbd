package engine

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
	wasmkcp "github.com/wippyai/wasm-kcp"
)

// wazeroMemory adapts api.Memory to wasmkcp.Memory.
// Values are created per bridge call and must not be retained.
type wazeroMemory struct {
	mem api.Memory
}

func (m *wazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *wazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *wazeroMemory) Size() uint32 {
	return m.mem.Size()
}

// memoryView resolves the module's current memory. It returns an untyped nil
// when the module is not instantiated or exports no memory.
func (in *Instance) memoryView() wasmkcp.Memory {
	if in.module == nil {
		return nil
	}
	mem := in.module.Memory()
	if mem == nil {
		return nil
	}
	return &wazeroMemory{mem: mem}
}

// moduleAllocator calls the engine's malloc and free exports.
// Only used inside Exec, where callCtx is set.
type moduleAllocator struct {
	in *Instance
}

func (a moduleAllocator) Alloc(size uint32) (uint32, error) {
	res, err := a.in.invoke(ExportMalloc, 0, api.EncodeU32(size))
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(res[0]), nil
}

func (a moduleAllocator) Free(ptr uint32) error {
	_, err := a.in.invoke(ExportFree, 0, api.EncodeU32(ptr))
	return err
}

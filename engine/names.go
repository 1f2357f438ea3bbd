package engine

// Import provided to the engine module for outbound segments:
// output(handle, ptr, len) -> status.
const (
	ImportModule = "env"
	ImportOutput = "output"
)

// Exports of the KCP wasm build consumed by the host.
const (
	ExportMemory  = "memory"
	ExportMalloc  = "malloc"
	ExportFree    = "free"
	ExportCreate  = "create"
	ExportRelease = "release"
	ExportUpdate  = "update"
	ExportInput   = "input"
	ExportSend    = "send"
	ExportRecv    = "recv"
	ExportFlush   = "flush"
	ExportNoDelay = "nodelay"
	ExportWndSize = "wndsize"
	ExportSetMTU  = "setmtu"
)

// requiredExports lists every function export Load binds.
var requiredExports = []string{
	ExportMalloc,
	ExportFree,
	ExportCreate,
	ExportRelease,
	ExportUpdate,
	ExportInput,
	ExportSend,
	ExportRecv,
	ExportFlush,
	ExportNoDelay,
	ExportWndSize,
	ExportSetMTU,
}

// moduleName is the instance name of the engine inside the wazero runtime.
const moduleName = "kcp"

package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-kcp/errors"
)

// initWASI instantiates WASI preview1 when the engine build imports it
// (wasi-libc builds pull in fd_write and proc_exit for abort paths).
func initWASI(ctx context.Context, r wazero.Runtime, compiled wazero.CompiledModule) error {
	needed := false
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, _ := def.Import(); mod == wasi_snapshot_preview1.ModuleName {
			needed = true
			break
		}
	}
	if !needed || r.Module(wasi_snapshot_preview1.ModuleName) != nil {
		return nil
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return errors.Instantiation(err)
	}
	return nil
}

package engine

import (
	"bytes"
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/zeebo/blake3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-kcp/bridge"
	"github.com/wippyai/wasm-kcp/errors"
	"github.com/wippyai/wasm-kcp/registry"
)

// Config holds configuration for runtime creation
type Config struct {
	// CacheDir enables wazero's on-disk compilation cache.
	// Empty disables caching.
	CacheDir string

	// MemoryLimitPages sets the maximum engine memory in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Runtime owns the wazero runtime and the single engine instance loaded into
// it. It is the explicit context passed to session constructors.
type Runtime struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	inst    *Instance
	mu      sync.Mutex
	closed  bool
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewRuntime creates a runtime with no engine loaded.
func NewRuntime(ctx context.Context, cfg *Config) (*Runtime, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	var cache wazero.CompilationCache
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CacheDir != "" {
			c, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
			if err != nil {
				return nil, errors.Load("open compilation cache", err)
			}
			cache = c
			runtimeCfg = runtimeCfg.WithCompilationCache(cache)
		}
	}

	return &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cache:   cache,
	}, nil
}

// Load compiles and instantiates the engine module. It instantiates at most
// once: later calls return the existing instance, whatever binary they pass.
// zstd-compressed binaries are accepted.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Instance, error) {
	bin, err := decodeBinary(wasm)
	if err != nil {
		return nil, err
	}
	digest := blake3.Sum256(bin)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.Closed(errors.PhaseLoad, "runtime")
	}
	if r.inst != nil {
		if r.inst.digest != digest {
			Logger().Warn("engine already loaded, ignoring different binary",
				zap.String("loaded", hex.EncodeToString(r.inst.digest[:8])),
				zap.String("ignored", hex.EncodeToString(digest[:8])))
		}
		return r.inst, nil
	}

	compiled, err := r.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile engine module", err)
	}

	if err := initWASI(ctx, r.runtime, compiled); err != nil {
		return nil, err
	}

	inst := &Instance{
		registry: registry.New(),
		exports:  make(map[string]api.Function, len(requiredExports)),
		digest:   digest,
		epoch:    time.Now(),
	}
	inst.bridge = bridge.New(inst.memoryView, moduleAllocator{in: inst})

	host, err := r.runtime.NewHostModuleBuilder(ImportModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(inst.output),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export(ImportOutput).
		Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	modConfig := wazero.NewModuleConfig().
		WithName(moduleName).
		WithStartFunctions("_initialize")
	mod, err := r.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		_ = host.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	if err := inst.bind(mod, host); err != nil {
		_ = mod.Close(ctx)
		_ = host.Close(ctx)
		return nil, err
	}

	Logger().Debug("engine loaded",
		zap.String("digest", hex.EncodeToString(digest[:8])),
		zap.Uint32("memory", mod.Memory().Size()))

	r.inst = inst
	return inst, nil
}

// Instance returns the loaded engine, or ErrEngineNotInitialized before Load.
func (r *Runtime) Instance() (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.Closed(errors.PhaseSession, "runtime")
	}
	if r.inst == nil {
		return nil, errors.NotInitialized(errors.PhaseSession, "engine")
	}
	return r.inst, nil
}

// Close releases the engine instance and the wazero runtime.
// Sessions must be released before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.inst != nil {
		err = multierr.Append(err, r.inst.Close(ctx))
	}
	err = multierr.Append(err, r.runtime.Close(ctx))
	if r.cache != nil {
		err = multierr.Append(err, r.cache.Close(ctx))
	}
	return err
}

func decodeBinary(wasm []byte) ([]byte, error) {
	if len(wasm) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty engine binary")
	}
	if !bytes.HasPrefix(wasm, zstdMagic) {
		return wasm, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Load("create zstd decoder", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(wasm, nil)
	if err != nil {
		return nil, errors.Load("decompress engine binary", err)
	}
	return out, nil
}

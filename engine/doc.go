// Package engine hosts the KCP engine module in wazero.
//
// A Runtime is created once and passed explicitly to the code that needs it.
// Runtime.Load compiles and instantiates the engine binary exactly once; later
// calls return the same Instance:
//
//	rt, err := engine.NewRuntime(ctx, &engine.Config{CacheDir: cacheDir})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	inst, err := rt.Load(ctx, kcpWasm)
//
// # Execution Context
//
// The engine module is a single-threaded C program. Instance.Exec serializes
// every call into it; the Calls value handed to the callback wraps the
// exports and copies buffers through the linear memory bridge:
//
//	err := inst.Exec(ctx, func(c *engine.Calls) error {
//	    status, err := c.Send(h, payload)
//	    if err != nil {
//	        return err
//	    }
//	    if status < 0 {
//	        return errors.EngineStatus("send", h, status)
//	    }
//	    return c.Flush(h)
//	})
//
// # Output Delivery
//
// The engine reports segments to transmit through the imported function
// env.output(handle, ptr, len). The host copies the bytes out during the call
// and delivers them to the handle's registry callback once Exec has released
// the instance. Segments for handles without a callback are dropped.
//
// # Binary Format
//
// Load accepts raw or zstd-compressed WebAssembly. Modules built against
// wasi-libc get WASI preview1 instantiated automatically.
package engine

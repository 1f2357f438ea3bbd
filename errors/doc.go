// Package errors provides structured error types for the wasm-kcp library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the engine export name, the session handle and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEngine, errors.KindEngineStatus).
//		Op("setmtu").
//		Handle(h).
//		Value(status).
//		Detail("mtu %d rejected", mtu).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.EngineStatus("send", h, -2)
//	err := errors.OutOfBounds(ptr, n, memSize)
//
// The sentinels ErrEngineNotInitialized and ErrSessionReleased match errors of
// their Kind from any phase:
//
//	if errors.Is(err, wkerrors.ErrSessionReleased) { ... }
package errors

package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // module compile and instantiation
	PhaseBridge  Phase = "bridge"  // linear memory copies
	PhaseEngine  Phase = "engine"  // calls into engine exports
	PhaseSession Phase = "session" // session lifecycle
	PhaseConfig  Phase = "config"  // configuration parsing
)

// Kind categorizes the error
type Kind string

const (
	KindNotInitialized Kind = "not_initialized"
	KindReleased       Kind = "released"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindAllocation     Kind = "allocation"
	KindEngineStatus   Kind = "engine_status"
	KindMissingExport  Kind = "missing_export"
	KindInstantiation  Kind = "instantiation"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindClosed         Kind = "closed"
	KindTrap           Kind = "trap"
)

// Sentinels match by Kind in any phase.
var (
	ErrEngineNotInitialized = &Error{Kind: KindNotInitialized}
	ErrSessionReleased      = &Error{Kind: KindReleased}
	ErrClosed               = &Error{Kind: KindClosed}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
	Handle uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.Handle != 0 {
		b.WriteString(" (handle ")
		b.WriteString(strconv.FormatUint(uint64(e.Handle), 10))
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the engine export or operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Handle sets the engine session handle
func (b *Builder) Handle(h uint32) *Builder {
	b.err.Handle = h
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInitialized creates a not-initialized error for a missing module or memory
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Released creates an error for an operation on a released session
func Released(op string) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindReleased,
		Op:     op,
		Detail: "session released",
	}
}

// OutOfBounds creates an error for a copy outside linear memory
func OutOfBounds(offset, length, size uint32) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindOutOfBounds,
		Value:  offset,
		Detail: fmt.Sprintf("offset=%d length=%d memory=%d", offset, length, size),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindAllocation,
		Value:  size,
		Detail: fmt.Sprintf("failed to allocate %d bytes in module memory", size),
		Cause:  cause,
	}
}

// EngineStatus creates an error for a negative status returned by an export
func EngineStatus(op string, handle uint32, status int32) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindEngineStatus,
		Op:     op,
		Handle: handle,
		Value:  status,
		Detail: fmt.Sprintf("status %d", status),
	}
}

// Trap wraps a failure raised while executing an export
func Trap(op string, handle uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindTrap,
		Op:     op,
		Handle: handle,
		Cause:  cause,
	}
}

// MissingExport creates an error for an export the engine module lacks
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Op:     name,
		Detail: fmt.Sprintf("engine module does not export %q", name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate engine module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Closed creates an error for use of a closed runtime or instance
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Wrap wraps an error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

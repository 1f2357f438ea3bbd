package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseEngine,
				Kind:   KindEngineStatus,
				Op:     "send",
				Handle: 262144,
				Detail: "status -2",
			},
			contains: []string{"[engine]", "engine_status", "in send", "handle 262144", "status -2"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseBridge,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[bridge]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBridge,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[bridge]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Trap("update", 1, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhaseEngine, Kind: KindEngineStatus, Op: "send"}

	if !err.Is(&Error{Phase: PhaseEngine, Kind: KindEngineStatus}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseSession, Kind: KindEngineStatus}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseEngine, Kind: KindTrap}) {
		t.Error("Is should not match different kind")
	}
	if !err.Is(&Error{Kind: KindEngineStatus}) {
		t.Error("phaseless target should match on kind")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not initialized in session", NotInitialized(PhaseSession, "engine"), ErrEngineNotInitialized},
		{"not initialized in bridge", NotInitialized(PhaseBridge, "memory"), ErrEngineNotInitialized},
		{"released", Released("recv"), ErrSessionReleased},
		{"closed", Closed(PhaseEngine, "instance"), ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}

	if errors.Is(Released("recv"), ErrEngineNotInitialized) {
		t.Error("released must not match not-initialized")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEngine, KindEngineStatus).
		Op("setmtu").
		Handle(7).
		Value(int32(-1)).
		Cause(cause).
		Detail("mtu %d rejected", 20).
		Build()

	if err.Phase != PhaseEngine {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEngine)
	}
	if err.Kind != KindEngineStatus {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEngineStatus)
	}
	if err.Op != "setmtu" || err.Handle != 7 {
		t.Errorf("Op=%q Handle=%d", err.Op, err.Handle)
	}
	if err.Value != int32(-1) {
		t.Errorf("Value = %v, want -1", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "mtu 20 rejected" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(100, 16, 64)
		if err.Kind != KindOutOfBounds || err.Phase != PhaseBridge {
			t.Errorf("got %v", err)
		}
		if !strings.Contains(err.Detail, "offset=100") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(1024, nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("EngineStatus", func(t *testing.T) {
		err := EngineStatus("send", 3, -2)
		if err.Value != int32(-2) || err.Handle != 3 || err.Op != "send" {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport("wndsize")
		if err.Phase != PhaseLoad || !strings.Contains(err.Error(), "wndsize") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("bad yaml")
		err := Wrap(PhaseConfig, KindInvalidData, cause, "parse config")
		if !errors.Is(err, cause) || err.Phase != PhaseConfig {
			t.Errorf("got %v", err)
		}
	})
}

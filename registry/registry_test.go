package registry

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/wippyai/wasm-kcp/errors"
)

func TestRegistry_Basic(t *testing.T) {
	r := New()

	var got []byte
	if err := r.Register(0x40000, func(data []byte) { got = data }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", r.Len())
	}

	if _, ok := r.Lookup(0x40000); !ok {
		t.Fatal("Lookup failed")
	}
	if _, ok := r.Lookup(0x80000); ok {
		t.Fatal("Lookup of unknown handle should fail")
	}

	if !r.Dispatch(0x40000, []byte{1, 2}) {
		t.Fatal("Dispatch failed")
	}
	if len(got) != 2 || got[0] != 1 {
		t.Fatalf("callback got %v", got)
	}

	if !r.Unregister(0x40000) {
		t.Fatal("Unregister failed")
	}
	if r.Unregister(0x40000) {
		t.Fatal("second Unregister should report false")
	}
	if r.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Unregister")
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := New()

	if err := r.Register(0, func([]byte) {}); !stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidInput}) {
		t.Errorf("Register(0) error = %v", err)
	}

	if err := r.Register(5, func([]byte) {}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(5, func([]byte) {}); err == nil {
		t.Error("duplicate Register should fail")
	}
}

func TestRegistry_DropAfterUnregister(t *testing.T) {
	r := New()
	calls := 0
	if err := r.Register(9, func([]byte) { calls++ }); err != nil {
		t.Fatal(err)
	}
	r.Unregister(9)

	if r.Dispatch(9, []byte{1}) {
		t.Error("Dispatch after Unregister should drop")
	}
	if calls != 0 {
		t.Errorf("callback invoked %d times after Unregister", calls)
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}
}

func TestRegistry_NilCallback(t *testing.T) {
	r := New()
	if err := r.Register(3, nil); err != nil {
		t.Fatal(err)
	}
	if r.Dispatch(3, []byte{1}) {
		t.Error("Dispatch to nil callback should drop")
	}
}

func TestRegistry_CallbackMayMutate(t *testing.T) {
	r := New()
	if err := r.Register(1, func([]byte) {
		r.Unregister(1)
		_ = r.Register(2, func([]byte) {})
	}); err != nil {
		t.Fatal(err)
	}

	r.Dispatch(1, nil)

	if _, ok := r.Lookup(1); ok {
		t.Error("handle 1 should be gone")
	}
	if _, ok := r.Lookup(2); !ok {
		t.Error("handle 2 should be registered")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(h uint32) {
			defer wg.Done()
			if err := r.Register(h, func([]byte) {}); err != nil {
				t.Errorf("Register(%d) failed: %v", h, err)
				return
			}
			for j := 0; j < 100; j++ {
				r.Dispatch(h, nil)
			}
			r.Unregister(h)
		}(uint32(i))
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after concurrent register/unregister", r.Len())
	}
	if r.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", r.Dropped())
	}
}

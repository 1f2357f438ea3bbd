package gate

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/wasm-kcp/errors"
)

func TestNotifyWithoutWaiters(t *testing.T) {
	g := New()
	g.Notify()
	g.Notify()
	if g.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", g.Generation())
	}
}

func TestNotifyWakesAll(t *testing.T) {
	g := New()
	const waiters = 8

	var ready, done sync.WaitGroup
	ready.Add(waiters)
	done.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer done.Done()
			ch := g.Wait()
			ready.Done()
			<-ch
		}()
	}
	ready.Wait()

	g.Notify()

	finished := make(chan struct{})
	go func() {
		done.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("not all waiters woke up")
	}
}

func TestNewEpochAfterNotify(t *testing.T) {
	g := New()
	before := g.Wait()
	g.Notify()

	select {
	case <-before:
	default:
		t.Fatal("old epoch channel should be closed")
	}

	after := g.Wait()
	select {
	case <-after:
		t.Fatal("late subscriber consumed a stale notification")
	default:
	}
}

func TestAwait(t *testing.T) {
	t.Run("notify", func(t *testing.T) {
		g := New()
		errc := make(chan error, 1)
		go func() { errc <- g.Await(context.Background()) }()

		// Keep notifying until the waiter has subscribed and returned.
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		deadline := time.After(time.Second)
		for {
			select {
			case err := <-errc:
				if err != nil {
					t.Fatalf("Await() = %v", err)
				}
				return
			case <-ticker.C:
				g.Notify()
			case <-deadline:
				t.Fatal("Await did not return")
			}
		}
	})

	t.Run("context", func(t *testing.T) {
		g := New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := g.Await(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Await() = %v, want deadline exceeded", err)
		}
	})

	t.Run("close", func(t *testing.T) {
		g := New()
		errc := make(chan error, 1)
		go func() { errc <- g.Await(context.Background()) }()
		time.Sleep(5 * time.Millisecond)
		g.Close()
		if err := <-errc; !stderrors.Is(err, errors.ErrClosed) {
			t.Errorf("Await() = %v, want closed", err)
		}
		if err := g.Await(context.Background()); !stderrors.Is(err, errors.ErrClosed) {
			t.Errorf("Await() after close = %v, want closed", err)
		}
	})
}

func TestClose(t *testing.T) {
	g := New()
	ch := g.Wait()
	g.Close()
	g.Close()
	g.Notify()

	select {
	case <-ch:
	default:
		t.Fatal("Close should wake waiters")
	}
	select {
	case <-g.Wait():
	default:
		t.Fatal("Wait after Close should return a closed channel")
	}
	if !g.Closed() {
		t.Error("Closed() = false")
	}
	if g.Generation() != 0 {
		t.Errorf("Notify after Close advanced generation to %d", g.Generation())
	}
}

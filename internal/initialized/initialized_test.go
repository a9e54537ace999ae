package initialized_test

import (
	"context"
	"testing"
	"time"

	"github.com/giantswarm/kubert/internal/initialized"
)

// waitDone runs Wait in a goroutine and returns a channel that receives its
// result.
func waitDone(ctx context.Context, init *initialized.Initialized) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- init.Wait(ctx)
	}()
	return done
}

func TestWaitWithNoHandlesReturnsImmediately(t *testing.T) {
	t.Parallel()
	init := initialized.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := init.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
}

func TestWaitBlocksUntilAllHandlesReleased(t *testing.T) {
	t.Parallel()
	init := initialized.New()
	h0 := init.AddHandle()
	h1 := init.AddHandle()

	done := waitDone(context.Background(), init)

	select {
	case err := <-done:
		t.Fatalf("Wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	h0.Release()
	select {
	case err := <-done:
		t.Fatalf("Wait returned with one handle outstanding: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	h1.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after all handles released")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	init := initialized.New()
	h := init.AddHandle()
	other := init.AddHandle()

	// Double release of h must not count for other.
	h.Release()
	h.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := init.Wait(ctx); err == nil {
		t.Fatal("Wait returned nil with a handle still outstanding")
	}
	other.Release()
}

func TestReleaseNilHandle(t *testing.T) {
	t.Parallel()
	var h *initialized.Handle
	h.Release() // must not panic
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	t.Parallel()
	init := initialized.New()
	h := init.AddHandle()
	defer h.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := waitDone(ctx, init)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Wait() = nil, want context error")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}

func TestAddHandleAfterWaitPanics(t *testing.T) {
	t.Parallel()
	init := initialized.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := init.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected AddHandle to panic after Wait")
		}
	}()
	init.AddHandle()
}

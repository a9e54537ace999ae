package requeue_test

import (
	"context"
	"testing"
	"time"

	"github.com/giantswarm/kubert/internal/requeue"
)

func TestNextReturnsKeyAfterDelay(t *testing.T) {
	t.Parallel()
	q := requeue.New[string](50 * time.Millisecond)
	q.Insert("a")

	start := time.Now()
	key, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if key != "a" {
		t.Fatalf("Next() = %q, want a", key)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("key came due after %v, want at least the 50ms delay", elapsed)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after Next, want 0", q.Len())
	}
}

func TestKeysComeDueInDeadlineOrder(t *testing.T) {
	t.Parallel()
	q := requeue.New[string](50 * time.Millisecond)
	q.Insert("first")
	time.Sleep(20 * time.Millisecond)
	q.Insert("second")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []string{"first", "second"} {
		key, err := q.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if key != want {
			t.Fatalf("Next() = %q, want %q", key, want)
		}
	}
}

func TestReinsertResetsDeadline(t *testing.T) {
	t.Parallel()
	q := requeue.New[string](80 * time.Millisecond)
	q.Insert("a")
	time.Sleep(50 * time.Millisecond)
	q.Insert("a") // reset: due 80ms from now, not 30ms

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := q.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("key came due after %v; the reinsert did not reset its deadline", elapsed)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 (no duplicate entry)", q.Len())
	}
}

func TestNextHonorsContext(t *testing.T) {
	t.Parallel()
	q := requeue.New[string](time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx); err == nil {
		t.Fatal("Next returned without a due key or a context error")
	}
}

func TestInsertWakesBlockedNext(t *testing.T) {
	t.Parallel()
	q := requeue.New[int](30 * time.Millisecond)

	done := make(chan int, 1)
	go func() {
		k, err := q.Next(context.Background())
		if err == nil {
			done <- k
		}
	}()

	time.Sleep(20 * time.Millisecond) // let Next block on the empty queue
	q.Insert(7)

	select {
	case k := <-done:
		if k != 7 {
			t.Fatalf("Next() = %d, want 7", k)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not observe the insert")
	}
}

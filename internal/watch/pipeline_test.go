package watch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	apiwatch "k8s.io/apimachinery/pkg/watch"

	"github.com/giantswarm/kubert/internal/drain"
	"github.com/giantswarm/kubert/internal/initialized"
	"github.com/giantswarm/kubert/internal/watch"
)

// pipelineConfig returns a Config with a throwaway drain clone and the
// given error delay.
func pipelineConfig(t *testing.T, delay time.Duration) watch.Config {
	t.Helper()
	_, w := drain.New()
	return watch.Config{
		ErrorDelay: delay,
		Drain:      w.Clone(),
	}
}

func recvEvent(t *testing.T, events <-chan watch.Event[*corev1.Pod]) watch.Event[*corev1.Pod] {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event stream closed unexpectedly")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	panic("unreachable")
}

func TestPipelineReleasesLatchOnFirstEvent(t *testing.T) {
	t.Parallel()

	init := initialized.New()
	handle := init.AddHandle()

	fake := apiwatch.NewFakeWithChanSize(8, false)
	lw := &scriptedLW{
		lists:    []listResult{{items: []*corev1.Pod{pod("ns", "a", "1")}, rv: "5"}},
		newWatch: watchSequence(fake),
	}

	cfg := pipelineConfig(t, time.Second)
	cfg.Handle = handle
	events := watch.Run[*corev1.Pod](context.Background(), lw, nil, cfg)

	// Not ready until the initial snapshot has been delivered.
	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	err := init.Wait(shortCtx)
	cancel()
	if err == nil {
		t.Fatal("latch released before the first event was delivered")
	}

	recvEvent(t, events)
	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := init.Wait(waitCtx); err != nil {
		t.Fatalf("latch not released after the first event: %v", err)
	}
}

func TestPipelineBackoffOnConsecutiveErrors(t *testing.T) {
	t.Parallel()

	const delay = 150 * time.Millisecond

	fake := apiwatch.NewFakeWithChanSize(8, false)
	boom := errors.New("boom")
	lw := &scriptedLW{
		lists: []listResult{
			{err: boom},
			{err: boom},
			{items: []*corev1.Pod{pod("ns", "x", "1")}, rv: "5"},
		},
		newWatch: watchSequence(fake),
	}

	start := time.Now()
	events := watch.Run[*corev1.Pod](context.Background(), lw, nil, pipelineConfig(t, delay))
	recvEvent(t, events)
	elapsed := time.Since(start)

	// First error retries immediately; the second, consecutive error must
	// wait out one full delay before the successful poll.
	if elapsed < delay {
		t.Fatalf("event arrived after %v, want at least %v of backoff", elapsed, delay)
	}
	if elapsed >= 3*delay {
		t.Fatalf("event arrived after %v; more than one backoff interval applied", elapsed)
	}
}

func TestPipelineNoDelayAfterSingleError(t *testing.T) {
	t.Parallel()

	const delay = 500 * time.Millisecond

	fake := apiwatch.NewFakeWithChanSize(8, false)
	lw := &scriptedLW{
		lists: []listResult{
			{err: errors.New("transient")},
			{items: nil, rv: "5"},
		},
		newWatch: watchSequence(fake),
	}

	start := time.Now()
	events := watch.Run[*corev1.Pod](context.Background(), lw, nil, pipelineConfig(t, delay))
	recvEvent(t, events)

	if elapsed := time.Since(start); elapsed >= delay {
		t.Fatalf("event arrived after %v; a lone error must retry immediately", elapsed)
	}
}

func TestPipelineTerminatesOnDrain(t *testing.T) {
	t.Parallel()

	fake := apiwatch.NewFakeWithChanSize(8, false)
	lw := &scriptedLW{
		lists:    []listResult{{items: nil, rv: "5"}},
		newWatch: watchSequence(fake),
	}

	sig, w := drain.New()
	cfg := watch.Config{ErrorDelay: time.Second, Drain: w.Clone()}
	events := watch.Run[*corev1.Pod](context.Background(), lw, nil, cfg)
	recvEvent(t, events)

	// The pipeline is now blocked waiting on the fake watch. Draining must
	// complete promptly: the pipeline releases its holder and closes the
	// stream.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sig.Drain(ctx); err != nil {
		t.Fatalf("Drain() = %v, want nil", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected the stream to close after drain")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after drain")
	}
}

func TestPipelineMirrorsIntoStore(t *testing.T) {
	t.Parallel()

	first := apiwatch.NewFakeWithChanSize(8, false)
	second := apiwatch.NewFakeWithChanSize(8, false)
	lw := &scriptedLW{
		lists: []listResult{
			{items: nil, rv: "1"},
			{items: []*corev1.Pod{pod("ns", "y", "10"), pod("ns", "z", "11")}, rv: "12"},
		},
		newWatch: watchSequence(first, second),
	}

	store := watch.NewStore[*corev1.Pod]()
	events := watch.Run[*corev1.Pod](context.Background(), lw, store, pipelineConfig(t, time.Millisecond))

	recvEvent(t, events) // Restarted []
	first.Add(pod("ns", "x", "2"))
	recvEvent(t, events)
	first.Add(pod("ns", "y", "3"))
	recvEvent(t, events)

	if store.Len() != 2 {
		t.Fatalf("store has %d items before restart, want 2", store.Len())
	}

	// Expire the watch: the relist snapshot {y, z} replaces the set; x
	// must be absent.
	first.Error(expiredStatus())
	if ev := recvEvent(t, events); ev.Type != watch.Restarted {
		t.Fatalf("event = %+v, want Restarted", ev)
	}

	if _, ok := store.Get(watch.Key{Namespace: "ns", Name: "x"}); ok {
		t.Fatal("x survived the restart")
	}
	for _, name := range []string{"y", "z"} {
		if _, ok := store.Get(watch.Key{Namespace: "ns", Name: name}); !ok {
			t.Fatalf("%s missing after the restart", name)
		}
	}
}

func TestPipelineClosesOnContextCancel(t *testing.T) {
	t.Parallel()

	fake := apiwatch.NewFakeWithChanSize(8, false)
	lw := &scriptedLW{
		lists:    []listResult{{items: nil, rv: "1"}},
		newWatch: watchSequence(fake),
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := watch.Run[*corev1.Pod](ctx, lw, nil, pipelineConfig(t, time.Second))
	recvEvent(t, events)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected the stream to close after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after cancellation")
	}
}

package kubert

import (
	"context"

	k8sruntime "k8s.io/apimachinery/pkg/runtime"

	"github.com/giantswarm/kubert/internal/watch"
)

// EventType discriminates the variants of Event.
type EventType = watch.EventType

// Watch event variants: Applied upserts a single resource, Deleted removes
// one, and Restarted carries the full snapshot after a list or re-list
// (all prior knowledge is superseded).
const (
	Applied   = watch.Applied
	Deleted   = watch.Deleted
	Restarted = watch.Restarted
)

// Event is one typed observation from a watch pipeline.
type Event[T any] = watch.Event[T]

// Store is a concurrently readable mirror of a watched collection, keyed
// by namespace and name. Only the owning watch pipeline writes to it.
type Store[T k8sruntime.Object] = watch.Store[T]

// StoreKey identifies a resource within a Store.
type StoreKey = watch.Key

// ListerWatcher is the contract between a watch pipeline and the cluster:
// List returns the current items with the collection's resourceVersion,
// and Watch opens a server-side stream from that version.
type ListerWatcher[T k8sruntime.Object] = watch.ListerWatcher[T]

// ListWatchFunc adapts two closures into a ListerWatcher, in the manner of
// client-go's cache.ListWatch.
type ListWatchFunc[T k8sruntime.Object] = watch.ListWatchFunc[T]

// Watch starts a resilient watch pipeline tied to rt: errors are logged
// and paced by the runtime's error delay, the runtime reports ready only
// after the stream's first event, and the stream terminates when shutdown
// drains. Events arrive in source order on a single-consumer channel,
// which is closed on termination.
func Watch[T k8sruntime.Object](ctx context.Context, rt *Runtime, lw ListerWatcher[T]) <-chan Event[T] {
	return watch.Run(ctx, lw, nil, rt.WatchConfig())
}

// WatchWithStore is Watch with a reflected store: every event is folded
// into the returned Store before it is delivered, so a consumer that has
// seen an event can rely on the store reflecting it. The caller must drain
// the event channel to keep the store current.
func WatchWithStore[T k8sruntime.Object](ctx context.Context, rt *Runtime, lw ListerWatcher[T]) (<-chan Event[T], *Store[T]) {
	store := watch.NewStore[T]()
	return watch.Run(ctx, lw, store, rt.WatchConfig()), store
}

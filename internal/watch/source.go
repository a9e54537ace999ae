package watch

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	apiwatch "k8s.io/apimachinery/pkg/watch"

	"github.com/giantswarm/kubert/internal/sentinel"
)

// ErrUnexpectedObject is returned (recoverably) when the server streams an
// object that cannot be converted to the pipeline's resource type.
const ErrUnexpectedObject = sentinel.Error("watch returned an unexpected object type")

// source is the raw watcher stage. It performs an initial list, establishes
// a watch from the returned resourceVersion, and re-lists when the server
// indicates the watch is stale. Every error it returns is recoverable; the
// caller decides how to pace the next poll.
type source[T runtime.Object] struct {
	lw ListerWatcher[T]

	// listed records whether the current resourceVersion came from a
	// successful list. Cleared whenever the server reports staleness so
	// the next poll re-lists instead of resuming the watch.
	listed bool

	rv string
	w  apiwatch.Interface
}

func newSource[T runtime.Object](lw ListerWatcher[T]) *source[T] {
	return &source[T]{lw: lw}
}

// Next blocks until the next event is available and returns it, or returns
// a recoverable error. When ctx is done it returns ctx.Err(); callers must
// check ctx before treating the error as recoverable.
func (s *source[T]) Next(ctx context.Context) (Event[T], error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event[T]{}, err
		}

		if !s.listed {
			items, rv, err := s.lw.List(ctx)
			if err != nil {
				return Event[T]{}, fmt.Errorf("list: %w", err)
			}
			s.rv = rv
			s.listed = true
			return Event[T]{Type: Restarted, Objects: items}, nil
		}

		if s.w == nil {
			w, err := s.lw.Watch(ctx, s.rv)
			if err != nil {
				// The version may be too old to resume from; start over
				// with a fresh list.
				s.listed = false
				return Event[T]{}, fmt.Errorf("watch: %w", err)
			}
			s.w = w
		}

		select {
		case <-ctx.Done():
			return Event[T]{}, ctx.Err()

		case ev, ok := <-s.w.ResultChan():
			if !ok {
				// The server closed the stream; re-establish the watch
				// from the last observed version.
				s.w = nil
				continue
			}
			out, err := s.translate(ev)
			if err != nil {
				return Event[T]{}, err
			}
			if out == nil {
				continue
			}
			return *out, nil
		}
	}
}

// translate converts a wire-level watch event. It returns (nil, nil) for
// events that only advance the resourceVersion.
func (s *source[T]) translate(ev apiwatch.Event) (*Event[T], error) {
	switch ev.Type {
	case apiwatch.Added, apiwatch.Modified, apiwatch.Deleted:
		obj, ok := ev.Object.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnexpectedObject, ev.Object)
		}
		if m, err := meta.Accessor(ev.Object); err == nil {
			s.rv = m.GetResourceVersion()
		}
		t := Applied
		if ev.Type == apiwatch.Deleted {
			t = Deleted
		}
		return &Event[T]{Type: t, Object: obj}, nil

	case apiwatch.Bookmark:
		if m, err := meta.Accessor(ev.Object); err == nil {
			s.rv = m.GetResourceVersion()
		}
		return nil, nil

	case apiwatch.Error:
		err := apierrors.FromObject(ev.Object)
		s.stopWatch()
		if apierrors.IsResourceExpired(err) || apierrors.IsGone(err) {
			// Stale watch: the next poll must re-list.
			s.listed = false
		}
		return nil, fmt.Errorf("watch stream: %w", err)

	default:
		return nil, fmt.Errorf("%w: event type %q", ErrUnexpectedObject, ev.Type)
	}
}

func (s *source[T]) stopWatch() {
	if s.w != nil {
		s.w.Stop()
		s.w = nil
	}
}

// Stop releases the underlying watch, if any.
func (s *source[T]) Stop() {
	s.stopWatch()
}

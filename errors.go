package kubert

import (
	"github.com/giantswarm/kubert/internal/lease"
	"github.com/giantswarm/kubert/internal/runtime"
	"github.com/giantswarm/kubert/internal/watch"
)

// Sentinel errors for error inspection with errors.Is.
//
// These use the sentinel.Error const pattern instead of errors.New vars:
// a string type implementing error can be declared const, which prevents
// reassignment while remaining compatible with errors.Is through Go's
// default == comparison on comparable types.
const (
	// ErrAborted is returned by Runtime.Run when a second shutdown signal
	// arrives before the drain completes. Callers should exit non-zero.
	ErrAborted = runtime.ErrAborted

	// ErrMissingResourceVersion is returned by lease operations when the
	// server hands back a Lease without a resourceVersion. The coordinator
	// cannot condition further mutations on it and treats the lease as
	// unusable.
	ErrMissingResourceVersion = lease.ErrMissingResourceVersion

	// ErrUnexpectedObject is logged (never surfaced to consumers) when a
	// watch stream yields an object of the wrong type; the pipeline treats
	// it as a recoverable error.
	ErrUnexpectedObject = watch.ErrUnexpectedObject
)

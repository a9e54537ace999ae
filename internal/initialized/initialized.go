package initialized

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// capacity is the semaphore weight held by an Initialized with no
// outstanding handles. Each handle takes one unit, so Wait's bulk acquire
// of the full weight completes exactly when every handle has been released.
// This avoids the racy decrement-and-check-zero pattern entirely.
const capacity = math.MaxInt64

// Initialized issues handles to components that need to be initialized and
// waits for all of them to be released to signal readiness.
//
// AddHandle must not be called once Wait has been called; handles issued
// after Wait begins would not be counted by an in-flight bulk acquire.
type Initialized struct {
	sem     *semaphore.Weighted
	waiting atomic.Bool
}

// Handle signals that a component has been initialized. Release is
// idempotent; releasing a nil handle is a no-op.
type Handle struct {
	sem  *semaphore.Weighted
	once sync.Once
}

// New returns an Initialized with no outstanding handles.
func New() *Initialized {
	return &Initialized{sem: semaphore.NewWeighted(capacity)}
}

// AddHandle issues a new Handle to be released when the owning component
// has observed its initial state. Panics if called after Wait.
func (i *Initialized) AddHandle() *Handle {
	if i.waiting.Load() {
		panic("initialized: AddHandle called after Wait")
	}
	if !i.sem.TryAcquire(1) {
		// capacity is MaxInt64; exhausting it would require that many
		// outstanding handles.
		panic("initialized: no semaphore capacity")
	}
	return &Handle{sem: i.sem}
}

// Wait blocks until every handle issued by AddHandle has been released, or
// ctx is canceled. If no handles were ever issued it returns immediately.
func (i *Initialized) Wait(ctx context.Context) error {
	i.waiting.Store(true)
	if err := i.sem.Acquire(ctx, capacity); err != nil {
		return err
	}
	return nil
}

// Release returns the handle's permit. Only the first call has any effect.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.sem.Release(1)
	})
}

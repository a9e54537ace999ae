package kubert

import (
	"time"

	"github.com/giantswarm/kubert/internal/requeue"
)

// Requeue schedules keys for re-processing after a fixed delay, tracking
// at most one pending deadline per key. Operators use it to retry
// reconciliation of individual objects without queueing duplicates.
type Requeue[K comparable] = requeue.Requeue[K]

// NewRequeue creates a Requeue that hands keys back delay after their most
// recent insertion.
//
// Panics if delay <= 0.
func NewRequeue[K comparable](delay time.Duration) *Requeue[K] {
	requirePositive("requeue delay", delay)
	return requeue.New[K](delay)
}

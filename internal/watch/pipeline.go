package watch

import (
	"context"
	"errors"
	"time"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/giantswarm/kubert/internal/drain"
	"github.com/giantswarm/kubert/internal/initialized"
	"github.com/giantswarm/kubert/internal/logging"
	"github.com/giantswarm/kubert/internal/metrics"
)

// Config carries the non-generic pipeline collaborators.
type Config struct {
	// ErrorDelay is the fixed backoff applied between consecutive failed
	// polls. A first failure after a success retries immediately.
	ErrorDelay time.Duration

	// Handle, when non-nil, is released after the first event has been
	// delivered to the consumer.
	Handle *initialized.Handle

	// Drain must be a registered clone; the pipeline releases it when its
	// stream terminates.
	Drain drain.Watch

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Run starts a pipeline over lw and returns its ordered, single-consumer
// event stream. When store is non-nil every event is folded into it before
// delivery. The channel is closed when the drain is signaled or ctx is
// canceled; errors from the cluster never surface to the consumer, they are
// logged and paced per Config.ErrorDelay.
func Run[T runtime.Object](ctx context.Context, lw ListerWatcher[T], store *Store[T], cfg Config) <-chan Event[T] {
	out := make(chan Event[T])
	go run(ctx, lw, store, cfg, out)
	return out
}

func run[T runtime.Object](ctx context.Context, lw ListerWatcher[T], store *Store[T], cfg Config, out chan<- Event[T]) {
	defer close(out)
	defer cfg.Drain.Release()
	// Shutdown before the first event still releases the token: readiness
	// has already been withdrawn by then and a held token would stall the
	// runtime's latch forever.
	defer cfg.Handle.Release()

	// Fold the drain signal into the context so a poll blocked on the
	// server unblocks as soon as shutdown begins.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-cfg.Drain.Signaled():
			cancel()
		case <-ctx.Done():
		}
	}()

	src := newSource(lw)
	defer src.Stop()

	log := logging.Logger()
	failed := false

	for {
		// Shutdown takes priority over starting another poll.
		select {
		case <-cfg.Drain.Signaled():
			return
		case <-ctx.Done():
			return
		default:
		}

		ev, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			cfg.Metrics.WatchError()
			log.Info("watch stream failed", "error", err)
			if failed {
				// Consecutive failure: back off before the next poll so a
				// persistently failing watch does not hot-loop the API
				// server. A lone failure retries immediately.
				if !sleep(ctx, cfg) {
					return
				}
			}
			failed = true
			continue
		}
		failed = false

		if store != nil {
			if err := store.Apply(ev); err != nil {
				log.Warn("store update failed", "error", err)
			}
		}

		select {
		case out <- ev:
			cfg.Metrics.WatchEvent(string(ev.Type))
			cfg.Handle.Release()
		case <-cfg.Drain.Signaled():
			return
		case <-ctx.Done():
			return
		}
	}
}

// sleep waits for the configured error delay. It returns false when the
// wait was interrupted by shutdown.
func sleep(ctx context.Context, cfg Config) bool {
	t := time.NewTimer(cfg.ErrorDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cfg.Drain.Signaled():
		return false
	case <-ctx.Done():
		return false
	}
}

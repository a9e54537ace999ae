package runtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/kubernetes"

	"github.com/giantswarm/kubert/internal/admin"
	"github.com/giantswarm/kubert/internal/drain"
	"github.com/giantswarm/kubert/internal/initialized"
	"github.com/giantswarm/kubert/internal/lease"
	"github.com/giantswarm/kubert/internal/logging"
	"github.com/giantswarm/kubert/internal/metrics"
	"github.com/giantswarm/kubert/internal/sentinel"
	"github.com/giantswarm/kubert/internal/watch"
)

// ErrAborted is returned by Run when a second shutdown signal arrives
// before the drain completes; the caller should exit non-zero.
const ErrAborted = sentinel.Error("shutdown aborted by a second signal")

// adminShutdownTimeout bounds how long Run waits for in-flight admin
// requests after the drain completes.
const adminShutdownTimeout = 5 * time.Second

// Runtime owns the cluster client, the initialization latch, the drain
// channel, and the admin endpoint. Create watches and leases through it,
// then call Run to serve until a shutdown signal.
type Runtime struct {
	cfg       Config
	client    kubernetes.Interface
	metrics   *metrics.Metrics
	readiness *admin.Readiness
	admin     *admin.Server

	init       *initialized.Initialized
	drainSig   *drain.Signal
	drainWatch drain.Watch
	signals    chan os.Signal

	running atomic.Bool
}

// Build applies defaults to the configuration, constructs the cluster client, binds
// the admin listener, and registers signal handlers. Nothing starts until
// Run; a Build error means the runtime never ran.
func Build(cfg Config) (*Runtime, error) {
	cfg.applyDefaults()

	client, err := buildClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build runtime: %w", err)
	}

	m := metrics.New()
	readiness := &admin.Readiness{}
	adminSrv, err := admin.Bind(cfg.AdminAddr, readiness, m.Registry())
	if err != nil {
		return nil, fmt.Errorf("build runtime: %w", err)
	}

	sig, dw := drain.New()
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	return &Runtime{
		cfg:        cfg,
		client:     client,
		metrics:    m,
		readiness:  readiness,
		admin:      adminSrv,
		init:       initialized.New(),
		drainSig:   sig,
		drainWatch: dw,
		signals:    signals,
	}, nil
}

// Client returns the shared cluster client.
func (rt *Runtime) Client() kubernetes.Interface {
	return rt.client
}

// Identity returns the process-wide leader-election identity.
func (rt *Runtime) Identity() string {
	return rt.cfg.Identity
}

// Readiness returns the readiness bit served by the admin endpoint.
func (rt *Runtime) Readiness() *admin.Readiness {
	return rt.readiness
}

// AdminAddr returns the admin endpoint's bound address.
func (rt *Runtime) AdminAddr() string {
	return rt.admin.Addr().String()
}

// ShutdownHandle returns a registered drain holder for components that
// manage their own lifecycle. The holder must be released once the
// component has finished its in-flight work.
func (rt *Runtime) ShutdownHandle() drain.Watch {
	return rt.drainWatch.Clone()
}

// ShutdownSignaled returns a channel that is closed when shutdown begins,
// for use in selects that must not hold up the drain.
func (rt *Runtime) ShutdownSignaled() <-chan struct{} {
	return rt.drainWatch.Signaled()
}

// WatchConfig claims an initialization token and returns the pipeline
// configuration that ties a watch into this runtime's readiness, shutdown,
// and metrics. Used by the package-level watch constructors.
func (rt *Runtime) WatchConfig() watch.Config {
	return watch.Config{
		ErrorDelay: rt.cfg.ErrorDelay,
		Handle:     rt.init.AddHandle(),
		Drain:      rt.drainWatch.Clone(),
		Metrics:    rt.metrics,
	}
}

// NewLease returns an initialized coordinator for the named Lease, wired
// with this runtime's field manager and metrics. The factory claims an
// initialization token and releases it once the initial state read
// succeeds, so readiness waits for the lease to be observed.
func (rt *Runtime) NewLease(ctx context.Context, namespace, name string) (*lease.Manager, error) {
	handle := rt.init.AddHandle()
	m, err := lease.NewManager(ctx, rt.client.CoordinationV1().Leases(namespace), name)
	if err != nil {
		handle.Release()
		return nil, err
	}
	handle.Release()
	return m.WithFieldManager(rt.cfg.FieldManager).WithMetrics(rt.metrics), nil
}

// SpawnLease starts the background claim driver for m under this runtime's
// identity and shutdown semantics.
func (rt *Runtime) SpawnLease(ctx context.Context, m *lease.Manager, params lease.ClaimParams) (*lease.Claims, error) {
	return m.Spawn(ctx, rt.cfg.Identity, params, rt.drainWatch.Clone())
}

// Run serves the admin endpoint, reports ready once every initialization
// token has been released, and blocks until shutdown: the first SIGINT or
// SIGTERM (or ctx cancellation) flips readiness off and triggers the
// drain; a second signal before the drain completes returns ErrAborted.
// A graceful drain returns nil.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.running.CompareAndSwap(false, true) {
		return fmt.Errorf("runtime: Run called twice")
	}
	defer signal.Stop(rt.signals)

	log := logging.Logger()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.admin.Serve()
	})

	g.Go(func() error {
		if err := rt.init.Wait(gctx); err != nil {
			return nil // shutdown before initialization completed
		}
		select {
		case <-rt.drainWatch.Signaled():
			return nil
		default:
		}
		rt.readiness.Set(true)
		log.Info("runtime initialized; ready")
		return nil
	})

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
			defer cancel()
			if err := rt.admin.Shutdown(shutdownCtx); err != nil {
				log.Warn("admin server shutdown failed", "error", err)
			}
		}()

		select {
		case s := <-rt.signals:
			log.Info("received shutdown signal; draining", "signal", s.String())
		case <-gctx.Done():
			log.Info("context canceled; draining")
		}
		rt.readiness.Set(false)

		drained := make(chan error, 1)
		go func() {
			drained <- rt.drainSig.Drain(context.Background())
		}()
		select {
		case err := <-drained:
			// Late initialization may have raced readiness back on while
			// the drain ran; force it off now that shutdown is done.
			rt.readiness.Set(false)
			if err != nil {
				return err
			}
			log.Info("drained")
			return nil
		case s := <-rt.signals:
			log.Warn("received second shutdown signal; aborting", "signal", s.String())
			return ErrAborted
		}
	})

	return g.Wait()
}

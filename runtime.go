package kubert

import (
	"github.com/giantswarm/kubert/internal/drain"
	"github.com/giantswarm/kubert/internal/runtime"
)

// Runtime owns the cluster client, the initialization latch, the drain
// channel, and the admin endpoint. Create watches and leases through it,
// then call Run to serve until a shutdown signal.
//
// Runtime is a type alias so the underlying methods — Client, Identity,
// Readiness, NewLease, SpawnLease, ShutdownHandle, ShutdownSignaled, Run —
// are part of the public API without redeclaration here.
type Runtime = runtime.Runtime

// ShutdownHandle is a registered drain holder, as returned by
// [Runtime.ShutdownHandle]. Components that manage their own lifecycle
// select on Signaled and call Release once their in-flight work is done;
// graceful shutdown waits for every holder.
type ShutdownHandle = drain.Watch

// Build constructs a Runtime: it applies the options, builds the cluster
// client (explicit client or rest config first, then kubeconfig loading
// rules, then in-cluster config), binds the admin listener without serving
// yet, and registers shutdown signal handlers. Nothing starts until
// [Runtime.Run]; a Build error means the runtime never ran.
func Build(opts ...RuntimeOption) (*Runtime, error) {
	var cfg runtime.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return runtime.Build(cfg)
}

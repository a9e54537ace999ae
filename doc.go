// Package kubert provides the core runtime for Kubernetes operators:
// leader election over Lease objects, resilient typed watch pipelines, and
// graceful shutdown, composed behind a single Runtime.
//
// # Basic Usage
//
//	rt, err := kubert.Build(
//		kubert.WithErrorDelay(5*time.Second),
//		kubert.WithFieldManager("my-operator"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// A watch with an in-memory mirror of the cluster state. The store is
//	// readable from any goroutine while the pipeline keeps it current.
//	events, store := kubert.WatchWithStore(ctx, rt, podListWatch(rt.Client(), "default"))
//	go func() {
//		for ev := range events {
//			_ = ev // react to changes; consult store for current state
//		}
//	}()
//
//	// Leader election. The claims observable always carries the current
//	// holder; only act while the claim is ours.
//	mgr, err := rt.NewLease(ctx, "default", "my-operator")
//	if err != nil {
//		log.Fatal(err)
//	}
//	claims, err := rt.SpawnLease(ctx, mgr, kubert.ClaimParams{
//		LeaseDuration:    30 * time.Second,
//		RenewGracePeriod: time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = claims
//
//	// Serve /live and /ready, report ready once all watches and leases
//	// have observed their initial state, and drain everything on SIGINT
//	// or SIGTERM. A second signal aborts with kubert.ErrAborted.
//	if err := rt.Run(ctx); err != nil {
//		os.Exit(1)
//	}
//
// # Readiness
//
// Every watch and lease created through a Runtime claims an initialization
// token. The admin endpoint's /ready reports 200 only after all tokens
// have been released: watches release theirs on the first delivered event,
// leases after the initial state read.
//
// # Shutdown
//
// The first shutdown signal stops accepting readiness, broadcasts the
// drain to every component, and waits for all of them to finish in-flight
// work. Watch streams close, lease drivers stop renewing, and Run returns
// nil. A second signal before the drain completes returns ErrAborted.
package kubert

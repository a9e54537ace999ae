package admin

import "sync/atomic"

// Readiness is the shared readiness bit. The runtime writes it; the HTTP
// handler and any external probes read it. A single atomic bool suffices,
// no mutex needed.
type Readiness struct {
	ready atomic.Bool
}

// Set updates the readiness bit.
func (r *Readiness) Set(v bool) {
	r.ready.Store(v)
}

// Get reads the readiness bit.
func (r *Readiness) Get() bool {
	return r.ready.Load()
}

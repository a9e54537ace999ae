// Package runtime composes the pieces an operator process needs: a cluster
// client, an initialization latch gating readiness, a drain channel for
// graceful shutdown, signal handling, metrics, and the admin endpoint.
// Watches and leases created through a Runtime automatically participate
// in readiness and shutdown.
package runtime

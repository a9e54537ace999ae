// Package lease coordinates single-writer leadership over a
// coordination.k8s.io/v1 Lease object. A Manager claims, renews, and
// vacates the lease with optimistic-concurrency patches, retrying only on
// conflict, and can drive the claim protocol from a background goroutine
// that publishes the current holder through a last-value-wins observable.
package lease

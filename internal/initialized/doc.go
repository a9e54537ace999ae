// Package initialized tracks component initialization. The runtime issues a
// Handle to every component that must observe its initial state before the
// process reports ready; Wait completes once all issued handles have been
// released.
package initialized

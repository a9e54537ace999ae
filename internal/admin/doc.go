// Package admin exposes the runtime's health signals over HTTP: /live is
// always healthy while the process runs, /ready reflects the readiness bit
// the runtime flips once all components have observed their initial state,
// and /metrics serves the runtime's Prometheus registry. The listener is
// bound at build time so bind failures surface before anything starts.
package admin

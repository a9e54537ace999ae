// Package drain implements a one-shot, multi-observer shutdown signal. The
// runtime holds the Signal side; every long-running component holds a Watch
// clone. Triggering the drain notifies all holders and then blocks until
// each has released its clone, which is how graceful shutdown waits for
// in-flight work.
package drain

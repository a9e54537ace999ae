package logging

import (
	"log/slog"
	"sync/atomic"
)

// logger is the module-wide logger, stored as an atomic pointer to allow
// safe concurrent reads and writes. Named "logger" instead of "log" to
// avoid shadowing the stdlib "log" package.
//
// A nil value means no custom logger has been set; Logger() falls back to a
// cached default derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// component attribute) so it is not re-created on every Logger() call. If
// slog.SetDefault() is called after the first Logger() call, the cached
// logger does not reflect the change; calling SetLogger(nil) clears the
// cache so the next Logger() call picks up the new default.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current logger. If no custom logger has been set via
// SetLogger, it returns a cached logger derived from slog.Default() with
// the component attribute. Safe to call from multiple goroutines.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	// CompareAndSwap avoids overwriting a concurrently cached value; if
	// another goroutine already stored a logger, use theirs.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	// Re-load the winner's value. If it is nil (a concurrent SetLogger
	// cleared it between our CAS and this load), fall back to the locally
	// created logger so we never return nil.
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// newDefaultLogger derives the default logger with the component attribute.
func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "kubert")
}

// SetLogger replaces the module-wide logger. If l is nil, the logger resets
// to the default: slog.Default() with the component attribute, re-derived
// on the next Logger() call and then cached.
//
// Safe to call concurrently with any other operation in this module.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	// Clear the cached default so the next Logger() call re-derives it
	// from slog.Default().
	defaultLogger.Store(nil)
}

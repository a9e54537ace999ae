package kubert

import (
	"log/slog"

	"github.com/giantswarm/kubert/internal/logging"
)

// SetLogger replaces the package-level logger used by kubert. This allows
// applications to integrate kubert logging with their own logging
// infrastructure. The provided logger should already carry any desired
// attributes; kubert will not add more.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other kubert operations.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

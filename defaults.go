package kubert

import "github.com/giantswarm/kubert/internal/runtime"

// Default configuration values for Build. These constants are exported so
// callers can reference the defaults when deriving their own settings
// (e.g., 2 * DefaultErrorDelay).
const (
	// DefaultErrorDelay is the fixed backoff every watch applies between
	// consecutive failed polls. A lone failure retries immediately; only
	// back-to-back failures wait, so transient hiccups stay cheap while
	// persistent outages do not hot-loop the API server.
	DefaultErrorDelay = runtime.DefaultErrorDelay

	// DefaultAdminAddr is the admin endpoint's listen address, serving
	// /live, /ready, and /metrics.
	DefaultAdminAddr = runtime.DefaultAdminAddr

	// DefaultFieldManager is the server-side-apply field manager recorded
	// on lease mutations.
	DefaultFieldManager = runtime.DefaultFieldManager
)

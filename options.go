package kubert

import (
	"fmt"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/giantswarm/kubert/internal/runtime"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive(name string, v time.Duration) {
	if v <= 0 {
		panic(fmt.Sprintf("kubert: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("kubert: %s must not be empty", name))
	}
}

// RuntimeOption configures a Runtime during construction via Build. Each
// With* function returns a RuntimeOption that sets a specific field.
//
// Several With* functions panic on invalid input (empty strings,
// non-positive durations, nil handles). These panics are intentional:
// option values are typically compile-time constants or flag defaults, so
// an invalid value indicates a programmer error rather than a runtime
// condition. The pattern mirrors [regexp.MustCompile] — fail fast during
// initialization instead of returning errors that would be universally
// fatal anyway.
type RuntimeOption func(*runtime.Config)

// WithErrorDelay sets the fixed backoff applied between consecutive failed
// watch polls. All watches built by one runtime share this value.
//
// Default: DefaultErrorDelay.
//
// Panics if d <= 0.
func WithErrorDelay(d time.Duration) RuntimeOption {
	requirePositive("error delay", d)
	return func(c *runtime.Config) {
		c.ErrorDelay = d
	}
}

// WithFieldManager sets the server-side-apply field manager recorded on
// lease mutations.
//
// Default: DefaultFieldManager.
//
// Panics if name is empty.
func WithFieldManager(name string) RuntimeOption {
	requireNonEmpty("field manager", name)
	return func(c *runtime.Config) {
		c.FieldManager = name
	}
}

// WithIdentity sets the process-wide leader-election identity. If not set,
// Build derives one from the hostname and a fresh uuid so co-scheduled or
// restarted replicas stay distinct.
//
// Panics if identity is empty.
func WithIdentity(identity string) RuntimeOption {
	requireNonEmpty("identity", identity)
	return func(c *runtime.Config) {
		c.Identity = identity
	}
}

// WithAdminAddr sets the admin endpoint's listen address.
//
// Default: DefaultAdminAddr.
//
// Panics if addr is empty.
func WithAdminAddr(addr string) RuntimeOption {
	requireNonEmpty("admin address", addr)
	return func(c *runtime.Config) {
		c.AdminAddr = addr
	}
}

// WithKubeconfig sets an explicit kubeconfig path, overriding the default
// loading rules.
//
// Panics if path is empty.
func WithKubeconfig(path string) RuntimeOption {
	requireNonEmpty("kubeconfig path", path)
	return func(c *runtime.Config) {
		c.KubeconfigPath = path
	}
}

// WithKubeconfigContext selects a kubeconfig context instead of the
// current one.
//
// Panics if context is empty.
func WithKubeconfigContext(context string) RuntimeOption {
	requireNonEmpty("kubeconfig context", context)
	return func(c *runtime.Config) {
		c.KubeconfigContext = context
	}
}

// WithRestConfig supplies a ready rest.Config, skipping kubeconfig loading
// entirely.
//
// Panics if cfg is nil.
func WithRestConfig(cfg *rest.Config) RuntimeOption {
	if cfg == nil {
		panic("kubert: rest config must not be nil")
	}
	return func(c *runtime.Config) {
		c.RestConfig = cfg
	}
}

// WithClient supplies a ready clientset, skipping client construction
// entirely. Intended for tests and for applications that already maintain
// a shared clientset.
//
// Panics if client is nil.
func WithClient(client kubernetes.Interface) RuntimeOption {
	if client == nil {
		panic("kubert: client must not be nil")
	}
	return func(c *runtime.Config) {
		c.Client = client
	}
}

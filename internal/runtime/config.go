package runtime

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/giantswarm/kubert/internal/lease"
)

// Default configuration values applied by Build when the corresponding
// Config field is zero.
const (
	// DefaultErrorDelay is the fixed backoff shared by every watch built
	// by a runtime, applied between consecutive failed polls.
	DefaultErrorDelay = 5 * time.Second

	// DefaultAdminAddr is where the admin endpoint listens.
	DefaultAdminAddr = "0.0.0.0:8080"

	// DefaultFieldManager scopes server-side-apply ownership of lease
	// fields.
	DefaultFieldManager = lease.DefaultFieldManager
)

// Config collects everything Build needs. Zero fields take defaults.
type Config struct {
	// ErrorDelay paces consecutive watch failures.
	ErrorDelay time.Duration

	// FieldManager names this process for server-side apply.
	FieldManager string

	// Identity is the process-wide leader-election identity. Defaults to
	// "<hostname>_<uuid>" so replicas of one deployment stay distinct.
	Identity string

	// AdminAddr is the admin endpoint's listen address.
	AdminAddr string

	// KubeconfigPath and KubeconfigContext override the default kubeconfig
	// loading rules.
	KubeconfigPath    string
	KubeconfigContext string

	// RestConfig skips kubeconfig loading entirely.
	RestConfig *rest.Config

	// Client skips client construction entirely; used by tests and by
	// applications embedding the runtime behind an existing clientset.
	Client kubernetes.Interface
}

func (c *Config) applyDefaults() {
	if c.ErrorDelay == 0 {
		c.ErrorDelay = DefaultErrorDelay
	}
	if c.FieldManager == "" {
		c.FieldManager = DefaultFieldManager
	}
	if c.AdminAddr == "" {
		c.AdminAddr = DefaultAdminAddr
	}
	if c.Identity == "" {
		c.Identity = defaultIdentity()
	}
}

// defaultIdentity builds a per-process identity. The hostname keeps it
// recognizable in Lease listings; the uuid keeps restarted or co-scheduled
// replicas distinct.
func defaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "_" + uuid.NewString()
}

// buildClient constructs the cluster client: an injected clientset or rest
// config wins; otherwise the standard kubeconfig loading rules apply, with
// in-cluster config as the fallback.
func buildClient(cfg Config) (kubernetes.Interface, error) {
	if cfg.Client != nil {
		return cfg.Client, nil
	}

	restCfg := cfg.RestConfig
	if restCfg == nil {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if cfg.KubeconfigPath != "" {
			rules.ExplicitPath = cfg.KubeconfigPath
		}
		overrides := &clientcmd.ConfigOverrides{CurrentContext: cfg.KubeconfigContext}
		var err error
		restCfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("build cluster client: %w", err)
	}
	return client, nil
}

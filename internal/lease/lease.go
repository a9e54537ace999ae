package lease

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	coordv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	coordclient "k8s.io/client-go/kubernetes/typed/coordination/v1"
	"k8s.io/utils/ptr"

	"github.com/giantswarm/kubert/internal/logging"
	"github.com/giantswarm/kubert/internal/metrics"
	"github.com/giantswarm/kubert/internal/sentinel"
)

// DefaultFieldManager scopes server-side-apply ownership of lease fields
// when no explicit field manager is configured.
const DefaultFieldManager = "kubert"

// ErrMissingResourceVersion is returned when the server hands back a Lease
// without a resourceVersion; the coordinator cannot condition further
// mutations and treats this as terminal.
//
// The typed coordination/v1 API represents the spec as a value, so a Lease
// persisted without a spec decodes as the zero spec and derives to the
// unclaimed state rather than a distinct failure.
const ErrMissingResourceVersion = sentinel.Error("lease does not have a resource version")

// meta is the optimistic-concurrency state carried between mutations.
type meta struct {
	version     string
	transitions int32
}

// state is the locally cached view of the Lease. claim is nil when no
// holder is recorded; an expired claim is kept so callers can report the
// previous holder.
type state struct {
	meta  meta
	claim *Claim
}

// Manager coordinates claims on a single named Lease. All operations on
// one Manager serialize on an internal mutex, so concurrent EnsureClaimed
// and Vacate calls (including the background driver) observe a serial
// history. It is safe for concurrent use by multiple goroutines.
type Manager struct {
	leases       coordclient.LeaseInterface
	name         string
	fieldManager string
	metrics      *metrics.Metrics
	now          func() time.Time

	mu    sync.Mutex
	state state
}

// NewManager reads the named Lease and returns a coordinator for it. The
// Lease must already exist; creating it is the deployment's concern.
func NewManager(ctx context.Context, leases coordclient.LeaseInterface, name string) (*Manager, error) {
	m := &Manager{
		leases:       leases,
		name:         name,
		fieldManager: DefaultFieldManager,
		now:          time.Now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.syncLocked(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// WithFieldManager sets the server-side-apply field manager. It must be
// called before the Manager is shared between goroutines.
func (m *Manager) WithFieldManager(fieldManager string) *Manager {
	m.fieldManager = fieldManager
	return m
}

// WithMetrics attaches instrumentation. Same sharing caveat as
// WithFieldManager.
func (m *Manager) WithMetrics(mx *metrics.Metrics) *Manager {
	m.metrics = mx
	return m
}

// Name returns the Lease name this Manager coordinates.
func (m *Manager) Name() string {
	return m.name
}

// Claimed re-reads the Lease and returns the current claim, or nil when no
// holder is recorded. The returned claim may already be expired; callers
// distinguish with Claim.IsCurrent.
func (m *Manager) Claimed(ctx context.Context) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.syncLocked(ctx); err != nil {
		return nil, err
	}
	if m.state.claim == nil {
		return nil, nil
	}
	c := *m.state.claim
	return &c, nil
}

// EnsureClaimed drives the lease toward being claimed by identity and
// returns the resulting claim. If the lease is actively held by another
// identity the foreign claim is returned as-is; the caller decides whether
// to wait for its expiry. Conflicts are resolved by re-reading and
// retrying; any other API error is terminal.
func (m *Manager) EnsureClaimed(ctx context.Context, identity string, params ClaimParams) (Claim, error) {
	if err := params.validate(); err != nil {
		return Claim{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return Claim{}, err
		}

		now := m.now()
		c := m.state.claim
		active := c != nil && now.Before(c.Expiry)

		var (
			claim Claim
			err   error
		)
		switch {
		case active && c.Holder == identity && now.Before(c.Expiry.Add(-params.RenewGracePeriod)):
			// Still fresh; nothing to do.
			return *c, nil

		case active && c.Holder == identity:
			claim, err = m.renewLocked(ctx, params)

		case active:
			// Held by another identity; report it.
			return *c, nil

		default:
			// Unclaimed, or the recorded claim has expired.
			claim, err = m.acquireLocked(ctx, identity, params)
		}

		if err == nil {
			return claim, nil
		}
		if !apierrors.IsConflict(err) {
			return Claim{}, err
		}

		// Another writer got there first; adopt their version and
		// re-evaluate.
		logging.Logger().Debug("lease conflict; re-reading", "lease", m.name)
		if err := m.syncLocked(ctx); err != nil {
			return Claim{}, err
		}
	}
}

// Vacate releases the lease if it is actively held by identity, clearing
// all claim fields but preserving the transition counter. It reports
// whether a release was performed.
func (m *Manager) Vacate(ctx context.Context, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		c := m.state.claim
		if c == nil || !m.now().Before(c.Expiry) || c.Holder != identity {
			return false, nil
		}

		err := m.vacateLocked(ctx)
		if err == nil {
			return true, nil
		}
		if !apierrors.IsConflict(err) {
			return false, err
		}
		if err := m.syncLocked(ctx); err != nil {
			return false, err
		}
	}
}

// syncLocked refreshes the local state from the server. m.mu must be held.
func (m *Manager) syncLocked(ctx context.Context) error {
	lease, err := m.leases.Get(ctx, m.name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("get lease: %w", err)
	}
	return m.adoptLocked(lease)
}

// adoptLocked replaces the local state with the server's view.
func (m *Manager) adoptLocked(lease *coordv1.Lease) error {
	if lease.ResourceVersion == "" {
		return ErrMissingResourceVersion
	}

	s := state{meta: meta{version: lease.ResourceVersion}}
	if lease.Spec.LeaseTransitions != nil {
		s.meta.transitions = *lease.Spec.LeaseTransitions
	}

	spec := lease.Spec
	if spec.HolderIdentity != nil && *spec.HolderIdentity != "" &&
		spec.RenewTime != nil && spec.LeaseDurationSeconds != nil {
		s.claim = &Claim{
			Holder: *spec.HolderIdentity,
			Expiry: spec.RenewTime.Add(time.Duration(*spec.LeaseDurationSeconds) * time.Second),
		}
	}

	m.state = s
	return nil
}

// acquireLocked takes the lease for identity with a server-side apply
// conditioned on the last observed resourceVersion. Every successful
// acquire increments leaseTransitions, including a re-acquire after expiry
// by the previous holder.
func (m *Manager) acquireLocked(ctx context.Context, identity string, params ClaimParams) (Claim, error) {
	now := m.now()
	transitions := m.state.meta.transitions + 1
	seconds := int32(params.LeaseDuration.Seconds())

	patch, err := json.Marshal(map[string]any{
		"apiVersion": "coordination.k8s.io/v1",
		"kind":       "Lease",
		"metadata": map[string]any{
			"name":            m.name,
			"resourceVersion": m.state.meta.version,
		},
		"spec": map[string]any{
			"holderIdentity":       identity,
			"acquireTime":          metav1.NewMicroTime(now),
			"renewTime":            metav1.NewMicroTime(now),
			"leaseDurationSeconds": seconds,
			"leaseTransitions":     transitions,
		},
	})
	if err != nil {
		return Claim{}, fmt.Errorf("encode acquire patch: %w", err)
	}

	logging.Logger().Debug("acquiring lease", "lease", m.name, "identity", identity)
	lease, err := m.leases.Patch(ctx, m.name, types.ApplyPatchType, patch, metav1.PatchOptions{
		FieldManager: m.fieldManager,
		Force:        ptr.To(true),
	})
	if err != nil {
		return Claim{}, fmt.Errorf("acquire lease: %w", err)
	}
	if lease.ResourceVersion == "" {
		return Claim{}, ErrMissingResourceVersion
	}

	claim := Claim{Holder: identity, Expiry: now.Add(params.LeaseDuration)}
	m.state = state{
		meta:  meta{version: lease.ResourceVersion, transitions: transitions},
		claim: &claim,
	}
	return claim, nil
}

// renewLocked extends the current holder's claim, leaving acquireTime and
// leaseTransitions untouched.
func (m *Manager) renewLocked(ctx context.Context, params ClaimParams) (Claim, error) {
	now := m.now()
	seconds := int32(params.LeaseDuration.Seconds())

	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{
			"resourceVersion": m.state.meta.version,
		},
		"spec": map[string]any{
			"renewTime":            metav1.NewMicroTime(now),
			"leaseDurationSeconds": seconds,
		},
	})
	if err != nil {
		return Claim{}, fmt.Errorf("encode renew patch: %w", err)
	}

	logging.Logger().Debug("renewing lease", "lease", m.name)
	lease, err := m.leases.Patch(ctx, m.name, types.StrategicMergePatchType, patch, metav1.PatchOptions{
		FieldManager: m.fieldManager,
	})
	if err != nil {
		return Claim{}, fmt.Errorf("renew lease: %w", err)
	}
	if lease.ResourceVersion == "" {
		return Claim{}, ErrMissingResourceVersion
	}

	claim := Claim{Holder: m.state.claim.Holder, Expiry: now.Add(params.LeaseDuration)}
	m.state = state{
		meta:  meta{version: lease.ResourceVersion, transitions: m.state.meta.transitions},
		claim: &claim,
	}
	return claim, nil
}

// vacateLocked clears the claim fields, preserving leaseTransitions.
func (m *Manager) vacateLocked(ctx context.Context) error {
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{
			"resourceVersion": m.state.meta.version,
		},
		"spec": map[string]any{
			"holderIdentity":       nil,
			"acquireTime":          nil,
			"renewTime":            nil,
			"leaseDurationSeconds": nil,
		},
	})
	if err != nil {
		return fmt.Errorf("encode vacate patch: %w", err)
	}

	logging.Logger().Debug("vacating lease", "lease", m.name)
	lease, err := m.leases.Patch(ctx, m.name, types.StrategicMergePatchType, patch, metav1.PatchOptions{
		FieldManager: m.fieldManager,
	})
	if err != nil {
		return fmt.Errorf("vacate lease: %w", err)
	}
	if lease.ResourceVersion == "" {
		return ErrMissingResourceVersion
	}

	m.state = state{
		meta: meta{version: lease.ResourceVersion, transitions: m.state.meta.transitions},
	}
	return nil
}

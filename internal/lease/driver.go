package lease

import (
	"context"
	"sync"
	"time"

	"github.com/giantswarm/kubert/internal/drain"
	"github.com/giantswarm/kubert/internal/latest"
	"github.com/giantswarm/kubert/internal/logging"
)

// Claims is the observable side of a background lease driver. It carries
// the most recent claim (nil while no holder is recorded; a recorded claim
// may already have expired, see Claim.IsCurrent); slow consumers
// coalesce intermediate claims but never observe a stale one after a fresh
// one. The cell closes when the driver exits, after which Err reports the
// terminal failure, if any.
type Claims struct {
	cell *latest.Cell[*Claim]

	mu  sync.Mutex
	err error
}

// Current returns the most recently published claim, or nil.
func (c *Claims) Current() *Claim {
	v, _ := c.cell.Get()
	return v
}

// Get returns the most recent claim together with a version for use with
// Changed.
func (c *Claims) Get() (*Claim, uint64) {
	return c.cell.Get()
}

// Changed returns a channel that is closed once a claim newer than since
// has been published, or the driver has exited.
func (c *Claims) Changed(since uint64) <-chan struct{} {
	return c.cell.Changed(since)
}

// Done returns a channel that is closed when the driver has exited.
func (c *Claims) Done() <-chan struct{} {
	return c.cell.Done()
}

// Err returns the driver's terminal error. It is nil before Done is closed
// and nil after a clean shutdown.
func (c *Claims) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Claims) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Spawn reads the current state, then runs the claim protocol in a
// background goroutine until ctx is canceled or the drain is signaled:
// publish the current claim, sleep until the claim needs attention, ensure
// it is claimed, repeat. The returned Claims observable closes when the
// driver exits.
//
// The drain watch must be a registered clone (or the template, for callers
// outside a runtime); the driver releases it on exit.
func (m *Manager) Spawn(ctx context.Context, identity string, params ClaimParams, dw drain.Watch) (*Claims, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	err := m.syncLocked(ctx)
	cur := m.state.claim
	if cur != nil {
		c := *cur
		cur = &c
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	claims := &Claims{cell: latest.NewCell(cur)}
	m.metrics.LeaseClaim(m.name, cur != nil && cur.IsCurrentFor(identity))
	go m.drive(ctx, identity, params, dw, claims)
	return claims, nil
}

func (m *Manager) drive(ctx context.Context, identity string, params ClaimParams, dw drain.Watch, claims *Claims) {
	defer claims.cell.Close()
	defer dw.Release()

	log := logging.Logger()
	for {
		// Decide when the claim next needs attention.
		m.mu.Lock()
		c := m.state.claim
		if c != nil {
			cc := *c
			c = &cc
		}
		m.mu.Unlock()

		now := m.now()
		var wake time.Time
		switch {
		case c == nil || !now.Before(c.Expiry):
			wake = now // unclaimed or expired: act immediately
		case c.Holder == identity:
			wake = c.Expiry.Add(-params.RenewGracePeriod)
		default:
			wake = c.Expiry // foreign holder: try again once it lapses
		}

		if !m.sleepUntil(ctx, dw, wake) {
			return
		}

		claim, err := m.EnsureClaimed(ctx, identity, params)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("lease driver failed", "lease", m.name, "error", err)
			claims.fail(err)
			return
		}

		claims.cell.Set(&claim)
		m.metrics.LeaseClaim(m.name, claim.IsCurrentFor(identity))
	}
}

// sleepUntil waits until the wake time, honoring shutdown. It returns
// false when the driver should exit.
func (m *Manager) sleepUntil(ctx context.Context, dw drain.Watch, wake time.Time) bool {
	d := wake.Sub(m.now())
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-dw.Signaled():
			return false
		default:
			return true
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-dw.Signaled():
		return false
	}
}

package lease

import (
	"fmt"
	"time"
)

// Claim records that holder has the lease until expiry.
//
// Expiry is computed from the local clock at the moment the coordinator
// sent the mutation, not from the server's recorded renewTime. The local
// timestamp is authoritative for scheduling the next renewal; if local and
// server clocks disagree the holder may renew earlier or later than the
// server would expect, so keep lease durations comfortably larger than the
// plausible skew.
type Claim struct {
	Holder string
	Expiry time.Time
}

// IsCurrent reports whether the claim has not yet expired.
func (c Claim) IsCurrent() bool {
	return time.Now().Before(c.Expiry)
}

// IsCurrentFor reports whether the claim is active and held by id.
func (c Claim) IsCurrentFor(id string) bool {
	return c.Holder == id && c.IsCurrent()
}

// ClaimParams configures a claim attempt.
type ClaimParams struct {
	// LeaseDuration is how long a claim is valid after each acquire or
	// renew. Must be positive.
	LeaseDuration time.Duration

	// RenewGracePeriod is how long before expiry the holder starts
	// renewing. Must be non-negative and no larger than LeaseDuration.
	// Zero means the holder never renews: once its claim has expired the
	// lease is acquired afresh, which counts as a lease transition.
	RenewGracePeriod time.Duration
}

func (p ClaimParams) validate() error {
	if p.LeaseDuration <= 0 {
		return fmt.Errorf("lease duration must be positive, got %v", p.LeaseDuration)
	}
	if p.RenewGracePeriod < 0 {
		return fmt.Errorf("renew grace period must not be negative, got %v", p.RenewGracePeriod)
	}
	if p.RenewGracePeriod > p.LeaseDuration {
		return fmt.Errorf("renew grace period %v exceeds lease duration %v", p.RenewGracePeriod, p.LeaseDuration)
	}
	return nil
}

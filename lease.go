package kubert

import (
	"github.com/giantswarm/kubert/internal/lease"
)

// LeaseManager coordinates single-writer leadership over one named Lease
// object. Obtain one from [Runtime.NewLease]; claim with EnsureClaimed,
// release with Vacate, or run the protocol continuously with
// [Runtime.SpawnLease].
//
// LeaseManager is a type alias so the underlying methods — EnsureClaimed,
// Vacate, Claimed, Spawn, WithFieldManager — are part of the public API
// without redeclaration here.
type LeaseManager = lease.Manager

// Claim records that a holder has a lease until some expiry. Expiry is
// derived from the local clock at mutation time; the type documentation
// of lease.Claim describes the clock-skew caveat.
type Claim = lease.Claim

// ClaimParams configures a claim attempt: the lease duration and how long
// before expiry the holder starts renewing.
type ClaimParams = lease.ClaimParams

// Claims is the observable side of a background lease driver: a
// last-value-wins view of the current claim that closes when the driver
// exits.
type Claims = lease.Claims

package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hacksync/internal/model"
)

// ErrCodeInvariantDrift identifies a snapshot whose cross-entity invariants
// do not hold.
const ErrCodeInvariantDrift = "INVARIANT_DRIFT"

// DriftError lists every invariant violation found in a snapshot.
// Drift is never fatal: the Store answers it with a full recompute.
type DriftError struct {
	Violations []string
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeInvariantDrift, strings.Join(e.Violations, "; "))
}

// IsInvariantDrift returns true if err is, or wraps, a DriftError.
func IsInvariantDrift(err error) bool {
	var de *DriftError
	return errors.As(err, &de)
}

// CheckInvariants verifies roster symmetry and bounty capacity.
// Returns nil or a *DriftError.
func CheckInvariants(s model.Snapshot) error {
	var v []string

	rosterOwner := make(map[string]string)
	for _, proj := range s.Projects {
		for _, addr := range proj.Members {
			n := model.NormalizeAddress(addr)
			if other, dup := rosterOwner[n]; dup && other != proj.ID {
				v = append(v, fmt.Sprintf("%s is on rosters of %s and %s", addr, other, proj.ID))
				continue
			}
			rosterOwner[n] = proj.ID
		}
	}

	for _, p := range s.Attendees {
		owner, onRoster := rosterOwner[model.NormalizeAddress(p.Email)]
		switch {
		case onRoster && p.ProjectID != owner:
			v = append(v, fmt.Sprintf("%s is on roster of %s but owns %q", p.Email, owner, p.ProjectID))
		case onRoster && p.TeamStatus != model.TeamHasTeam:
			v = append(v, fmt.Sprintf("%s is on roster of %s with status %q", p.Email, owner, p.TeamStatus))
		case !onRoster && p.ProjectID != "":
			v = append(v, fmt.Sprintf("%s owns %s but is on no roster", p.Email, p.ProjectID))
		}
	}

	for _, b := range s.Bounties {
		if len(b.ClaimedBy) > b.Capacity() {
			v = append(v, fmt.Sprintf("bounty %s has %d claims over capacity %d", b.ID, len(b.ClaimedBy), b.Capacity()))
		}
		if b.Status == model.BountyOpen && len(b.ClaimedBy) >= b.Capacity() {
			v = append(v, fmt.Sprintf("bounty %s is full but still open", b.ID))
		}
	}

	if len(v) > 0 {
		return &DriftError{Violations: v}
	}
	return nil
}

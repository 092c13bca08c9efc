package state

import (
	"slices"

	"github.com/roach88/hacksync/internal/model"
)

// claimBounty adds projectID to the bounty's claims. The claim is rejected
// when the bounty is not open or already at capacity; reaching capacity flips
// the status to claimed in the same transition. Repeating a claim is a no-op.
func claimBounty(s *model.Snapshot, bountyID, projectID string) bool {
	if projectID == "" {
		return false
	}
	i := indexOf(s.Bounties, bountyID, bountyKey)
	if i < 0 {
		return false
	}
	b := &s.Bounties[i]
	if slices.Contains(b.ClaimedBy, projectID) {
		return false
	}
	if b.Status != model.BountyOpen || len(b.ClaimedBy) >= b.Capacity() {
		return false
	}

	b.ClaimedBy = append(b.ClaimedBy, projectID)
	if len(b.ClaimedBy) >= b.Capacity() {
		b.Status = model.BountyClaimed
	}

	if j := indexOf(s.Projects, projectID, projectKey); j >= 0 && s.Projects[j].BountyID == "" {
		s.Projects[j].BountyID = bountyID
	}
	return true
}

// releaseBounty withdraws a project's claim and reopens a claimed bounty that
// drops below capacity.
func releaseBounty(s *model.Snapshot, bountyID, projectID string) bool {
	i := indexOf(s.Bounties, bountyID, bountyKey)
	if i < 0 {
		return false
	}
	if !releaseClaim(&s.Bounties[i], projectID) {
		return false
	}
	if j := indexOf(s.Projects, projectID, projectKey); j >= 0 && s.Projects[j].BountyID == bountyID {
		s.Projects[j].BountyID = ""
	}
	return true
}

func releaseClaim(b *model.Bounty, projectID string) bool {
	idx := slices.Index(b.ClaimedBy, projectID)
	if idx < 0 {
		return false
	}
	b.ClaimedBy = slices.Delete(b.ClaimedBy, idx, idx+1)
	if b.Status == model.BountyClaimed && len(b.ClaimedBy) < b.Capacity() {
		b.Status = model.BountyOpen
	}
	return true
}

func completeBounty(s *model.Snapshot, bountyID string) bool {
	i := indexOf(s.Bounties, bountyID, bountyKey)
	if i < 0 || s.Bounties[i].Status == model.BountyCompleted {
		return false
	}
	s.Bounties[i].Status = model.BountyCompleted
	return true
}

// normalizeBounty enforces the capacity rule on a bounty that arrived by
// replace, add or patch: claims are deduplicated and truncated to capacity,
// and a full open bounty becomes claimed.
func normalizeBounty(b model.Bounty) model.Bounty {
	if b.Status == "" {
		b.Status = model.BountyOpen
	}
	if len(b.ClaimedBy) > 0 {
		seen := make(map[string]struct{}, len(b.ClaimedBy))
		claims := make([]string, 0, len(b.ClaimedBy))
		for _, id := range b.ClaimedBy {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			claims = append(claims, id)
		}
		b.ClaimedBy = claims
	}
	if len(b.ClaimedBy) > b.Capacity() {
		b.ClaimedBy = b.ClaimedBy[:b.Capacity()]
	}
	if b.Status == model.BountyOpen && len(b.ClaimedBy) >= b.Capacity() {
		b.Status = model.BountyClaimed
	}
	return b
}

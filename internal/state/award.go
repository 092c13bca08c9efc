package state

import "github.com/roach88/hacksync/internal/model"

// assignChallengeWinner records projectID as the winner for kind.
// Re-assigning the same pair is a no-op; a different project overwrites.
// When every declared challenge has a winner afterwards, results are
// announced in the same transition.
func assignChallengeWinner(s *model.Snapshot, kind model.ChallengeKind, projectID string) bool {
	if kind == "" || projectID == "" {
		return false
	}
	prev, had := s.Winners.Challenge[kind]
	if had && prev == projectID {
		return false
	}

	s.Winners.Challenge[kind] = projectID
	markWinner(s, projectID)
	if had {
		refreshWinnerStatus(s, prev)
	}

	if !s.Phase.Announced && allChallengesDecided(s) {
		s.Phase.Announced = true
	}
	return true
}

func clearChallengeWinner(s *model.Snapshot, kind model.ChallengeKind) bool {
	prev, had := s.Winners.Challenge[kind]
	if !had {
		return false
	}
	delete(s.Winners.Challenge, kind)
	refreshWinnerStatus(s, prev)
	return true
}

// assignBountyWinner records projectID as the winner for a bounty.
// Same idempotency and overwrite rules as challenge winners. Bounty winners
// never drive the announcement.
func assignBountyWinner(s *model.Snapshot, bountyID, projectID string) bool {
	if bountyID == "" || projectID == "" {
		return false
	}
	prev, had := s.Winners.Bounty[bountyID]
	if had && prev == projectID {
		return false
	}

	s.Winners.Bounty[bountyID] = projectID
	markWinner(s, projectID)
	if had {
		refreshWinnerStatus(s, prev)
	}
	return true
}

func clearBountyWinner(s *model.Snapshot, bountyID string) bool {
	prev, had := s.Winners.Bounty[bountyID]
	if !had {
		return false
	}
	delete(s.Winners.Bounty, bountyID)
	refreshWinnerStatus(s, prev)
	return true
}

// allChallengesDecided reports whether at least one challenge is declared and
// every declared challenge kind has a winner.
func allChallengesDecided(s *model.Snapshot) bool {
	if len(s.Challenges) == 0 {
		return false
	}
	for _, c := range s.Challenges {
		if _, ok := s.Winners.Challenge[c.Kind]; !ok {
			return false
		}
	}
	return true
}

// applyPhase performs an administrative transition between the editing,
// voting and announced states.
func applyPhase(s *model.Snapshot, action PhaseAction) bool {
	before := s.Phase
	switch action {
	case PhaseOpenVoting:
		s.Phase = model.Phase{VotingOpen: true}
	case PhaseCloseVoting:
		s.Phase.VotingOpen = false
	case PhaseAnnounce:
		s.Phase.Announced = true
	case PhaseUnannounce:
		s.Phase.Announced = false
	case PhaseReset:
		hadWinners := len(s.Winners.Challenge) > 0 || len(s.Winners.Bounty) > 0
		previous := winnerProjects(s)
		s.Phase = model.Phase{}
		s.Winners.Challenge = map[model.ChallengeKind]string{}
		s.Winners.Bounty = map[string]string{}
		for id := range previous {
			refreshWinnerStatus(s, id)
		}
		return hadWinners || before != s.Phase
	default:
		return false
	}
	return before != s.Phase
}

func winnerProjects(s *model.Snapshot) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, id := range s.Winners.Challenge {
		ids[id] = struct{}{}
	}
	for _, id := range s.Winners.Bounty {
		ids[id] = struct{}{}
	}
	return ids
}

func markWinner(s *model.Snapshot, projectID string) {
	if i := indexOf(s.Projects, projectID, projectKey); i >= 0 {
		s.Projects[i].Status = model.ProjectWinner
	}
}

// refreshWinnerStatus demotes a project to submitted once it holds no
// winning slot anywhere.
func refreshWinnerStatus(s *model.Snapshot, projectID string) {
	if _, still := winnerProjects(s)[projectID]; still {
		return
	}
	if i := indexOf(s.Projects, projectID, projectKey); i >= 0 && s.Projects[i].Status == model.ProjectWinner {
		s.Projects[i].Status = model.ProjectSubmitted
	}
}

// dropProjectFromAwards removes every winner slot and bounty claim held by a
// deleted project.
func dropProjectFromAwards(s *model.Snapshot, projectID string) {
	for kind, id := range s.Winners.Challenge {
		if id == projectID {
			delete(s.Winners.Challenge, kind)
		}
	}
	for bountyID, id := range s.Winners.Bounty {
		if id == projectID {
			delete(s.Winners.Bounty, bountyID)
		}
	}
	for i := range s.Bounties {
		releaseClaim(&s.Bounties[i], projectID)
	}
}

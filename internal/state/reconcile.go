package state

import "github.com/roach88/hacksync/internal/model"

// Reconcile rewrites the person side of one project's roster.
//
// For every person on the roster: owning project, team name and status
// hasTeam are set. For every person who owned project but is no longer on
// its roster: the link and team name are cleared, and hasTeam becomes
// soloConfirmed. Other statuses are left alone.
//
// This is a full diff of the roster against all people, not an incremental
// patch. A nil project (person-only edit) returns an unchanged copy.
// The input slice is never modified.
func Reconcile(people []model.Person, project *model.Project) []model.Person {
	out := make([]model.Person, len(people))
	copy(out, people)
	if project == nil {
		return out
	}

	roster := model.AddressSet(project.Members)
	team := project.DisplayTeam()

	for i := range out {
		p := &out[i]
		_, onRoster := roster[model.NormalizeAddress(p.Email)]
		switch {
		case onRoster:
			link(p, project.ID, team)
		case p.ProjectID == project.ID:
			unlink(p)
		}
	}
	return out
}

// ReconcileAll recomputes every person's project link from all rosters.
//
// Unlike Reconcile it also clears links that point at
// projects which no longer exist. When an address appears on more than one
// roster the first project in slice order owns it.
func ReconcileAll(people []model.Person, projects []model.Project) []model.Person {
	out := make([]model.Person, len(people))
	copy(out, people)

	owner := make(map[string]int)
	for i, proj := range projects {
		for _, addr := range proj.Members {
			n := model.NormalizeAddress(addr)
			if n == "" {
				continue
			}
			if _, taken := owner[n]; !taken {
				owner[n] = i
			}
		}
	}

	for i := range out {
		p := &out[i]
		if idx, ok := owner[model.NormalizeAddress(p.Email)]; ok {
			link(p, projects[idx].ID, projects[idx].DisplayTeam())
			continue
		}
		if p.ProjectID != "" {
			unlink(p)
		}
	}
	return out
}

func link(p *model.Person, projectID, team string) {
	p.ProjectID = projectID
	p.TeamName = team
	p.TeamStatus = model.TeamHasTeam
}

func unlink(p *model.Person) {
	p.ProjectID = ""
	p.TeamName = ""
	if p.TeamStatus == model.TeamHasTeam {
		p.TeamStatus = model.TeamSoloConfirmed
	}
}

// claimRoster removes the addresses on projects[owner]'s roster from every
// other project's roster, so that a person is a member of one project only.
// Returns true if any other roster changed.
func claimRoster(projects []model.Project, owner int) bool {
	claimed := model.AddressSet(projects[owner].Members)
	if len(claimed) == 0 {
		return false
	}

	changed := false
	for i := range projects {
		if i == owner {
			continue
		}
		kept := projects[i].Members[:0:0]
		for _, addr := range projects[i].Members {
			if _, taken := claimed[model.NormalizeAddress(addr)]; taken {
				changed = true
				continue
			}
			kept = append(kept, addr)
		}
		if len(kept) != len(projects[i].Members) {
			projects[i].Members = kept
		}
	}
	return changed
}

// dedupeRoster drops blank and repeated addresses, keeping first occurrences.
func dedupeRoster(members []string) []string {
	if members == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, addr := range members {
		n := model.NormalizeAddress(addr)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, addr)
	}
	return out
}

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/hacksync/internal/model"
)

func TestReconcile_LinksRosterMembers(t *testing.T) {
	people := []model.Person{person("a@x.com"), person("b@x.com"), person("c@x.com")}
	proj := project("p1", "A@x.com", "b@x.com")

	out := Reconcile(people, &proj)

	for _, email := range []string{"a@x.com", "b@x.com"} {
		p := out[indexOf(out, email, personKey)]
		assert.Equal(t, "p1", p.ProjectID, email)
		assert.Equal(t, "Team p1", p.TeamName, email)
		assert.Equal(t, model.TeamHasTeam, p.TeamStatus, email)
	}
	assert.Empty(t, out[2].ProjectID)
	assert.Equal(t, model.TeamUnset, out[2].TeamStatus)
}

func TestReconcile_UnlinksDroppedMembers(t *testing.T) {
	dropped := person("b@x.com")
	dropped.ProjectID = "p1"
	dropped.TeamName = "Team p1"
	dropped.TeamStatus = model.TeamHasTeam

	needs := person("c@x.com")
	needs.ProjectID = "p1"
	needs.TeamStatus = model.TeamNeedsTeam

	proj := project("p1", "a@x.com")
	out := Reconcile([]model.Person{dropped, needs}, &proj)

	assert.Empty(t, out[0].ProjectID)
	assert.Empty(t, out[0].TeamName)
	assert.Equal(t, model.TeamSoloConfirmed, out[0].TeamStatus)

	assert.Empty(t, out[1].ProjectID)
	assert.Equal(t, model.TeamNeedsTeam, out[1].TeamStatus, "non-hasTeam status is left alone")
}

func TestReconcile_FallsBackToProjectName(t *testing.T) {
	proj := project("p1", "a@x.com")
	proj.TeamName = ""

	out := Reconcile([]model.Person{person("a@x.com")}, &proj)
	assert.Equal(t, "Project p1", out[0].TeamName)
}

func TestReconcile_NilProjectCopies(t *testing.T) {
	in := []model.Person{person("a@x.com")}
	out := Reconcile(in, nil)
	assert.Equal(t, in, out)

	out[0].FirstName = "Changed"
	assert.Equal(t, "Test", in[0].FirstName, "input must not be modified")
}

func TestReconcile_LeavesOtherProjectsAlone(t *testing.T) {
	other := person("z@x.com")
	other.ProjectID = "p2"
	other.TeamStatus = model.TeamHasTeam

	proj := project("p1", "a@x.com")
	out := Reconcile([]model.Person{other}, &proj)
	assert.Equal(t, "p2", out[0].ProjectID)
}

func TestReconcileAll_ClearsDanglingLinks(t *testing.T) {
	ghost := person("g@x.com")
	ghost.ProjectID = "gone"
	ghost.TeamStatus = model.TeamHasTeam

	out := ReconcileAll(
		[]model.Person{ghost, person("a@x.com")},
		[]model.Project{project("p1", "a@x.com")},
	)

	assert.Empty(t, out[0].ProjectID)
	assert.Equal(t, model.TeamSoloConfirmed, out[0].TeamStatus)
	assert.Equal(t, "p1", out[1].ProjectID)
}

func TestReconcileAll_FirstRosterWins(t *testing.T) {
	out := ReconcileAll(
		[]model.Person{person("a@x.com")},
		[]model.Project{project("p1", "a@x.com"), project("p2", "a@x.com")},
	)
	assert.Equal(t, "p1", out[0].ProjectID)
}

func TestDedupeRoster(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, dedupeRoster([]string{"a@x.com", " ", "A@X.com", "b@x.com"}))
	assert.Equal(t, []string{}, dedupeRoster(nil))
}

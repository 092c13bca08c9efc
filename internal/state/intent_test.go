package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/model"
)

func TestIntentConstructors_InferKind(t *testing.T) {
	assert.Equal(t, KindProject, Add(model.Project{}).Kind)
	assert.Equal(t, KindPerson, Add(&model.Person{}).Kind)
	assert.Equal(t, KindGoodie, Replace([]model.Goodie{}).Kind)
	assert.Equal(t, KindFAQ, Replace([]model.FaqItem{}).Kind)
	assert.Equal(t, Kind(""), Add("nope").Kind)
}

func TestIntent_String(t *testing.T) {
	assert.Equal(t, "patch project/p1", Patch(KindProject, "p1", nil).String())
	assert.Equal(t, "replace bounty", Replace([]model.Bounty{}).String())
	assert.Equal(t, "phase open_voting", SetPhase(PhaseOpenVoting).String())
	assert.Equal(t, "assign_challenge_winner ai->p1", AssignChallengeWinner("ai", "p1").String())
	assert.Equal(t, "claim_bounty b1->p2", ClaimBounty("b1", "p2").String())
	assert.Equal(t, "replace_all", ReplaceAll(model.NewSnapshot()).String())
}

func TestAddJSON(t *testing.T) {
	in, err := AddJSON(KindProject, []byte(`{"id":"p1","name":"Launcher","members":["a@x.com"]}`))
	require.NoError(t, err)

	s := createTestStore(t)
	snap, changed := s.Apply(in)
	require.True(t, changed)
	p, ok := snap.Project("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.com"}, p.Members)
}

func TestReplaceJSON(t *testing.T) {
	in, err := ReplaceJSON(KindPerson, []byte(`[{"email":"a@x.com"},{"email":"b@x.com"}]`))
	require.NoError(t, err)

	s := createTestStore(t)
	snap, _ := s.Apply(in)
	assert.Len(t, snap.Attendees, 2)
}

func TestAddJSON_Errors(t *testing.T) {
	_, err := AddJSON("spaceship", []byte(`{}`))
	assert.Error(t, err)

	_, err = AddJSON(KindBounty, []byte(`{"maxTeams":"lots"}`))
	assert.Error(t, err)
}

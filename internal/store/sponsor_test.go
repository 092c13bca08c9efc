package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/hacksync/internal/model"
)

func TestListSponsorCollections_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	challenges, err := s.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges() failed: %v", err)
	}
	bounties, err := s.ListBounties(ctx)
	if err != nil {
		t.Fatalf("ListBounties() failed: %v", err)
	}
	goodies, err := s.ListGoodies(ctx)
	if err != nil {
		t.Fatalf("ListGoodies() failed: %v", err)
	}

	if challenges == nil || bounties == nil || goodies == nil {
		t.Error("empty collections should be non-nil slices")
	}
	if len(challenges)+len(bounties)+len(goodies) != 0 {
		t.Error("fresh store should have no sponsor rows")
	}
}

func TestChallenges_InsertListUpdate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ai := model.Challenge{
		ID: "c-ai", Kind: "ai", Title: "Best AI",
		Prizes: []string{"GPU"}, SponsorID: "acme",
	}
	ux := model.Challenge{ID: "c-ux", Kind: "ux", Title: "Best UX"}

	for _, c := range []model.Challenge{ai, ux} {
		inserted, err := s.InsertChallenge(ctx, c)
		if err != nil {
			t.Fatalf("InsertChallenge(%s) failed: %v", c.ID, err)
		}
		if !inserted {
			t.Errorf("InsertChallenge(%s) reported no insert", c.ID)
		}
	}

	got, err := s.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges() failed: %v", err)
	}
	if want := []model.Challenge{ai, ux}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListChallenges() = %+v, want %+v", got, want)
	}

	ai.Title = "Best Applied AI"
	ai.Requirements = []string{"uses a model"}
	updated, err := s.UpdateChallenge(ctx, ai)
	if err != nil {
		t.Fatalf("UpdateChallenge() failed: %v", err)
	}
	if !updated {
		t.Error("UpdateChallenge() reported no row")
	}

	got, _ = s.ListChallenges(ctx)
	if got[0].Title != "Best Applied AI" || !reflect.DeepEqual(got[0].Requirements, []string{"uses a model"}) {
		t.Errorf("update not persisted: %+v", got[0])
	}
	if got[0].ID != "c-ai" {
		t.Errorf("update changed insertion order: %+v", got)
	}
}

func TestInsertChallenge_DuplicateIsIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := model.Challenge{ID: "c1", Kind: "ai", Title: "first"}
	if _, err := s.InsertChallenge(ctx, first); err != nil {
		t.Fatalf("InsertChallenge() failed: %v", err)
	}

	inserted, err := s.InsertChallenge(ctx, model.Challenge{ID: "c1", Kind: "ai", Title: "second"})
	if err != nil {
		t.Fatalf("duplicate InsertChallenge() failed: %v", err)
	}
	if inserted {
		t.Error("duplicate insert should report false")
	}

	got, _ := s.ListChallenges(ctx)
	if len(got) != 1 || got[0].Title != "first" {
		t.Errorf("duplicate insert modified data: %+v", got)
	}
}

func TestUpdate_MissingRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if ok, err := s.UpdateChallenge(ctx, model.Challenge{ID: "nope", Kind: "ai", Title: "x"}); err != nil || ok {
		t.Errorf("UpdateChallenge(missing) = %v, %v", ok, err)
	}
	if ok, err := s.UpdateBounty(ctx, testBounty("nope", "acme")); err != nil || ok {
		t.Errorf("UpdateBounty(missing) = %v, %v", ok, err)
	}
	if ok, err := s.UpdateGoodie(ctx, model.Goodie{ID: "nope", Title: "x"}); err != nil || ok {
		t.Errorf("UpdateGoodie(missing) = %v, %v", ok, err)
	}
}

func TestBounties_RoundTripsClaimsAndStarter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := testBounty("b1", "acme")
	b.ClaimedBy = []string{"p1"}
	b.Status = model.BountyClaimed
	b.StarterProject = &model.StarterProject{Name: "kit", Repository: "https://example.com/kit"}

	if _, err := s.InsertBounty(ctx, b); err != nil {
		t.Fatalf("InsertBounty() failed: %v", err)
	}
	if _, err := s.InsertBounty(ctx, testBounty("b2", "other")); err != nil {
		t.Fatalf("InsertBounty() failed: %v", err)
	}

	got, err := s.ListBounties(ctx)
	if err != nil {
		t.Fatalf("ListBounties() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListBounties() returned %d rows", len(got))
	}
	if !reflect.DeepEqual(got[0], b) {
		t.Errorf("bounty round trip:\n got %+v\nwant %+v", got[0], b)
	}
	if got[1].StarterProject != nil || got[1].ClaimedBy != nil {
		t.Errorf("optional fields should stay empty: %+v", got[1])
	}
}

func TestBounties_DefaultStatusAndCapacity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := model.Bounty{ID: "b1", Title: "raw"}
	if _, err := s.InsertBounty(ctx, b); err != nil {
		t.Fatalf("InsertBounty() failed: %v", err)
	}

	got, _ := s.ListBounties(ctx)
	if got[0].Status != model.BountyOpen {
		t.Errorf("status = %q, want open", got[0].Status)
	}
	if got[0].MaxTeams != 1 {
		t.Errorf("maxTeams = %d, want 1", got[0].MaxTeams)
	}
}

func TestBounties_UpdateClearsClaims(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := testBounty("b1", "acme")
	b.ClaimedBy = []string{"p1", "p2"}
	if _, err := s.InsertBounty(ctx, b); err != nil {
		t.Fatalf("InsertBounty() failed: %v", err)
	}

	b.ClaimedBy = nil
	b.Status = model.BountyOpen
	if _, err := s.UpdateBounty(ctx, b); err != nil {
		t.Fatalf("UpdateBounty() failed: %v", err)
	}

	got, _ := s.ListBounties(ctx)
	if got[0].ClaimedBy != nil {
		t.Errorf("claims not cleared: %v", got[0].ClaimedBy)
	}
}

func TestGoodies_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	limited := model.Goodie{
		ID: "g1", Kind: "swag", Title: "Stickers", Details: "booth 3",
		Quantity: intPtr(200), SponsorID: "acme",
	}
	open := model.Goodie{ID: "g2", Kind: "credits", Title: "Cloud credits", ForEveryone: true}

	for _, g := range []model.Goodie{limited, open} {
		if _, err := s.InsertGoodie(ctx, g); err != nil {
			t.Fatalf("InsertGoodie(%s) failed: %v", g.ID, err)
		}
	}

	got, err := s.ListGoodies(ctx)
	if err != nil {
		t.Fatalf("ListGoodies() failed: %v", err)
	}
	if want := []model.Goodie{limited, open}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListGoodies() = %+v, want %+v", got, want)
	}

	limited.Quantity = nil
	if _, err := s.UpdateGoodie(ctx, limited); err != nil {
		t.Fatalf("UpdateGoodie() failed: %v", err)
	}
	got, _ = s.ListGoodies(ctx)
	if got[0].Quantity != nil {
		t.Errorf("quantity should be cleared, got %d", *got[0].Quantity)
	}
}

func TestRetainSponsorRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3"} {
		if _, err := s.InsertChallenge(ctx, model.Challenge{ID: id, Kind: "ai"}); err != nil {
			t.Fatalf("InsertChallenge(%s) failed: %v", id, err)
		}
	}

	n, err := s.RetainChallenges(ctx, []string{"c1", "c3"})
	if err != nil {
		t.Fatalf("RetainChallenges() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("RetainChallenges() deleted %d rows, want 1", n)
	}
	got, _ := s.ListChallenges(ctx)
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
		t.Errorf("remaining challenges = %+v, want c1 and c3", got)
	}

	n, err = s.RetainChallenges(ctx, nil)
	if err != nil {
		t.Fatalf("RetainChallenges(nil) failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RetainChallenges(nil) deleted %d rows, want 2", n)
	}

	if _, err := s.InsertGoodie(ctx, model.Goodie{ID: "g1"}); err != nil {
		t.Fatalf("InsertGoodie() failed: %v", err)
	}
	if n, err := s.RetainGoodies(ctx, []string{"g1"}); err != nil || n != 0 {
		t.Errorf("RetainGoodies(g1) = %d, %v; want 0, nil", n, err)
	}
	if n, err := s.RetainBounties(ctx, []string{"b-none"}); err != nil || n != 0 {
		t.Errorf("RetainBounties() on empty table = %d, %v; want 0, nil", n, err)
	}
}

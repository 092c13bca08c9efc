package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hacksync/internal/model"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(n int) *int { return &n }

func testBounty(id, sponsor string) model.Bounty {
	return model.Bounty{
		ID:           id,
		Title:        "Bounty " + id,
		Requirements: []string{"ship it"},
		Status:       model.BountyOpen,
		SponsorID:    sponsor,
		MaxTeams:     2,
	}
}

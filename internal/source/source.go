package source

import (
	"context"

	"github.com/roach88/hacksync/internal/model"
)

// Source is a medium that can hold a whole snapshot.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Available reports whether the source is configured. Unavailable
	// sources are skipped without being called.
	Available() bool

	// Load returns the stored snapshot, or nil when the medium is empty.
	Load(ctx context.Context) (*model.Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap model.Snapshot) error
}

// Sponsored holds the sponsor-managed collections.
type Sponsored struct {
	Challenges []model.Challenge
	Bounties   []model.Bounty
	Goodies    []model.Goodie
}

// Empty reports whether no collection has rows.
func (s Sponsored) Empty() bool {
	return len(s.Challenges) == 0 && len(s.Bounties) == 0 && len(s.Goodies) == 0
}

// SponsoredOf extracts the sponsor-managed collections from a snapshot.
func SponsoredOf(snap model.Snapshot) Sponsored {
	c := snap.Clone()
	return Sponsored{Challenges: c.Challenges, Bounties: c.Bounties, Goodies: c.Goodies}
}

// Overlay is the relational store for sponsor-managed collections.
type Overlay interface {
	Name() string
	Available() bool

	// Load lists all three collections.
	Load(ctx context.Context) (Sponsored, error)

	// Save makes the store hold exactly these collections, keyed by entity id.
	Save(ctx context.Context, s Sponsored) error
}

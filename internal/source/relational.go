package source

import (
	"context"
	"fmt"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/store"
)

// Relational is the sponsor-collection overlay backed by the store's
// challenges, bounties and goodies tables.
type Relational struct {
	db *store.Store
}

// NewRelational wraps db. A nil db yields an unconfigured overlay.
func NewRelational(db *store.Store) *Relational {
	return &Relational{db: db}
}

func (r *Relational) Name() string { return "relational" }

func (r *Relational) Available() bool { return r != nil && r.db != nil }

// Load lists the three sponsor collections.
func (r *Relational) Load(ctx context.Context) (Sponsored, error) {
	var (
		out Sponsored
		err error
	)
	if out.Challenges, err = r.db.ListChallenges(ctx); err != nil {
		return Sponsored{}, Unavailable(r.Name(), "list challenges", err)
	}
	if out.Bounties, err = r.db.ListBounties(ctx); err != nil {
		return Sponsored{}, Unavailable(r.Name(), "list bounties", err)
	}
	if out.Goodies, err = r.db.ListGoodies(ctx); err != nil {
		return Sponsored{}, Unavailable(r.Name(), "list goodies", err)
	}
	return out, nil
}

// Save makes the three tables hold exactly s: rows are updated by id,
// inserted when no row matched, and rows for entities missing from s are
// deleted.
func (r *Relational) Save(ctx context.Context, s Sponsored) error {
	for _, c := range s.Challenges {
		if err := upsert(ctx, c, r.db.UpdateChallenge, r.db.InsertChallenge); err != nil {
			return WriteFailed(r.Name(), fmt.Sprintf("challenge %s", c.ID), err)
		}
	}
	if _, err := r.db.RetainChallenges(ctx, ids(s.Challenges, func(c model.Challenge) string { return c.ID })); err != nil {
		return WriteFailed(r.Name(), "prune challenges", err)
	}
	for _, b := range s.Bounties {
		if err := upsert(ctx, b, r.db.UpdateBounty, r.db.InsertBounty); err != nil {
			return WriteFailed(r.Name(), fmt.Sprintf("bounty %s", b.ID), err)
		}
	}
	if _, err := r.db.RetainBounties(ctx, ids(s.Bounties, func(b model.Bounty) string { return b.ID })); err != nil {
		return WriteFailed(r.Name(), "prune bounties", err)
	}
	for _, g := range s.Goodies {
		if err := upsert(ctx, g, r.db.UpdateGoodie, r.db.InsertGoodie); err != nil {
			return WriteFailed(r.Name(), fmt.Sprintf("goodie %s", g.ID), err)
		}
	}
	if _, err := r.db.RetainGoodies(ctx, ids(s.Goodies, func(g model.Goodie) string { return g.ID })); err != nil {
		return WriteFailed(r.Name(), "prune goodies", err)
	}
	return nil
}

func ids[T any](rows []T, id func(T) string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = id(row)
	}
	return out
}

func upsert[T any](ctx context.Context, v T, update, insert func(context.Context, T) (bool, error)) error {
	ok, err := update(ctx, v)
	if err != nil || ok {
		return err
	}
	_, err = insert(ctx, v)
	return err
}

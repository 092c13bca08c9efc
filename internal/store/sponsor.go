package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/hacksync/internal/model"
)

// Sponsor collections are keyed by entity id. Insert is idempotent: a
// duplicate id leaves the existing row untouched and reports false.
// Update reports false when no row has the id.

// ListChallenges returns all challenges in insertion order.
// Returns an empty slice (not nil) when the table is empty.
func (s *Store) ListChallenges(ctx context.Context) ([]model.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, description, prizes, requirements, sponsor_id
		FROM challenges
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		var (
			c                    model.Challenge
			kind                 string
			prizes, requirements string
		)
		if err := rows.Scan(&c.ID, &kind, &c.Title, &c.Description, &prizes, &requirements, &c.SponsorID); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		c.Kind = model.ChallengeKind(kind)
		if c.Prizes, err = unmarshalList(prizes); err != nil {
			return nil, fmt.Errorf("challenge %s prizes: %w", c.ID, err)
		}
		if c.Requirements, err = unmarshalList(requirements); err != nil {
			return nil, fmt.Errorf("challenge %s requirements: %w", c.ID, err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	return challenges, nil
}

// InsertChallenge stores a new challenge row.
func (s *Store) InsertChallenge(ctx context.Context, c model.Challenge) (bool, error) {
	prizes, requirements, err := challengeLists(c)
	if err != nil {
		return false, fmt.Errorf("insert challenge: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (id, kind, title, description, prizes, requirements, sponsor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, string(c.Kind), c.Title, c.Description, prizes, requirements, c.SponsorID)
	if err != nil {
		return false, fmt.Errorf("insert challenge: %w", err)
	}
	return affected(res)
}

// UpdateChallenge overwrites the row with c.ID.
func (s *Store) UpdateChallenge(ctx context.Context, c model.Challenge) (bool, error) {
	prizes, requirements, err := challengeLists(c)
	if err != nil {
		return false, fmt.Errorf("update challenge: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET kind = ?, title = ?, description = ?, prizes = ?, requirements = ?, sponsor_id = ?
		WHERE id = ?
	`, string(c.Kind), c.Title, c.Description, prizes, requirements, c.SponsorID, c.ID)
	if err != nil {
		return false, fmt.Errorf("update challenge: %w", err)
	}
	return affected(res)
}

func challengeLists(c model.Challenge) (string, string, error) {
	prizes, err := marshalList(c.Prizes)
	if err != nil {
		return "", "", err
	}
	requirements, err := marshalList(c.Requirements)
	if err != nil {
		return "", "", err
	}
	return prizes, requirements, nil
}

// ListBounties returns all bounties in insertion order.
func (s *Store) ListBounties(ctx context.Context) ([]model.Bounty, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, requirements, prizes, status, sponsor_id, max_teams, claimed_by, starter_project
		FROM bounties
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query bounties: %w", err)
	}
	defer rows.Close()

	bounties := []model.Bounty{}
	for rows.Next() {
		var (
			b                               model.Bounty
			status                          string
			requirements, prizes, claimedBy string
			starter                         sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &requirements, &prizes, &status,
			&b.SponsorID, &b.MaxTeams, &claimedBy, &starter); err != nil {
			return nil, fmt.Errorf("scan bounty: %w", err)
		}
		b.Status = model.BountyStatus(status)
		if b.Requirements, err = unmarshalList(requirements); err != nil {
			return nil, fmt.Errorf("bounty %s requirements: %w", b.ID, err)
		}
		if b.Prizes, err = unmarshalList(prizes); err != nil {
			return nil, fmt.Errorf("bounty %s prizes: %w", b.ID, err)
		}
		if b.ClaimedBy, err = unmarshalList(claimedBy); err != nil {
			return nil, fmt.Errorf("bounty %s claimed_by: %w", b.ID, err)
		}
		if b.StarterProject, err = unmarshalOptional[model.StarterProject](starter); err != nil {
			return nil, fmt.Errorf("bounty %s starter_project: %w", b.ID, err)
		}
		bounties = append(bounties, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bounties: %w", err)
	}
	return bounties, nil
}

type bountyColumns struct {
	requirements, prizes, claimedBy string
	starter                         sql.NullString
	status                          string
}

func encodeBounty(b model.Bounty) (bountyColumns, error) {
	var (
		cols bountyColumns
		err  error
	)
	if cols.requirements, err = marshalList(b.Requirements); err != nil {
		return cols, err
	}
	if cols.prizes, err = marshalList(b.Prizes); err != nil {
		return cols, err
	}
	if cols.claimedBy, err = marshalList(b.ClaimedBy); err != nil {
		return cols, err
	}
	if cols.starter, err = marshalOptional(b.StarterProject); err != nil {
		return cols, err
	}
	cols.status = string(b.Status)
	if cols.status == "" {
		cols.status = string(model.BountyOpen)
	}
	return cols, nil
}

// InsertBounty stores a new bounty row.
func (s *Store) InsertBounty(ctx context.Context, b model.Bounty) (bool, error) {
	cols, err := encodeBounty(b)
	if err != nil {
		return false, fmt.Errorf("insert bounty: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bounties
		(id, title, description, requirements, prizes, status, sponsor_id, max_teams, claimed_by, starter_project)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, b.ID, b.Title, b.Description, cols.requirements, cols.prizes, cols.status,
		b.SponsorID, b.Capacity(), cols.claimedBy, cols.starter)
	if err != nil {
		return false, fmt.Errorf("insert bounty: %w", err)
	}
	return affected(res)
}

// UpdateBounty overwrites the row with b.ID.
func (s *Store) UpdateBounty(ctx context.Context, b model.Bounty) (bool, error) {
	cols, err := encodeBounty(b)
	if err != nil {
		return false, fmt.Errorf("update bounty: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE bounties
		SET title = ?, description = ?, requirements = ?, prizes = ?, status = ?,
			sponsor_id = ?, max_teams = ?, claimed_by = ?, starter_project = ?
		WHERE id = ?
	`, b.Title, b.Description, cols.requirements, cols.prizes, cols.status,
		b.SponsorID, b.Capacity(), cols.claimedBy, cols.starter, b.ID)
	if err != nil {
		return false, fmt.Errorf("update bounty: %w", err)
	}
	return affected(res)
}

// ListGoodies returns all goodies in insertion order.
func (s *Store) ListGoodies(ctx context.Context) ([]model.Goodie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, description, details, quantity, for_everyone, sponsor_id
		FROM goodies
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query goodies: %w", err)
	}
	defer rows.Close()

	goodies := []model.Goodie{}
	for rows.Next() {
		var (
			g           model.Goodie
			quantity    sql.NullInt64
			forEveryone int
		)
		if err := rows.Scan(&g.ID, &g.Kind, &g.Title, &g.Description, &g.Details,
			&quantity, &forEveryone, &g.SponsorID); err != nil {
			return nil, fmt.Errorf("scan goodie: %w", err)
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			g.Quantity = &q
		}
		g.ForEveryone = forEveryone != 0
		goodies = append(goodies, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goodies: %w", err)
	}
	return goodies, nil
}

func goodieQuantity(g model.Goodie) sql.NullInt64 {
	if g.Quantity == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*g.Quantity), Valid: true}
}

// InsertGoodie stores a new goodie row.
func (s *Store) InsertGoodie(ctx context.Context, g model.Goodie) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goodies (id, kind, title, description, details, quantity, for_everyone, sponsor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, g.ID, g.Kind, g.Title, g.Description, g.Details, goodieQuantity(g), boolToInt(g.ForEveryone), g.SponsorID)
	if err != nil {
		return false, fmt.Errorf("insert goodie: %w", err)
	}
	return affected(res)
}

// UpdateGoodie overwrites the row with g.ID.
func (s *Store) UpdateGoodie(ctx context.Context, g model.Goodie) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goodies
		SET kind = ?, title = ?, description = ?, details = ?, quantity = ?, for_everyone = ?, sponsor_id = ?
		WHERE id = ?
	`, g.Kind, g.Title, g.Description, g.Details, goodieQuantity(g), boolToInt(g.ForEveryone), g.SponsorID, g.ID)
	if err != nil {
		return false, fmt.Errorf("update goodie: %w", err)
	}
	return affected(res)
}

// RetainChallenges deletes every challenge whose id is not in ids and
// returns how many rows went.
func (s *Store) RetainChallenges(ctx context.Context, ids []string) (int64, error) {
	return s.retain(ctx, "challenges", ids)
}

// RetainBounties deletes every bounty whose id is not in ids.
func (s *Store) RetainBounties(ctx context.Context, ids []string) (int64, error) {
	return s.retain(ctx, "bounties", ids)
}

// RetainGoodies deletes every goodie whose id is not in ids.
func (s *Store) RetainGoodies(ctx context.Context, ids []string) (int64, error) {
	return s.retain(ctx, "goodies", ids)
}

// retain runs as one statement, so a table is never left half pruned.
// An empty ids empties the table.
func (s *Store) retain(ctx context.Context, table string, ids []string) (int64, error) {
	query := "DELETE FROM " + table
	args := make([]any, len(ids))
	if len(ids) > 0 {
		query += " WHERE id NOT IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")"
		for i, id := range ids {
			args[i] = id
		}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

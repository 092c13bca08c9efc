package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentID is the fixed key of the dataset row in the documents table.
const DocumentID = "hackathon"

// Document is one stored dataset body.
type Document struct {
	ID        string
	Body      []byte
	Revision  int64
	UpdatedAt time.Time
}

// LoadDocument returns the document stored under id.
// The bool result is false when no row exists; that is not an error.
func (s *Store) LoadDocument(ctx context.Context, id string) (Document, bool, error) {
	var (
		doc       Document
		body      string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, body, revision, updated_at
		FROM documents
		WHERE id = ?
	`, id).Scan(&doc.ID, &body, &doc.Revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("load document: %w", err)
	}

	doc.Body = []byte(body)
	if updatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return Document{}, false, fmt.Errorf("load document: parse updated_at: %w", err)
		}
		doc.UpdatedAt = t
	}
	return doc, true, nil
}

// SaveDocument writes body under id, replacing any previous body.
// Each save bumps the row's revision. Returns the new revision.
func (s *Store) SaveDocument(ctx context.Context, id string, body []byte, now time.Time) (int64, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, body, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision
	`, id, string(body), now.UTC().Format(time.RFC3339Nano)).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}
	return revision, nil
}

// DeleteDocument removes the document stored under id. Missing rows are ignored.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

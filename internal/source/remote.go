package source

import (
	"context"
	"time"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/store"
)

// Remote is the primary document store: one JSON row keyed by a fixed id.
type Remote struct {
	db    *store.Store
	docID string
	now   func() time.Time
}

// NewRemote wraps db. A nil db yields an unconfigured source.
func NewRemote(db *store.Store) *Remote {
	return &Remote{db: db, docID: store.DocumentID, now: time.Now}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Available() bool { return r != nil && r.db != nil }

// Load reads and validates the stored document.
func (r *Remote) Load(ctx context.Context) (*model.Snapshot, error) {
	doc, found, err := r.db.LoadDocument(ctx, r.docID)
	if err != nil {
		return nil, Unavailable(r.Name(), "load document", err)
	}
	if !found {
		return nil, nil
	}
	snap, err := codec.Decode(doc.Body)
	if err != nil {
		return nil, Unavailable(r.Name(), "decode document", err)
	}
	return &snap, nil
}

// Save encodes snap and replaces the stored document.
func (r *Remote) Save(ctx context.Context, snap model.Snapshot) error {
	data, err := codec.Encode(snap)
	if err != nil {
		return WriteFailed(r.Name(), "encode snapshot", err)
	}
	if _, err := r.db.SaveDocument(ctx, r.docID, data, r.now()); err != nil {
		return WriteFailed(r.Name(), "save document", err)
	}
	return nil
}

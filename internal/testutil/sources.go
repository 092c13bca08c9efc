package testutil

import (
	"context"
	"sync"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/source"
)

// MemorySource is an in-memory source.Source that counts calls.
//
// Unconfigured sources report Available() == false. LoadErr and SaveErr,
// when set, are returned instead of touching the stored snapshot.
type MemorySource struct {
	mu         sync.Mutex
	name       string
	configured bool
	snap       *model.Snapshot
	saved      []model.Snapshot

	LoadErr error
	SaveErr error
	Loads   int
	Saves   int

	// Block, when non-nil, is waited on by Load until it closes or the
	// context ends.
	Block chan struct{}
}

// NewMemorySource returns a configured, empty source.
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{name: name, configured: true}
}

// Unconfigured returns a source that is never available.
func Unconfigured(name string) *MemorySource {
	return &MemorySource{name: name}
}

// WithSnapshot stores snap and returns the source.
func (m *MemorySource) WithSnapshot(snap model.Snapshot) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := snap.Clone()
	m.snap = &c
	return m
}

func (m *MemorySource) Name() string { return m.name }

func (m *MemorySource) Available() bool { return m.configured }

func (m *MemorySource) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	m.Loads++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, source.Unavailable(m.name, "load", ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, source.Unavailable(m.name, "load", m.LoadErr)
	}
	if m.snap == nil {
		return nil, nil
	}
	c := m.snap.Clone()
	return &c, nil
}

func (m *MemorySource) Save(_ context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return source.WriteFailed(m.name, "save", m.SaveErr)
	}
	c := snap.Clone()
	m.snap = &c
	m.saved = append(m.saved, c)
	return nil
}

// Stored returns the current snapshot, or nil.
func (m *MemorySource) Stored() *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil
	}
	c := m.snap.Clone()
	return &c
}

// SaveCount returns the number of Save calls so far.
func (m *MemorySource) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saves
}

// LoadCount returns the number of Load calls so far.
func (m *MemorySource) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Loads
}

// Saved returns every snapshot passed to a successful Save, in order.
func (m *MemorySource) Saved() []model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Snapshot(nil), m.saved...)
}

// MemoryOverlay is an in-memory source.Overlay.
type MemoryOverlay struct {
	mu    sync.Mutex
	rows  source.Sponsored
	Err   error
	Loads int
	Saves int
}

// NewMemoryOverlay returns an overlay holding rows.
func NewMemoryOverlay(rows source.Sponsored) *MemoryOverlay {
	return &MemoryOverlay{rows: rows}
}

func (o *MemoryOverlay) Name() string { return "overlay" }

func (o *MemoryOverlay) Available() bool { return true }

func (o *MemoryOverlay) Load(context.Context) (source.Sponsored, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Loads++
	if o.Err != nil {
		return source.Sponsored{}, source.Unavailable("overlay", "load", o.Err)
	}
	return o.rows, nil
}

func (o *MemoryOverlay) Save(_ context.Context, s source.Sponsored) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Saves++
	if o.Err != nil {
		return source.WriteFailed("overlay", "save", o.Err)
	}
	o.rows = s
	return nil
}

// Rows returns the stored rows.
func (o *MemoryOverlay) Rows() source.Sponsored {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rows
}

// SaveCount returns the number of Save calls so far.
func (o *MemoryOverlay) SaveCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Saves
}

// MemoryMarker is an in-memory migration marker.
type MemoryMarker struct {
	mu   sync.Mutex
	done bool
}

func (m *MemoryMarker) MigrationDone(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done, nil
}

func (m *MemoryMarker) MarkMigrationDone(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	return nil
}

// Done reports whether the marker is set.
func (m *MemoryMarker) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

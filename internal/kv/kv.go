// Package kv is the local durable cache: a handful of string slots under
// fixed keys, kept apart so the dataset snapshot and the session record never
// interleave.
package kv

import (
	"context"
	"strconv"
	"sync"
)

// Fixed slot keys.
const (
	KeySnapshot      = "hacksync.snapshot"
	KeySession       = "hacksync.session"
	KeyMigrationDone = "hacksync.migration_done"
	KeyAnimation     = "hacksync.animation"
)

// Backend is a string key/value medium. *store.Store implements it.
type Backend interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}

// Cache exposes the fixed slots over a Backend.
type Cache struct {
	b         Backend
	animation bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithAnimationDefault sets the preference reported while the slot is unset.
func WithAnimationDefault(on bool) Option {
	return func(c *Cache) { c.animation = on }
}

// New wraps a backend.
func New(b Backend, opts ...Option) *Cache {
	c := &Cache{b: b, animation: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached dataset export, if any.
func (c *Cache) Snapshot(ctx context.Context) ([]byte, bool, error) {
	return c.bytes(ctx, KeySnapshot)
}

// SaveSnapshot replaces the cached dataset export.
func (c *Cache) SaveSnapshot(ctx context.Context, data []byte) error {
	return c.b.PutValue(ctx, KeySnapshot, string(data))
}

// Session returns the stored session record, if any.
func (c *Cache) Session(ctx context.Context) ([]byte, bool, error) {
	return c.bytes(ctx, KeySession)
}

// SaveSession replaces the stored session record.
func (c *Cache) SaveSession(ctx context.Context, data []byte) error {
	return c.b.PutValue(ctx, KeySession, string(data))
}

// ClearSession removes the session record.
func (c *Cache) ClearSession(ctx context.Context) error {
	return c.b.DeleteValue(ctx, KeySession)
}

// MigrationDone reports whether the seed migration has ever completed.
func (c *Cache) MigrationDone(ctx context.Context) (bool, error) {
	v, ok, err := c.b.GetValue(ctx, KeyMigrationDone)
	if err != nil || !ok {
		return false, err
	}
	done, _ := strconv.ParseBool(v)
	return done, nil
}

// MarkMigrationDone sets the permanent migration marker.
func (c *Cache) MarkMigrationDone(ctx context.Context) error {
	return c.b.PutValue(ctx, KeyMigrationDone, "true")
}

// Animation returns the animation preference, falling back to the default
// (true unless overridden) when unset or unreadable.
func (c *Cache) Animation(ctx context.Context) (bool, error) {
	v, ok, err := c.b.GetValue(ctx, KeyAnimation)
	if err != nil {
		return c.animation, err
	}
	if !ok {
		return c.animation, nil
	}
	on, perr := strconv.ParseBool(v)
	if perr != nil {
		return c.animation, nil
	}
	return on, nil
}

// SetAnimation stores the animation preference.
func (c *Cache) SetAnimation(ctx context.Context, on bool) error {
	return c.b.PutValue(ctx, KeyAnimation, strconv.FormatBool(on))
}

func (c *Cache) bytes(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.b.GetValue(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Memory is an in-process Backend.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) GetValue(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) PutValue(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) DeleteValue(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

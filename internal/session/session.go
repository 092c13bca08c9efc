// Package session keeps the current actor, separate from the dataset.
//
// The record {currentActor, timestamp} lives in its own local slot and
// expires after a fixed TTL. It is never part of a snapshot, so identity
// survives even when hydration is pending or fails.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/hacksync/internal/model"
)

// DefaultTTL is how long a stored record stays valid.
const DefaultTTL = 24 * time.Hour

// ErrInvalidActor is returned by Login for actors without a known kind or
// contact address.
var ErrInvalidActor = errors.New("invalid actor")

// ErrNoActor is returned by UpdateProfile when nobody is logged in.
var ErrNoActor = errors.New("no current actor")

// Record is the stored session.
type Record struct {
	CurrentActor *model.Actor `json:"currentActor"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Slot is the durable home of the record. *kv.Cache implements it.
type Slot interface {
	Session(ctx context.Context) ([]byte, bool, error)
	SaveSession(ctx context.Context, data []byte) error
	ClearSession(ctx context.Context) error
}

// Manager owns the current actor.
type Manager struct {
	slot   Slot
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	current *model.Actor
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the record lifetime. Default: DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		m.ttl = d
	}
}

// WithClock sets the time source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a Manager over slot. Nothing is read until Restore.
func New(slot Slot, opts ...Option) *Manager {
	m := &Manager{
		slot:   slot,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns a copy of the current actor, or nil.
func (m *Manager) Current() *model.Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneActor(m.current)
}

// Login stores the record and makes actor current. A failed write leaves
// the current actor unchanged.
func (m *Manager) Login(ctx context.Context, actor model.Actor) error {
	if !actor.Kind.Valid() || strings.TrimSpace(actor.Email) == "" {
		return fmt.Errorf("login: %w: kind=%q email=%q", ErrInvalidActor, actor.Kind, actor.Email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := cloneActor(&actor)
	if err := m.persist(ctx, next); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	m.current = next
	m.logger.Info("logged in", "kind", actor.Kind, "email", actor.Email)
	return nil
}

// Logout empties the current slot and removes the stored record.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	if err := m.slot.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Clear removes the stored record but leaves the current actor in place
// for the rest of the process.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.slot.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Restore loads the stored record. Missing, unreadable or expired records
// count as absent; expired and unreadable ones are also removed.
func (m *Manager) Restore(ctx context.Context) (*model.Actor, bool) {
	actor, ok := m.valid(ctx)
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	m.current = actor
	m.mu.Unlock()
	return cloneActor(actor), true
}

// UpdateProfile replaces the current actor's profile and rewrites the
// record, which also renews its timestamp.
func (m *Manager) UpdateProfile(ctx context.Context, profile model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("update profile: %w", ErrNoActor)
	}
	next := cloneActor(m.current)
	next.Profile = profile.Clone()
	if err := m.persist(ctx, next); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	m.current = next
	return nil
}

// Reassert restores the stored actor when the current slot is empty but a
// valid record exists. Returns true if it filled the slot.
func (m *Manager) Reassert(ctx context.Context) bool {
	m.mu.RLock()
	filled := m.current != nil
	m.mu.RUnlock()
	if filled {
		return false
	}

	actor, ok := m.valid(ctx)
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return false
	}
	m.current = actor
	m.logger.Debug("current actor reasserted", "email", actor.Email)
	return true
}

// Watch calls Reassert every interval until ctx ends.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reassert(ctx)
		}
	}
}

// valid reads the stored record and returns its actor if unexpired.
func (m *Manager) valid(ctx context.Context) (*model.Actor, bool) {
	data, ok, err := m.slot.Session(ctx)
	if err != nil {
		m.logger.Warn("session unreadable", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.CurrentActor == nil {
		m.logger.Warn("discarding malformed session record", "error", err)
		m.discard(ctx)
		return nil, false
	}
	if age := m.now().Sub(rec.Timestamp); age > m.ttl {
		m.logger.Info("session expired", "age", age.Round(time.Second))
		m.discard(ctx)
		return nil, false
	}
	return rec.CurrentActor, true
}

func (m *Manager) discard(ctx context.Context) {
	if err := m.slot.ClearSession(ctx); err != nil {
		m.logger.Warn("session not cleared", "error", err)
	}
}

// persist writes the record for m.current. Caller holds m.mu.
func (m *Manager) persist(ctx context.Context, actor *model.Actor) error {
	data, err := json.Marshal(Record{CurrentActor: actor, Timestamp: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.slot.SaveSession(ctx, data)
}

func cloneActor(a *model.Actor) *model.Actor {
	if a == nil {
		return nil
	}
	out := *a
	out.Profile = a.Profile.Clone()
	return &out
}

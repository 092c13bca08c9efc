package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/kv"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/testutil"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func organizer() model.Actor {
	return model.Actor{Kind: model.ActorOrganizer, Name: "Olive", Email: "olive@x.com"}
}

func newManager(t *testing.T) (*Manager, *kv.Cache, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(epoch)
	cache := kv.New(kv.NewMemory())
	m := New(cache,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return m, cache, clock
}

func TestLogin_StoresRecord(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)

	require.NoError(t, m.Login(ctx, organizer()))
	assert.Equal(t, "olive@x.com", m.Current().Email)

	data, ok, err := cache.Session(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "olive@x.com", rec.CurrentActor.Email)
	assert.True(t, rec.Timestamp.Equal(epoch))
}

func TestLogin_RejectsInvalidActor(t *testing.T) {
	m, _, _ := newManager(t)

	err := m.Login(context.Background(), model.Actor{Kind: "judge", Email: "x@x.com"})
	assert.ErrorIs(t, err, ErrInvalidActor)

	err = m.Login(context.Background(), model.Actor{Kind: model.ActorSponsor, Email: "  "})
	assert.ErrorIs(t, err, ErrInvalidActor)
	assert.Nil(t, m.Current())
}

// failingSlot rejects every write.
type failingSlot struct{ *kv.Cache }

func (failingSlot) SaveSession(context.Context, []byte) error { return errors.New("disk full") }

func TestLogin_FailedWriteLeavesActorUnset(t *testing.T) {
	ctx := context.Background()
	m := New(failingSlot{kv.New(kv.NewMemory())},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	err := m.Login(ctx, organizer())
	require.ErrorContains(t, err, "disk full")
	assert.Nil(t, m.Current())
}

func TestUpdateProfile_FailedWriteKeepsProfile(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	m.slot = failingSlot{cache}
	err := m.UpdateProfile(ctx, model.Profile{Bio: "new"})
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, m.Current().Profile.Bio)
}

func TestRestore_WithinTTL(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	clock.Advance(23 * time.Hour)
	fresh := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	actor, ok := fresh.Restore(ctx)

	require.True(t, ok)
	assert.Equal(t, "olive@x.com", actor.Email)
	assert.Equal(t, "olive@x.com", fresh.Current().Email)
}

func TestRestore_ExpiredIsDiscarded(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	clock.Advance(DefaultTTL + time.Minute)
	fresh := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	_, ok := fresh.Restore(ctx)

	assert.False(t, ok)
	assert.Nil(t, fresh.Current())
	_, stored, _ := cache.Session(ctx)
	assert.False(t, stored, "expired record is removed")
}

func TestRestore_MalformedIsDiscarded(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)
	require.NoError(t, cache.SaveSession(ctx, []byte(`{"currentActor":`)))

	_, ok := m.Restore(ctx)
	assert.False(t, ok)
	_, stored, _ := cache.Session(ctx)
	assert.False(t, stored)
}

func TestRestore_Absent(t *testing.T) {
	m, _, _ := newManager(t)
	_, ok := m.Restore(context.Background())
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	require.NoError(t, m.Logout(ctx))
	assert.Nil(t, m.Current())
	_, stored, _ := cache.Session(ctx)
	assert.False(t, stored)
	assert.False(t, m.Reassert(ctx), "nothing to reassert after logout")
}

func TestClear_KeepsCurrentActor(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	require.NoError(t, m.Clear(ctx))
	assert.NotNil(t, m.Current())
	_, stored, _ := cache.Session(ctx)
	assert.False(t, stored)
}

func TestUpdateProfile_PersistsAndRenews(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	clock.Advance(20 * time.Hour)
	require.NoError(t, m.UpdateProfile(ctx, model.Profile{Location: "Lisbon", Skills: []string{"go"}}))
	assert.Equal(t, "Lisbon", m.Current().Profile.Location)

	clock.Advance(20 * time.Hour)
	fresh := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	actor, ok := fresh.Restore(ctx)
	require.True(t, ok, "profile update renewed the record")
	assert.Equal(t, []string{"go"}, actor.Profile.Skills)
}

func TestUpdateProfile_RequiresActor(t *testing.T) {
	m, _, _ := newManager(t)
	err := m.UpdateProfile(context.Background(), model.Profile{Bio: "hi"})
	assert.ErrorIs(t, err, ErrNoActor)
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)
	a := organizer()
	a.Profile = &model.Profile{Bio: "original"}
	require.NoError(t, m.Login(ctx, a))

	m.Current().Profile.Bio = "changed"
	assert.Equal(t, "original", m.Current().Profile.Bio)
}

func TestReassert_FillsEmptySlot(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	// A second manager over the same record starts with an empty slot.
	other := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	assert.True(t, other.Reassert(ctx))
	assert.Equal(t, "olive@x.com", other.Current().Email)
	assert.False(t, other.Reassert(ctx), "slot already filled")
}

func TestReassert_RespectsTTL(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	clock.Advance(25 * time.Hour)
	other := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	assert.False(t, other.Reassert(ctx))
	assert.Nil(t, other.Current())
}

func TestWatch_ReassertsUntilCancelled(t *testing.T) {
	ctx := context.Background()
	m, cache, clock := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))

	other := New(cache, WithClock(clock.Now), WithLogger(m.logger))
	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		other.Watch(wctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return other.Current() != nil }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSessionNeverTouchesSnapshotSlot(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newManager(t)
	require.NoError(t, m.Login(ctx, organizer()))
	require.NoError(t, m.Logout(ctx))

	_, ok, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

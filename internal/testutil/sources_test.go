package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/source"
)

func TestMemorySource_CountsAndCopies(t *testing.T) {
	ctx := context.Background()
	snap := model.NewSnapshot()
	snap.Attendees = []model.Person{{Email: "a@x.com"}}

	m := NewMemorySource("remote").WithSnapshot(snap)
	got, err := m.Load(ctx)
	require.NoError(t, err)
	got.Attendees[0].Email = "changed"

	again, _ := m.Load(ctx)
	assert.Equal(t, "a@x.com", again.Attendees[0].Email)
	assert.Equal(t, 2, m.LoadCount())

	require.NoError(t, m.Save(ctx, model.NewSnapshot()))
	assert.Equal(t, 1, m.SaveCount())
	assert.Len(t, m.Saved(), 1)
}

func TestMemorySource_Errors(t *testing.T) {
	m := NewMemorySource("remote")
	m.LoadErr = errors.New("down")
	m.SaveErr = errors.New("full")

	_, err := m.Load(context.Background())
	assert.True(t, source.IsSourceUnavailable(err))
	assert.True(t, source.IsWriteFailed(m.Save(context.Background(), model.NewSnapshot())))
	assert.False(t, Unconfigured("x").Available())
}

func TestMemorySource_BlockHonoursContext(t *testing.T) {
	m := NewMemorySource("remote")
	m.Block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Load(ctx)
	assert.True(t, source.IsSourceUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryMarker(t *testing.T) {
	var m MemoryMarker
	done, _ := m.MigrationDone(context.Background())
	assert.False(t, done)
	require.NoError(t, m.MarkMigrationDone(context.Background()))
	assert.True(t, m.Done())
}

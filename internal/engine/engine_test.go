package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hacksync/internal/hydrate"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/state"
	"github.com/roach88/hacksync/internal/testutil"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink collects offered snapshots.
type recordingSink struct {
	mu    sync.Mutex
	snaps []model.Snapshot
}

func (s *recordingSink) Offer(snap model.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

// startEngine runs e in the background and stops it at cleanup.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	select {
	case <-e.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("engine never became ready")
	}
}

func newEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	store := state.New(state.WithLogger(quiet()), state.WithIDGenerator(state.NewFixedGenerator("gen-1", "gen-2")))
	return New(store, append([]EngineOption{WithLogger(quiet())}, opts...)...)
}

func person(email string) model.Person {
	return model.Person{Email: email, FirstName: email}
}

func TestEngine_New(t *testing.T) {
	e := newEngine(t)

	assert.NotNil(t, e.clock)
	assert.NotNil(t, e.queue)
	assert.Equal(t, int64(0), e.Revision())
	assert.True(t, e.Snapshot().Empty())
}

func TestEngine_SubmitAppliesAndStampsRevision(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, WithSink(sink))
	startEngine(t, e)
	ctx := context.Background()

	res, err := e.Submit(ctx, state.Add(person("a@x.com")))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(1), res.Revision)
	assert.Len(t, res.Snapshot.Attendees, 1)

	res, err = e.Submit(ctx, state.Add(model.Project{Name: "Rocket", Members: []string{"a@x.com"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Revision)

	p, _ := res.Snapshot.Person("a@x.com")
	assert.Equal(t, "gen-1", p.ProjectID, "reconciler ran inside the loop")

	assert.Equal(t, 2, sink.count())
	assert.Equal(t, int64(2), e.Revision())
	assert.Len(t, e.Snapshot().Projects, 1)
}

func TestEngine_NoOpDoesNotAdvance(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, WithSink(sink))
	startEngine(t, e)

	res, err := e.Submit(context.Background(), state.Remove(state.KindProject, "missing"))
	require.NoError(t, err)
	assert.False(t, res.Changed, "unknown id reports failure")
	assert.Equal(t, int64(0), res.Revision)
	assert.Equal(t, 0, sink.count())
}

func TestEngine_HydratesBeforeIntents(t *testing.T) {
	snap := model.NewSnapshot()
	snap.Attendees = []model.Person{person("cached@x.com")}
	cache := testutil.NewMemorySource("cache").WithSnapshot(snap)
	cache.Block = make(chan struct{})

	pipeline := hydrate.New(hydrate.WithCache(cache), hydrate.WithLogger(quiet()))
	e := newEngine(t, WithHydrator(pipeline))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	// Submitted while hydration is blocked.
	resc := make(chan Result, 1)
	go func() {
		res, _ := e.Submit(ctx, state.Add(person("new@x.com")))
		resc <- res
	}()

	require.Eventually(t, func() bool { return e.queue.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, pipeline.Hydrated())

	close(cache.Block)
	res := <-resc

	// Hydration replaced the dataset first, then the add landed on top.
	require.Len(t, res.Snapshot.Attendees, 2)
	assert.Equal(t, "cached@x.com", res.Snapshot.Attendees[0].Email)
	assert.Equal(t, "cache", e.Hydration().Source)
}

func TestEngine_ConcurrentSubmitters(t *testing.T) {
	e := newEngine(t)
	startEngine(t, e)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	revs := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Submit(ctx, state.Add(person(string(rune('a'+i%26))+"@"+string(rune('a'+i/26))+".com")))
			if err == nil && res.Changed {
				revs <- res.Revision
			}
		}(i)
	}
	wg.Wait()
	close(revs)

	seen := map[int64]bool{}
	for r := range revs {
		assert.False(t, seen[r], "revision %d issued twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, e.Snapshot().Attendees, n)
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	e := newEngine(t)
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.True(t, e.Enqueue(state.Add(person(email))))
	}
	e.Stop()

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, e.Snapshot().Attendees, 3)
	assert.False(t, e.Enqueue(state.Add(person("d@x.com"))))

	_, err := e.Submit(context.Background(), state.Add(person("d@x.com")))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	<-e.Ready()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEngine_SubmitHonoursContext(t *testing.T) {
	e := newEngine(t) // never started
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Submit(ctx, state.Add(person("a@x.com")))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_NewClockAtContinuesNumbering(t *testing.T) {
	e := newEngine(t, WithClock(NewClockAt(41)))
	startEngine(t, e)

	res, err := e.Submit(context.Background(), state.Add(person("a@x.com")))
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Revision)
}

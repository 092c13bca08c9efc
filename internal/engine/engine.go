package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/hacksync/internal/hydrate"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/state"
)

// Hydrator populates the store before the loop takes intents.
// Implemented by *hydrate.Pipeline.
type Hydrator interface {
	Run(ctx context.Context, target hydrate.Target) hydrate.Result
}

// Sink receives every changed snapshot. Implemented by *persist.Writer.
type Sink interface {
	Offer(snap model.Snapshot) bool
}

// Result is the outcome of one intent.
type Result struct {
	// Snapshot is the dataset after the intent.
	Snapshot model.Snapshot

	// Changed is false when the intent was a no-op or was rejected. This is
	// the only failure signal callers get.
	Changed bool

	// Revision is the clock value after the intent.
	Revision int64
}

// Engine is the single-writer mutation loop.
//
// CRITICAL: All mutations happen in the single-writer Run loop goroutine.
// External callers use Submit() or Enqueue().
//
// Thread-safety model:
//   - Submit(), Enqueue(), Snapshot(), Revision(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	store    *state.Store
	clock    *Clock
	queue    *eventQueue
	hydrator Hydrator
	sink     Sink
	logger   *slog.Logger

	latest    atomic.Pointer[model.Snapshot]
	ready     chan struct{}
	done      chan struct{}
	hydration hydrate.Result
	stopOnce  sync.Once
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithHydrator runs h at the start of Run.
func WithHydrator(h Hydrator) EngineOption {
	return func(e *Engine) {
		e.hydrator = h
	}
}

// WithSink offers every changed snapshot to s.
func WithSink(s Sink) EngineOption {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithClock sets the revision clock. Default: NewClock().
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over s.
func New(s *state.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  s,
		clock:  NewClock(),
		queue:  newEventQueue(),
		logger: slog.Default(),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	snap := s.Snapshot()
	e.latest.Store(&snap)
	return e
}

// Enqueue submits an intent without waiting for the outcome.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(in state.Intent) bool {
	return e.queue.Enqueue(Event{Intent: in})
}

// Submit applies in and waits for the outcome.
func (e *Engine) Submit(ctx context.Context, in state.Intent) (Result, error) {
	reply := make(chan Result, 1)
	if !e.queue.Enqueue(Event{Intent: in, Reply: reply}) {
		return Result{}, fmt.Errorf("submit %s: %w", in, ErrStopped)
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		// Run may have answered just before exiting.
		select {
		case res := <-reply:
			return res, nil
		default:
			return Result{}, fmt.Errorf("submit %s: %w", in, ErrStopped)
		}
	}
}

// Snapshot returns a copy of the latest dataset.
func (e *Engine) Snapshot() model.Snapshot {
	return e.latest.Load().Clone()
}

// Revision returns the latest revision.
func (e *Engine) Revision() int64 {
	return e.clock.Current()
}

// Ready is closed once hydration has finished.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Hydration returns what hydration did. Valid after Ready is closed.
func (e *Engine) Hydration() hydrate.Result {
	<-e.ready
	return e.hydration
}

// Run hydrates the store, then applies queued intents until ctx is
// cancelled or Stop is called. Intents already queued when Stop is called
// are still applied.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.logger.Info("engine starting")
	if e.hydrator != nil {
		e.hydration = e.hydrator.Run(ctx, e.store)
	}
	snap := e.store.Snapshot()
	e.latest.Store(&snap)
	close(e.ready)

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			e.processEvent(event)
			continue
		}

		// No event ready - wait for signal or context cancellation
		select {
		case <-ctx.Done():
			e.queue.Close()
			dropped := e.queue.Drain()
			e.logger.Info("engine stopping: context cancelled", "dropped", len(dropped))
			for _, ev := range dropped {
				e.logger.Warn("intent dropped", "intent", ev.Intent.String())
			}
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed, so this
			// fires immediately once stopped.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after applying what is queued.
func (e *Engine) Stop() {
	e.stopOnce.Do(e.queue.Close)
}

// processEvent applies one intent.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) processEvent(event Event) {
	snap, changed := e.store.Apply(event.Intent)

	rev := e.clock.Current()
	if changed {
		rev = e.clock.Next()
		e.latest.Store(&snap)
		if e.sink != nil {
			e.sink.Offer(snap)
		}
		e.logger.Debug("intent applied",
			"intent", event.Intent.String(),
			"revision", rev,
		)
	} else {
		e.logger.Debug("intent had no effect",
			"intent", event.Intent.String(),
			"revision", rev,
		)
	}

	if event.Reply != nil {
		event.Reply <- Result{Snapshot: snap, Changed: changed, Revision: rev}
	}
}

// Package persist mirrors store snapshots to durable media.
//
// Offers are debounced through one timer slot: each Offer replaces the
// pending snapshot and restarts the delay, and only the timer firing writes.
// A burst of offers inside the delay produces one write of the last
// snapshot. Offers made before the hydrated gate opens are dropped.
//
// Writes are best-effort. Failures are logged and discarded.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/source"
)

// DefaultDelay is the debounce window.
const DefaultDelay = 500 * time.Millisecond

// Writer is the debounced snapshot writer.
type Writer struct {
	delay   time.Duration
	remote  source.Source
	cache   source.Source
	overlay source.Overlay
	gate    func() bool
	logger  *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending *model.Snapshot
	closed  bool

	// writeMu serialises writes so a slow write finishes before the next
	// one starts.
	writeMu sync.Mutex
}

// Option configures a Writer.
type Option func(*Writer)

// WithDelay sets the debounce window. Default: DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(w *Writer) {
		w.delay = d
	}
}

// WithRemote sets the preferred destination.
func WithRemote(s source.Source) Option {
	return func(w *Writer) {
		w.remote = s
	}
}

// WithCache sets the destination used when remote is unconfigured.
func WithCache(s source.Source) Option {
	return func(w *Writer) {
		w.cache = s
	}
}

// WithOverlay also mirrors sponsor collections after each write.
func WithOverlay(o source.Overlay) Option {
	return func(w *Writer) {
		w.overlay = o
	}
}

// WithGate sets the hydrated check. Offers are dropped while it returns
// false. Default: always open.
func WithGate(gate func() bool) Option {
	return func(w *Writer) {
		w.gate = gate
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = l
	}
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{
		delay:  DefaultDelay,
		gate:   func() bool { return true },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Offer schedules snap for writing and reports whether it was accepted.
func (w *Writer) Offer(snap model.Snapshot) bool {
	if !w.gate() {
		w.logger.Debug("write skipped, not hydrated")
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}

	c := snap.Clone()
	w.pending = &c
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
	}
	gen := w.gen
	w.timer = time.AfterFunc(w.delay, func() { w.fire(gen) })
	return true
}

// Pending reports whether a snapshot is waiting for the timer.
func (w *Writer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != nil
}

// fire writes the pending snapshot unless a later Offer superseded this
// timer.
func (w *Writer) fire(gen uint64) {
	snap, ok := w.take(gen)
	if !ok {
		return
	}
	_ = w.write(context.Background(), snap)
}

func (w *Writer) take(gen uint64) (model.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || w.pending == nil {
		return model.Snapshot{}, false
	}
	snap := *w.pending
	w.pending = nil
	w.timer = nil
	return snap, true
}

// Flush writes the pending snapshot now, if there is one, and returns the
// write error. Unlike timer writes the error is returned to the caller
// as well as logged.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()

	if pending == nil {
		// Wait out any write already in flight.
		w.writeMu.Lock()
		w.writeMu.Unlock()
		return nil
	}
	return w.write(ctx, *pending)
}

// Close flushes and stops accepting offers.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return err
}

// Destination returns the source writes go to, or nil if none is
// configured.
func (w *Writer) Destination() source.Source {
	if w.remote != nil && w.remote.Available() {
		return w.remote
	}
	if w.cache != nil && w.cache.Available() {
		return w.cache
	}
	return nil
}

func (w *Writer) write(ctx context.Context, snap model.Snapshot) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	dst := w.Destination()
	if dst == nil {
		return nil
	}

	err := dst.Save(ctx, snap)
	if err != nil {
		w.logger.Warn("snapshot write failed", "source", dst.Name(), "error", err)
	} else {
		w.logger.Debug("snapshot written", "source", dst.Name())
	}

	if w.overlay != nil && w.overlay.Available() {
		if oerr := w.overlay.Save(ctx, source.SponsoredOf(snap)); oerr != nil {
			w.logger.Warn("overlay write failed", "source", w.overlay.Name(), "error", oerr)
			if err == nil {
				err = oerr
			}
		}
	}
	return err
}

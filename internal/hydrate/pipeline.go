package hydrate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/source"
	"github.com/roach88/hacksync/internal/state"
)

// Target is the store being hydrated.
type Target interface {
	Apply(in state.Intent) (model.Snapshot, bool)
	Snapshot() model.Snapshot
}

// Marker records that the seed migration has run.
type Marker interface {
	MigrationDone(ctx context.Context) (bool, error)
	MarkMigrationDone(ctx context.Context) error
}

// Result describes what a Run did.
type Result struct {
	// Source names the chain source adopted, or "" if none had data.
	Source string

	// Seeded is true when the seed migration ran.
	Seeded bool

	// Overlaid is true when the overlay replaced at least one collection.
	Overlaid bool

	// Retried is true when the empty-attendee safety net ran.
	Retried bool
}

// Pipeline runs the hydration chain.
type Pipeline struct {
	remote  source.Source
	cache   source.Source
	seed    source.Source
	overlay source.Overlay
	marker  Marker
	timeout time.Duration
	logger  *slog.Logger

	hydrated atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithRemote(s source.Source) Option   { return func(p *Pipeline) { p.remote = s } }
func WithCache(s source.Source) Option    { return func(p *Pipeline) { p.cache = s } }
func WithSeed(s source.Source) Option     { return func(p *Pipeline) { p.seed = s } }
func WithOverlay(o source.Overlay) Option { return func(p *Pipeline) { p.overlay = o } }
func WithMarker(m Marker) Option          { return func(p *Pipeline) { p.marker = m } }

// WithSourceTimeout bounds each individual source call. Zero (the default)
// leaves calls bounded only by the caller's context.
func WithSourceTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a pipeline. Sources left unset are skipped.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hydrated reports whether Run has completed.
func (p *Pipeline) Hydrated() bool {
	return p.hydrated.Load()
}

// Run hydrates target. It never fails: unavailable sources are logged and
// skipped. Sources are consulted strictly in order.
func (p *Pipeline) Run(ctx context.Context, target Target) Result {
	var res Result

	switch {
	case p.adopt(ctx, target, p.remote):
		res.Source = p.remote.Name()
	case p.adopt(ctx, target, p.cache):
		res.Source = p.cache.Name()
	case p.migrate(ctx, target):
		res.Source = p.seed.Name()
		res.Seeded = true
	}
	res.Overlaid = p.applyOverlay(ctx, target)

	p.hydrated.Store(true)

	if len(target.Snapshot().Attendees) == 0 {
		res.Retried = true
		switch {
		case p.adopt(ctx, target, p.cache):
			res.Source = p.cache.Name()
		case p.migrate(ctx, target):
			res.Source = p.seed.Name()
			res.Seeded = true
		}
		if p.applyOverlay(ctx, target) {
			res.Overlaid = true
		}
	}

	p.logger.Info("hydration complete",
		"source", res.Source,
		"seeded", res.Seeded,
		"overlaid", res.Overlaid,
		"retried", res.Retried,
	)
	return res
}

// load calls src.Load under the per-source timeout.
func (p *Pipeline) load(ctx context.Context, src source.Source) (*model.Snapshot, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()
	return src.Load(ctx)
}

func (p *Pipeline) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

// adopt loads src and, if it has data, replaces the whole dataset with it.
func (p *Pipeline) adopt(ctx context.Context, target Target, src source.Source) bool {
	if src == nil || !src.Available() {
		return false
	}
	snap, err := p.load(ctx, src)
	if err != nil {
		p.logger.Warn("source unavailable", "source", src.Name(), "error", err)
		return false
	}
	if snap == nil {
		p.logger.Debug("source empty", "source", src.Name())
		return false
	}
	target.Apply(state.ReplaceAll(*snap))
	return true
}

// migrate runs the one-time seed branch.
func (p *Pipeline) migrate(ctx context.Context, target Target) bool {
	if p.seed == nil || !p.seed.Available() {
		return false
	}
	if p.marker != nil {
		done, err := p.marker.MigrationDone(ctx)
		if err != nil {
			p.logger.Warn("migration marker unreadable", "error", err)
		}
		if done {
			p.logger.Debug("seed skipped, migration already done")
			return false
		}
	}
	if !p.adopt(ctx, target, p.seed) {
		return false
	}

	snap := target.Snapshot()
	for _, dst := range []source.Source{p.remote, p.cache} {
		if dst == nil || !dst.Available() {
			continue
		}
		wctx, cancel := p.bound(ctx)
		if err := dst.Save(wctx, snap); err != nil {
			p.logger.Warn("seed write-back failed", "source", dst.Name(), "error", err)
		}
		cancel()
	}
	if p.marker != nil {
		if err := p.marker.MarkMigrationDone(ctx); err != nil {
			p.logger.Warn("migration marker not saved", "error", err)
		}
	}
	return true
}

// applyOverlay replaces each sponsor collection for which the overlay
// returned rows. Collections with no rows keep the chain's data.
func (p *Pipeline) applyOverlay(ctx context.Context, target Target) bool {
	if p.overlay == nil || !p.overlay.Available() {
		return false
	}
	octx, cancel := p.bound(ctx)
	defer cancel()

	rows, err := p.overlay.Load(octx)
	if err != nil {
		p.logger.Warn("overlay unavailable", "source", p.overlay.Name(), "error", err)
		return false
	}

	applied := false
	if len(rows.Challenges) > 0 {
		target.Apply(state.Replace(rows.Challenges))
		applied = true
	}
	if len(rows.Bounties) > 0 {
		target.Apply(state.Replace(rows.Bounties))
		applied = true
	}
	if len(rows.Goodies) > 0 {
		target.Apply(state.Replace(rows.Goodies))
		applied = true
	}
	return applied
}

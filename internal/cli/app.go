package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/hacksync/internal/config"
	"github.com/roach88/hacksync/internal/engine"
	"github.com/roach88/hacksync/internal/hydrate"
	"github.com/roach88/hacksync/internal/kv"
	"github.com/roach88/hacksync/internal/persist"
	"github.com/roach88/hacksync/internal/seed"
	"github.com/roach88/hacksync/internal/session"
	"github.com/roach88/hacksync/internal/source"
	"github.com/roach88/hacksync/internal/state"
	"github.com/roach88/hacksync/internal/store"
)

// App is one wired synchronizer: stores, hydration chain, writer, engine and
// session manager, opened from a Config.
//
// Lifecycle: OpenApp starts the engine loop and waits for hydration; Close
// stops the loop, flushes the writer and closes every store.
type App struct {
	Config   config.Config
	Engine   *engine.Engine
	Writer   *persist.Writer
	Pipeline *hydrate.Pipeline
	Cache    *kv.Cache
	Sessions *session.Manager

	logger *slog.Logger
	stores []*store.Store
	cancel context.CancelFunc
	runErr chan error
}

// OpenApp wires every component from cfg and blocks until hydration is done.
func OpenApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, logger: logger}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	local, err := app.open("local", cfg.LocalPath())
	if err != nil {
		return nil, err
	}
	app.Cache = kv.New(local, kv.WithAnimationDefault(cfg.Prefs.Animation))

	var remote, relational *store.Store
	if cfg.Remote.Configured() {
		if remote, err = app.open("remote", cfg.Remote.Path); err != nil {
			app.closeStores()
			return nil, err
		}
	}
	if cfg.Relational.Configured() {
		if relational, err = app.open("relational", cfg.Relational.Path); err != nil {
			app.closeStores()
			return nil, err
		}
	}

	remoteSrc := source.NewRemote(remote)
	cacheSrc := source.NewCache(app.Cache)
	overlay := source.NewRelational(relational)

	app.Pipeline = hydrate.New(
		hydrate.WithRemote(remoteSrc),
		hydrate.WithCache(cacheSrc),
		hydrate.WithSeed(seedSource(cfg.Seed)),
		hydrate.WithOverlay(overlay),
		hydrate.WithMarker(app.Cache),
		hydrate.WithSourceTimeout(cfg.Hydrate.SourceTimeout.Std()),
		hydrate.WithLogger(logger),
	)
	app.Writer = persist.New(
		persist.WithDelay(cfg.Writer.Debounce.Std()),
		persist.WithRemote(remoteSrc),
		persist.WithCache(cacheSrc),
		persist.WithOverlay(overlay),
		persist.WithGate(app.Pipeline.Hydrated),
		persist.WithLogger(logger),
	)
	app.Engine = engine.New(
		state.New(state.WithLogger(logger)),
		engine.WithHydrator(app.Pipeline),
		engine.WithSink(app.Writer),
		engine.WithLogger(logger),
	)
	app.Sessions = session.New(app.Cache,
		session.WithTTL(cfg.Session.TTL.Std()),
		session.WithLogger(logger),
	)
	app.Sessions.Restore(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.runErr = make(chan error, 1)
	go func() { app.runErr <- app.Engine.Run(runCtx) }()

	select {
	case <-app.Engine.Ready():
	case <-ctx.Done():
		cancel()
		_ = app.Close(context.Background())
		return nil, ctx.Err()
	}
	return app, nil
}

// seedSource picks the seed override from config, or the bundled asset.
func seedSource(cfg config.SeedConfig) *source.Seed {
	switch {
	case cfg.Path != "":
		return source.SeedFile(cfg.Path)
	case cfg.URL != "":
		return source.SeedURL(nil, cfg.URL)
	}
	return source.SeedBytes(seed.Bytes())
}

func (a *App) open(role, path string) (*store.Store, error) {
	a.logger.Debug("opening store", "role", role, "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", role, err)
	}
	a.stores = append(a.stores, st)
	return st, nil
}

// Submit applies one intent and waits for the result.
func (a *App) Submit(ctx context.Context, in state.Intent) (engine.Result, error) {
	return a.Engine.Submit(ctx, in)
}

// Close stops the engine after it drains, flushes the pending write and
// closes the stores. Errors from every step are joined.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	a.Engine.Stop()
	if err := <-a.runErr; err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	a.cancel()

	if err := a.Writer.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	var errs []error
	for _, st := range a.stores {
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", st.Path(), err))
		}
	}
	a.stores = nil
	return errors.Join(errs...)
}

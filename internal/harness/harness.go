package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/hacksync/internal/engine"
	"github.com/roach88/hacksync/internal/hydrate"
	"github.com/roach88/hacksync/internal/seed"
	"github.com/roach88/hacksync/internal/source"
	"github.com/roach88/hacksync/internal/state"
)

// Harness runs one scenario against a fresh store and engine.
type Harness struct {
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build a fresh store with the scenario's id sequence
//  2. Start the engine, hydrating from the seed when requested
//  3. Submit setup steps
//  4. Submit flow steps, tracing each and checking its expect clause
//  5. Evaluate assertions against the trace and the final snapshot
//
// A returned error means the scenario could not run at all; check failures
// are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := state.New(
		state.WithLogger(logger),
		state.WithIDGenerator(newSequence(scenario.IDs)),
	)

	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if scenario.Initial == InitialSeed {
		opts = append(opts, engine.WithHydrator(hydrate.New(
			hydrate.WithSeed(source.SeedBytes(seed.Bytes())),
			hydrate.WithLogger(logger),
		)))
	}
	h := &Harness{
		engine: engine.New(store, opts...),
		logger: logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.engine.Run(ctx) }()
	defer func() {
		cancel()
		<-errc
	}()
	<-h.engine.Ready()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	result.Final = h.engine.Snapshot()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSetup submits setup steps. Their outcome is not checked.
func (h *Harness) executeSetup(ctx context.Context, setup []Step) error {
	for i, step := range setup {
		in, err := step.Intent()
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		res, err := h.engine.Submit(ctx, in)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		h.logger.Debug("setup step completed", "step", i, "intent", in.String(), "changed", res.Changed)
	}
	return nil
}

// executeFlow submits flow steps, tracing each and checking expectations.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		in, err := step.Intent()
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		res, err := h.engine.Submit(ctx, in)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		result.AddTrace(in.String(), res.Changed, res.Revision)

		if exp := step.Expect; exp != nil {
			if exp.Changed != nil && *exp.Changed != res.Changed {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected changed=%t, got %t", i, in, *exp.Changed, res.Changed))
			}
			if exp.Announced != nil && *exp.Announced != res.Snapshot.Phase.Announced {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected announced=%t, got %t", i, in, *exp.Announced, res.Snapshot.Phase.Announced))
			}
			if exp.VotingOpen != nil && *exp.VotingOpen != res.Snapshot.Phase.VotingOpen {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected voting_open=%t, got %t", i, in, *exp.VotingOpen, res.Snapshot.Phase.VotingOpen))
			}
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"intent", in.String(),
			"changed", res.Changed,
			"revision", res.Revision,
		)
	}
	return nil
}

// sequence hands out the scenario's ids, then gen-N.
type sequence struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func newSequence(ids []string) *sequence {
	return &sequence{ids: ids}
}

func (s *sequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if s.next <= len(s.ids) {
		return s.ids[s.next-1]
	}
	return fmt.Sprintf("gen-%d", s.next-len(s.ids))
}

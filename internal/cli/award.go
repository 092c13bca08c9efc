package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/state"
)

// NewAwardCommand creates the award command group.
func NewAwardCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "award",
		Short: "Assign, clear and list winners",
		Long: `Manage the winner map. Each challenge kind and each bounty has at most
one winning project; assigning again overwrites. Once every declared
challenge kind has a winner the results are announced.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "challenge <kind> <project-id>",
		Short: "Assign the winner of a challenge kind",
		Args:  cobra.ExactArgs(2),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.AssignChallengeWinner(model.ChallengeKind(args[0]), args[1])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "bounty <bounty-id> <project-id>",
		Short: "Assign the winner of a bounty",
		Args:  cobra.ExactArgs(2),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.AssignBountyWinner(args[0], args[1])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-challenge <kind>",
		Short: "Remove the winner of a challenge kind",
		Args:  cobra.ExactArgs(1),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.ClearChallengeWinner(model.ChallengeKind(args[0]))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-bounty <bounty-id>",
		Short: "Remove the winner of a bounty",
		Args:  cobra.ExactArgs(1),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.ClearBountyWinner(args[0])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the phase and every winner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return outputWinners(out, app.Engine.Revision(), app.Engine.Snapshot())
			})
		},
	})

	return cmd
}

// intentCommand adapts an intent builder into a RunE that submits it.
func intentCommand(opts *RootOptions, build func(args []string) state.Intent) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		in := build(args)
		return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
			return submit(ctx, app, out, in)
		})
	}
}

func outputWinners(out *OutputFormatter, revision int64, snap model.Snapshot) error {
	if out.JSON() {
		return out.SuccessAt(revision, map[string]any{
			"phase":   snap.Phase,
			"winners": snap.Winners,
		})
	}

	w := out.Writer
	fmt.Fprintf(w, "Voting open: %t  Announced: %t\n", snap.Phase.VotingOpen, snap.Phase.Announced)
	if len(snap.Winners.Challenge)+len(snap.Winners.Bounty) == 0 {
		fmt.Fprintln(w, "No winners assigned")
		return nil
	}
	for _, kind := range slices.Sorted(maps.Keys(snap.Winners.Challenge)) {
		fmt.Fprintf(w, "  challenge %s: %s\n", kind, projectLabel(snap, snap.Winners.Challenge[kind]))
	}
	for _, id := range slices.Sorted(maps.Keys(snap.Winners.Bounty)) {
		fmt.Fprintf(w, "  bounty %s: %s\n", id, projectLabel(snap, snap.Winners.Bounty[id]))
	}
	return nil
}

func projectLabel(snap model.Snapshot, id string) string {
	if p, ok := snap.Project(id); ok {
		return fmt.Sprintf("%s (%s)", p.Name, id)
	}
	return id
}

// NewPhaseCommand creates the phase command.
func NewPhaseCommand(opts *RootOptions) *cobra.Command {
	actions := []state.PhaseAction{
		state.PhaseOpenVoting,
		state.PhaseCloseVoting,
		state.PhaseAnnounce,
		state.PhaseUnannounce,
		state.PhaseReset,
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = strings.ReplaceAll(string(a), "_", "-")
	}

	return &cobra.Command{
		Use:       "phase <" + strings.Join(names, "|") + ">",
		Short:     "Move the award phase",
		ValidArgs: names,
		Long: `Apply an administrative award-phase transition. reset returns to editing
and clears every winner.

Example:
  hacksync phase open-voting
  hacksync phase announce`,
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.SetPhase(state.PhaseAction(strings.ReplaceAll(args[0], "-", "_")))
		}),
	}
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hacksync/internal/state"
)

// NewBountyCommand creates the bounty command group.
func NewBountyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounty",
		Short: "Claim, release and complete bounties",
		Long: `Drive the bounty claim lifecycle. A bounty accepts claims from up to
maxTeams projects and becomes claimed when full.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "claim <bounty-id> <project-id>",
		Short: "Claim a bounty for a project",
		Args:  cobra.ExactArgs(2),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.ClaimBounty(args[0], args[1])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "release <bounty-id> <project-id>",
		Short: "Withdraw a project's claim",
		Args:  cobra.ExactArgs(2),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.ReleaseBounty(args[0], args[1])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "complete <bounty-id>",
		Short: "Mark a bounty completed",
		Args:  cobra.ExactArgs(1),
		RunE: intentCommand(opts, func(args []string) state.Intent {
			return state.CompleteBounty(args[0])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every bounty with its claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				snap := app.Engine.Snapshot()
				if out.JSON() {
					return out.SuccessAt(app.Engine.Revision(), snap.Bounties)
				}
				if len(snap.Bounties) == 0 {
					fmt.Fprintln(out.Writer, "No bounties")
					return nil
				}
				for _, b := range snap.Bounties {
					fmt.Fprintf(out.Writer, "%s  %-9s %d/%d  %s\n",
						b.ID, b.Status, len(b.ClaimedBy), b.Capacity(), b.Title)
					if len(b.ClaimedBy) > 0 {
						fmt.Fprintf(out.Writer, "  claimed by: %s\n", strings.Join(b.ClaimedBy, ", "))
					}
				}
				return nil
			})
		},
	})

	return cmd
}

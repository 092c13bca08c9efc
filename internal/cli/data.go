package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/state"
)

// readInput resolves a payload argument: "-" reads stdin, "@path" reads a
// file, anything else is the payload itself.
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(arg, "@"):
		return os.ReadFile(strings.TrimPrefix(arg, "@"))
	}
	return []byte(arg), nil
}

func parseKind(s string) (state.Kind, error) {
	for _, k := range state.Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// submit applies in and reports it. An intent that changed nothing is a
// failure with exit code 1.
func submit(ctx context.Context, app *App, out *OutputFormatter, in state.Intent) error {
	res, err := app.Submit(ctx, in)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "submit "+in.String(), err)
	}
	if !res.Changed {
		return out.Fail(ExitFailure, ErrCodeNoEffect, "intent had no effect: "+in.String(), nil)
	}
	if out.JSON() {
		return out.SuccessAt(res.Revision, map[string]any{
			"intent": in.String(),
			"counts": countsOf(res.Snapshot),
		})
	}
	fmt.Fprintf(out.Writer, "✓ %s (revision %d)\n", in.String(), res.Revision)
	return nil
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the hydrated dataset as JSON",
		Long: `Write the full dataset in its wire form. The output can be fed back
through import.

Example:
  hacksync export
  hacksync export -o snapshot.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				data, err := codec.EncodeIndent(app.Engine.Snapshot())
				if err != nil {
					return out.Fail(ExitFailure, ErrCodeGeneric, "encode snapshot", err)
				}
				if opts.Output == "" {
					_, err = out.Writer.Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
					return out.Fail(ExitCommandError, ErrCodeGeneric, "write export", err)
				}
				out.VerboseLog("wrote %s", opts.Output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole dataset from an export",
		Long: `Replace every collection, the phase and the winners with the contents of
an exported snapshot. The payload is validated before anything changes.

Example:
  hacksync import snapshot.json
  cat snapshot.json | hacksync import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if path != "-" {
				path = "@" + path
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return opts.Formatter(cmd).Fail(ExitCommandError, ErrCodeInvalidInput, "read import", err)
			}
			snap, err := codec.Decode(data)
			if err != nil {
				return opts.Formatter(cmd).Fail(ExitCommandError, ErrCodeInvalidInput, "decode import", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return submit(ctx, app, out, state.ReplaceAll(snap))
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <kind> <json|@file|->",
		Short: "Add one entity",
		Long: `Add one entity of the given kind (project, person, challenge, bounty,
goodie, faq). A missing id is generated. Adding a project links the
attendees on its roster.

Example:
  hacksync add faq '{"question":"Wifi?","answer":"hacknet"}'
  hacksync add project @project.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.Formatter(cmd)
			kind, err := parseKind(args[0])
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "add", err)
			}
			data, err := readInput(cmd, args[1])
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "read payload", err)
			}
			in, err := state.AddJSON(kind, data)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "decode payload", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return submit(ctx, app, out, in)
			})
		},
	}
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patch <kind> <id> <json|@file|->",
		Short: "Merge fields into one entity",
		Long: `Merge a JSON object into the entity with the given id. The key field
cannot change; null clears a field.

Example:
  hacksync patch project proj-ledger '{"members":["ada@example.com"]}'
  hacksync patch person ada@example.com '{"checkedIn":true}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.Formatter(cmd)
			kind, err := parseKind(args[0])
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "patch", err)
			}
			data, err := readInput(cmd, args[2])
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "read payload", err)
			}
			var fields map[string]any
			if err := json.Unmarshal(data, &fields); err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "decode payload", err)
			}
			in := state.Patch(kind, args[1], fields)
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return submit(ctx, app, out, in)
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <kind> <id>",
		Short: "Remove one entity",
		Long: `Remove the entity with the given id. Removing a project unlinks its
members and drops any award it held.

Example:
  hacksync remove project proj-ledger`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return opts.Formatter(cmd).Fail(ExitCommandError, ErrCodeInvalidInput, "remove", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return submit(ctx, app, out, state.Remove(kind, args[1]))
			})
		},
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify dataset invariants",
		Long: `Check roster symmetry, winner references and bounty capacity on the
hydrated dataset. Exits 1 when drift is found.

Example:
  hacksync check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				if err := state.CheckInvariants(app.Engine.Snapshot()); err != nil {
					return out.Fail(ExitFailure, ErrCodeDrift, "invariant drift", err)
				}
				if out.JSON() {
					return out.SuccessAt(app.Engine.Revision(), map[string]bool{"consistent": true})
				}
				fmt.Fprintln(out.Writer, "✓ Dataset is consistent")
				return nil
			})
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/hacksync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hacksync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hacksync",
		Short: "hacksync - hackathon dataset synchronizer",
		Long: `Keeps a hackathon dataset (projects, attendees, sponsor challenges,
bounties, goodies, FAQ, award phase and winners) consistent in memory and
synchronized with a remote document store, a local cache and a relational
sponsor store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultFile, "path to config file")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewPatchCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewAwardCommand(opts))
	cmd.AddCommand(NewPhaseCommand(opts))
	cmd.AddCommand(NewBountyCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewPrefsCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Logger returns the logger configured for this invocation.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// Formatter builds the output formatter for cmd.
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withApp loads config, opens the App, runs fn and closes the App. SIGINT
// and SIGTERM cancel the context handed to fn; Close still flushes.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, app *App, out *OutputFormatter) error) error {
	out := opts.Formatter(cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "load config", err)
	}
	out.VerboseLog("data dir %s", cfg.DataDir)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := OpenApp(ctx, cfg, opts.Logger())
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeOpen, "open dataset", err)
	}
	out.VerboseLog("hydrated from %q", app.Engine.Hydration().Source)

	runErr := fn(ctx, app, out)
	if err := app.Close(context.WithoutCancel(ctx)); err != nil {
		opts.Logger().Error("close failed", "error", err)
		if runErr == nil {
			return out.Fail(ExitFailure, ErrCodeGeneric, "persist dataset", err)
		}
	}
	return runErr
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hacksync/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input         string
	WatchInterval time.Duration
	ExitOnEOF     bool
}

// RunReport summarizes a run.
type RunReport struct {
	Queued   int      `json:"queued"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
	Actor    string   `json:"actor,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Keep the dataset open and apply intents from a stream",
		Long: `Hydrate the dataset and keep it open until interrupted. Each input line
is one intent in scenario step form (JSON or flow YAML); blank lines and
lines starting with # are skipped. Intents are queued without waiting for
their outcome. The restored session is re-asserted every watch interval.

On SIGINT or SIGTERM, queued intents are applied and the pending write is
flushed before exit.

Example:
  hacksync run < intents.jsonl
  hacksync run --input intents.jsonl --exit-on-eof
  echo '{"op":"phase","phase":"open_voting"}' | hacksync run --exit-on-eof`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.WatchInterval <= 0 {
				return NewExitError(ExitCommandError, "watch interval must be positive")
			}

			var report RunReport
			var app *App
			err := withApp(cmd, rootOpts, func(ctx context.Context, a *App, out *OutputFormatter) error {
				app = a
				return serve(ctx, cmd, a, opts, out, &report)
			})
			if err != nil {
				return err
			}
			if actor := app.Sessions.Current(); actor != nil {
				report.Actor = actor.Email
			}
			return outputRun(opts.Formatter(cmd), app.Engine.Revision(), report)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", "intent stream (- for stdin)")
	cmd.Flags().DurationVar(&opts.WatchInterval, "watch-interval", 30*time.Second, "session re-assertion interval")
	cmd.Flags().BoolVar(&opts.ExitOnEOF, "exit-on-eof", false, "stop when the input ends")

	return cmd
}

// serve feeds input lines to the engine until the input ends (with
// --exit-on-eof) or ctx is cancelled.
func serve(ctx context.Context, cmd *cobra.Command, app *App, opts *RunOptions, out *OutputFormatter, report *RunReport) error {
	in, err := openStream(cmd, opts.Input)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "open intent stream", err)
	}
	defer in.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.Sessions.Watch(watchCtx, opts.WatchInterval)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-watchCtx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- sc.Err()
	}()

	n := 0
	for {
		select {
		case <-ctx.Done():
			opts.Logger().Info("run interrupted", "queued", report.Queued)
			return nil

		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return out.Fail(ExitCommandError, ErrCodeInvalidInput, "read intent stream", err)
				}
				if app.Writer.Pending() {
					out.VerboseLog("write pending, flushing on close")
				}
				if opts.ExitOnEOF {
					return nil
				}
				<-ctx.Done()
				return nil
			}
			n++
			queueLine(app, opts, report, n, line)
		}
	}
}

func queueLine(app *App, opts *RunOptions, report *RunReport, n int, line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	reject := func(err error) {
		report.Rejected++
		report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", n, err))
		opts.Logger().Warn("intent rejected", "line", n, "error", err)
	}

	step, err := parseStep(line)
	if err != nil {
		reject(err)
		return
	}
	in, err := step.Intent()
	if err != nil {
		reject(err)
		return
	}
	if !app.Engine.Enqueue(in) {
		reject(fmt.Errorf("%s: engine stopped", in))
		return
	}
	report.Queued++
	opts.Logger().Debug("intent queued", "line", n, "intent", in.String())
}

// parseStep decodes one stream line. Expectations only make sense in
// scenarios, so they are refused here.
func parseStep(line string) (harness.Step, error) {
	var step harness.Step
	dec := yaml.NewDecoder(strings.NewReader(line))
	dec.KnownFields(true)
	if err := dec.Decode(&step); err != nil {
		return harness.Step{}, fmt.Errorf("parse intent: %w", err)
	}
	if step.Expect != nil {
		return harness.Step{}, errors.New("expect is only allowed in scenarios")
	}
	return step, nil
}

func openStream(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(name)
}

func outputRun(out *OutputFormatter, revision int64, report RunReport) error {
	if out.JSON() {
		return out.SuccessAt(revision, report)
	}
	fmt.Fprintf(out.Writer, "✓ Queued %d intents, revision %d\n", report.Queued, revision)
	if report.Rejected > 0 {
		fmt.Fprintf(out.Writer, "Rejected %d:\n", report.Rejected)
		for _, e := range report.Errors {
			fmt.Fprintf(out.Writer, "  %s\n", e)
		}
	}
	return nil
}

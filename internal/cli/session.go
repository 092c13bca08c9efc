package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hacksync/internal/config"
	"github.com/roach88/hacksync/internal/kv"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/session"
	"github.com/roach88/hacksync/internal/store"
)

// withLocal opens only the local store. Session and preference commands use
// it so they work without hydrating the dataset.
func withLocal(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, cache *kv.Cache, sessions *session.Manager, out *OutputFormatter) error) error {
	out := opts.Formatter(cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "load config", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return out.Fail(ExitCommandError, ErrCodeOpen, "create data dir", err)
	}
	local, err := store.Open(cfg.LocalPath())
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeOpen, "open local store", err)
	}
	defer func() {
		if closeErr := local.Close(); closeErr != nil {
			opts.Logger().Error("error closing local store", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cache := kv.New(local, kv.WithAnimationDefault(cfg.Prefs.Animation))
	sessions := session.New(cache,
		session.WithTTL(cfg.Session.TTL.Std()),
		session.WithLogger(opts.Logger()),
	)
	sessions.Restore(ctx)
	return fn(ctx, cache, sessions, out)
}

// LoginOptions holds flags for session login.
type LoginOptions struct {
	*RootOptions
	Kind      string
	Name      string
	Email     string
	ID        string
	SponsorID string
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the current actor",
		Long: `The session record holds the current actor. It is stored apart from
the dataset and expires after session.ttl.`,
	}

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the current actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd, opts, func(ctx context.Context, _ *kv.Cache, sessions *session.Manager, out *OutputFormatter) error {
				if err := sessions.Logout(ctx); err != nil {
					return out.Fail(ExitFailure, ErrCodeSession, "logout", err)
				}
				return outputActor(out, nil)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd, opts, func(ctx context.Context, _ *kv.Cache, sessions *session.Manager, out *OutputFormatter) error {
				return outputActor(out, sessions.Current())
			})
		},
	})
	cmd.AddCommand(newProfileCommand(opts))

	return cmd
}

func newLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Make an actor current",
		Long: `Store a session record for the given actor.

Example:
  hacksync session login --kind organizer --name "Grace" --email grace@example.com
  hacksync session login --kind sponsor --email dev@acme.io --sponsor acme`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := model.Actor{
				Kind:      model.ActorKind(opts.Kind),
				ID:        opts.ID,
				Name:      opts.Name,
				Email:     opts.Email,
				SponsorID: opts.SponsorID,
			}
			return withLocal(cmd, rootOpts, func(ctx context.Context, _ *kv.Cache, sessions *session.Manager, out *OutputFormatter) error {
				if err := sessions.Login(ctx, actor); err != nil {
					exit := ExitFailure
					if errors.Is(err, session.ErrInvalidActor) {
						exit = ExitCommandError
					}
					return out.Fail(exit, ErrCodeSession, "login", err)
				}
				return outputActor(out, sessions.Current())
			})
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "actor kind (organizer|sponsor|participant)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact address")
	cmd.Flags().StringVar(&opts.ID, "id", "", "actor id")
	cmd.Flags().StringVar(&opts.SponsorID, "sponsor", "", "sponsor id for sponsor actors")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newProfileCommand(opts *RootOptions) *cobra.Command {
	var (
		profile model.Profile
		skills  string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Replace the current actor's profile",
		Long: `Replace the profile of the logged-in actor. This also renews the
session timestamp.

Example:
  hacksync session profile --location Berlin --skills go,sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if skills != "" {
				for _, s := range strings.Split(skills, ",") {
					if s = strings.TrimSpace(s); s != "" {
						profile.Skills = append(profile.Skills, s)
					}
				}
			}
			return withLocal(cmd, opts, func(ctx context.Context, _ *kv.Cache, sessions *session.Manager, out *OutputFormatter) error {
				if err := sessions.UpdateProfile(ctx, profile); err != nil {
					return out.Fail(ExitFailure, ErrCodeSession, "update profile", err)
				}
				return outputActor(out, sessions.Current())
			})
		},
	}

	cmd.Flags().StringVar(&profile.Location, "location", "", "location")
	cmd.Flags().StringVar(&profile.Bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&skills, "skills", "", "comma-separated skills")
	cmd.Flags().StringVar(&profile.Links.GitHub, "github", "", "GitHub URL")
	cmd.Flags().StringVar(&profile.Links.LinkedIn, "linkedin", "", "LinkedIn URL")
	cmd.Flags().StringVar(&profile.Links.Website, "website", "", "website URL")

	return cmd
}

func outputActor(out *OutputFormatter, actor *model.Actor) error {
	if out.JSON() {
		return out.Success(map[string]any{"actor": actor})
	}
	if actor == nil {
		fmt.Fprintln(out.Writer, "Not logged in")
		return nil
	}
	fmt.Fprintf(out.Writer, "%s <%s> (%s)\n", actor.Name, actor.Email, actor.Kind)
	if actor.SponsorID != "" {
		fmt.Fprintf(out.Writer, "  sponsor: %s\n", actor.SponsorID)
	}
	if p := actor.Profile; p != nil {
		if p.Location != "" {
			fmt.Fprintf(out.Writer, "  location: %s\n", p.Location)
		}
		if len(p.Skills) > 0 {
			fmt.Fprintf(out.Writer, "  skills: %s\n", strings.Join(p.Skills, ", "))
		}
	}
	return nil
}

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write local preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "animation [on|off]",
		Short:     "Show or set the animation preference",
		ValidArgs: []string{"on", "off"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocal(cmd, opts, func(ctx context.Context, cache *kv.Cache, _ *session.Manager, out *OutputFormatter) error {
				if len(args) == 1 {
					if err := cache.SetAnimation(ctx, args[0] == "on"); err != nil {
						return out.Fail(ExitFailure, ErrCodeGeneric, "set animation", err)
					}
				}
				on, err := cache.Animation(ctx)
				if err != nil {
					return out.Fail(ExitFailure, ErrCodeGeneric, "read animation", err)
				}
				if out.JSON() {
					return out.Success(map[string]bool{"animation": on})
				}
				state := "off"
				if on {
					state = "on"
				}
				fmt.Fprintf(out.Writer, "animation: %s\n", state)
				return nil
			})
		},
	})

	return cmd
}

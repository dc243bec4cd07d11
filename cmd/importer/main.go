package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/matst80/flow-finder/pkg/config"
	"github.com/matst80/flow-finder/pkg/logging"
	"github.com/matst80/flow-finder/pkg/messaging"
	"github.com/matst80/flow-finder/pkg/server"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          "importer",
		Short:        "Load content, grant access and move snapshots",
		SilenceUsage: true,
	}
)

// env holds what every subcommand needs.
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *storage.Store
	publisher messaging.Publisher
	closers   []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

func setup() (*env, error) {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath("")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Database.Path, logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, store: store, closers: []func() error{store.Close}}
	e.publisher = messaging.NopPublisher{Logger: logger}
	if cfg.Rabbit.Url != "" {
		p, err := messaging.Connect(cfg.Rabbit.Url, cfg.Site)
		if err != nil {
			logger.Warn("running servers will not be told to reload", zap.Error(err))
		} else {
			e.publisher = p
			e.closers = append(e.closers, p.Close)
		}
	}
	return e, nil
}

// announce asks running servers to reload every kind.
func (e *env) announce(ctx context.Context) {
	for _, contentType := range []types.ContentType{types.ContentTypeBlog, types.ContentTypeFlows} {
		err := e.publisher.ContentChanged(ctx, messaging.ContentChange{
			Kind:   string(contentType),
			Action: messaging.ActionReload,
			Source: "importer",
		})
		if err != nil {
			e.logger.Warn("publish reload failed", zap.Error(err))
		}
	}
}

func (e *env) importItems(ctx context.Context, items []types.ContentItem) error {
	res, err := e.store.Import(ctx, items)
	e.logger.Info("imported", zap.Int("saved", len(res.Saved)), zap.Int("skipped", res.Skipped))
	if len(res.Saved) > 0 {
		e.announce(ctx)
	}
	return err
}

func markdownCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "markdown <dir>",
		Short: "Import blog/*.md and flows/*.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			dir := args[0]
			load := func(ctx context.Context) error {
				items, err := storage.LoadMarkdownDir(dir)
				if err != nil {
					return err
				}
				return e.importItems(ctx, items)
			}
			if err := load(ctx); err != nil && !watch {
				return err
			} else if err != nil {
				e.logger.Warn("import had errors", zap.Error(err))
			}
			if !watch {
				return nil
			}
			e.logger.Info("watching for changes", zap.String("dir", dir))
			return storage.WatchDir(ctx, dir, e.cfg.Content.Debounce, e.logger.Named("watcher"), func() {
				if err := load(ctx); err != nil {
					e.logger.Warn("import had errors", zap.Error(err))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-import on change")
	return cmd
}

func csvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a semicolon separated content file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readCsvFile(args[0])
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.importItems(cmd.Context(), items)
		},
	}
}

func grantCommand() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "grant <user> <role>",
		Short: "Create or update an admin profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := types.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			profile, err := grantRole(cmd.Context(), e.store, args[0], role, email, name)
			if err != nil {
				return err
			}
			e.logger.Info("profile saved", zap.String("user", profile.UserId), zap.String("role", string(profile.Role)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "profile email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

type profileStore interface {
	GetProfile(ctx context.Context, userId string) (types.Profile, error)
	SaveProfile(ctx context.Context, p *types.Profile) error
}

// grantRole sets role on the profile of userId, creating the profile when
// it does not exist. Empty email and name keep the stored values.
func grantRole(ctx context.Context, store profileStore, userId string, role types.Role, email, name string) (types.Profile, error) {
	profile, err := store.GetProfile(ctx, userId)
	if errors.Is(err, storage.ErrNotFound) {
		profile = types.Profile{UserId: userId}
	} else if err != nil {
		return profile, fmt.Errorf("load profile %s: %w", userId, err)
	}
	profile.Role = role
	if email != "" {
		profile.Email = email
	}
	if name != "" {
		profile.DisplayName = name
	}
	if err := store.SaveProfile(ctx, &profile); err != nil {
		return profile, err
	}
	return profile, nil
}

func tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user>",
		Short: "Print an admin token for an existing profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			profile, err := e.store.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			token, err := server.NewAuthenticator(e.cfg.Auth, e.store).CreateToken(profile.UserId, profile.DisplayName, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all content to a gzipped snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			snap, err := e.store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := storage.WriteSnapshot(args[0], snap); err != nil {
				return err
			}
			e.logger.Info("snapshot written", zap.String("file", args[0]), zap.Int("blog", len(snap.Blog)), zap.Int("flows", len(snap.Flows)))
			return nil
		},
	}
}

func restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Import every item of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := storage.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.importItems(cmd.Context(), snap.Items())
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH)")
	rootCmd.AddCommand(markdownCommand(), csvCommand(), grantCommand(), tokenCommand(), exportCommand(), restoreCommand())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/matst80/flow-finder/pkg/cache"
	"github.com/matst80/flow-finder/pkg/catalog"
	"github.com/matst80/flow-finder/pkg/common"
	"github.com/matst80/flow-finder/pkg/config"
	"github.com/matst80/flow-finder/pkg/messaging"
	"github.com/matst80/flow-finder/pkg/notify"
	"github.com/matst80/flow-finder/pkg/server"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the public and admin api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cmd.Context(), cfg, logger)
		},
	}
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.Store
	amqp   *messaging.AmqpPublisher
	server *server.WebServer
}

func openStore(cfg *config.Config, logger *zap.Logger) (*storage.Store, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return nil, err
		}
	}
	return storage.Open(cfg.Database.Path, logger.Named("storage"))
}

// importContent stores the markdown files under the content dir.
func (a *app) importContent(ctx context.Context) {
	items, err := storage.LoadMarkdownDir(a.cfg.Content.Dir)
	if err != nil {
		a.logger.Error("could not read content dir", zap.String("dir", a.cfg.Content.Dir), zap.Error(err))
		return
	}
	res, err := a.store.Import(ctx, items)
	if err != nil {
		a.logger.Warn("some content was not imported", zap.Int("skipped", res.Skipped), zap.Error(err))
	}
	a.logger.Info("content imported", zap.Int("saved", len(res.Saved)), zap.Int("skipped", res.Skipped))
}

func (a *app) reloadFromDisk(ctx context.Context) {
	a.importContent(ctx)
	for _, contentType := range []types.ContentType{types.ContentTypeBlog, types.ContentTypeFlows} {
		if err := a.server.Reload(ctx, contentType); err != nil {
			a.logger.Error("reload failed", zap.String("kind", string(contentType)), zap.Error(err))
			continue
		}
		err := a.server.Publisher.ContentChanged(ctx, messaging.ContentChange{
			Kind:   string(contentType),
			Action: messaging.ActionReload,
			Source: a.server.NodeId,
		})
		if err != nil {
			a.logger.Warn("publish reload failed", zap.Error(err))
		}
	}
}

func (a *app) connectCache(ctx context.Context) *cache.Cache {
	if a.cfg.Redis.Addr == "" {
		return nil
	}
	c, err := cache.New(ctx, cache.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		Prefix:   a.cfg.Site,
		TTL:      a.cfg.Redis.TTL,
	}, a.logger.Named("cache"))
	if err != nil {
		a.logger.Warn("running without cache", zap.Error(err))
		return nil
	}
	return c
}

func (a *app) connectPublisher() messaging.Publisher {
	if a.cfg.Rabbit.Url == "" {
		return messaging.NopPublisher{Logger: a.logger.Named("messaging")}
	}
	p, err := messaging.Connect(a.cfg.Rabbit.Url, a.cfg.Site)
	if err != nil {
		a.logger.Warn("running without rabbitmq", zap.Error(err))
		return messaging.NopPublisher{Logger: a.logger.Named("messaging")}
	}
	a.amqp = p
	return p
}

func (a *app) notifier(ctx context.Context) notify.Notifier {
	if !a.cfg.Firebase.Enabled {
		return notify.LogNotifier{Logger: a.logger.Named("notify")}
	}
	n, err := notify.NewFirebaseNotifier(ctx, a.cfg.Firebase.CredentialsFile, a.logger.Named("notify"))
	if err != nil {
		a.logger.Warn("push notifications disabled", zap.Error(err))
		return notify.LogNotifier{Logger: a.logger.Named("notify")}
	}
	return n
}

func debugHandler(profiling bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if profiling {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, logger: logger, store: store}

	if cfg.Content.Dir != "" {
		a.importContent(ctx)
	}

	c := a.connectCache(ctx)
	publisher := a.connectPublisher()
	watches := notify.NewWatchService(store, a.notifier(ctx), logger.Named("watch"))

	a.server = server.NewWebServer(catalog.NewCatalog(), store, c, publisher, watches, server.Options{
		Server:  cfg.Server,
		Auth:    cfg.Auth,
		Contact: cfg.Contact,
		NodeId:  uuid.NewString(),
	}, logger.Named("server"))
	if err := a.server.Load(ctx); err != nil {
		store.Close()
		return err
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	if a.amqp != nil {
		if err := a.amqp.ListenContentChanges(bgCtx, logger.Named("listener"), a.server.ApplyChange); err != nil {
			logger.Warn("not listening for content changes", zap.Error(err))
		}
	}
	if cfg.Content.Dir != "" && cfg.Content.Watch {
		go func() {
			err := storage.WatchDir(bgCtx, cfg.Content.Dir, cfg.Content.Debounce, logger.Named("watcher"), func() {
				a.reloadFromDisk(bgCtx)
			})
			if err != nil {
				logger.Error("content watcher stopped", zap.Error(err))
			}
		}()
	}

	servers := []*http.Server{
		common.NewServerWithTimeouts(&http.Server{Addr: cfg.Server.Addr, Handler: a.server.Handler()}, cfg.Server.Timeouts),
	}
	if cfg.Server.DebugAddr != "" {
		servers = append(servers, common.NewServerWithTimeouts(&http.Server{Addr: cfg.Server.DebugAddr, Handler: debugHandler(cfg.Server.Profiling)}, cfg.Server.Timeouts))
	}

	err = common.RunServersWithShutdown(ctx, logger, cfg.Server.Timeouts, servers,
		func(ctx context.Context) error {
			stopBackground()
			return a.server.Close(ctx)
		},
		func(ctx context.Context) error {
			if a.amqp == nil {
				return nil
			}
			return a.amqp.Close()
		},
	)
	if cerr := c.Close(); cerr != nil {
		logger.Warn("closing cache", zap.Error(cerr))
	}
	if cerr := store.Close(); cerr != nil {
		logger.Warn("closing database", zap.Error(cerr))
	}
	return err
}

// Package app wires the bookmark service daemon together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/config"
	"github.com/MrSnakeDoc/hoarder/internal/crawler"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/redis"
	"github.com/MrSnakeDoc/hoarder/internal/scheduler"
	"github.com/MrSnakeDoc/hoarder/internal/service"
	"github.com/MrSnakeDoc/hoarder/internal/store"
	"github.com/MrSnakeDoc/hoarder/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/hoarder/internal/store/redis"
	"github.com/MrSnakeDoc/hoarder/internal/store/sqlite"
	"github.com/MrSnakeDoc/hoarder/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	crawler  *crawler.Crawler
	importer *scheduler.HomepageImporter // nil unless HOARDERD_HOMEPAGE_BOOKMARKS is set
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	st, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	svc := service.New(st, loggerClient)

	fetcher := crawler.NewFetcher(cfg.CrawlerTimeout, cfg.CrawlerMaxBytes, cfg.CrawlerUserAgent)
	c := crawler.New(svc, fetcher, loggerClient.With(logger.String("component", "crawler")), crawler.Options{
		Workers:   cfg.CrawlerWorkers,
		QueueSize: cfg.CrawlerQueueSize,
		Sweep:     cfg.CrawlerSweep,
	})
	svc.SetQueue(c)

	d := deps.Deps{
		Logger:             loggerClient,
		Service:            svc,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		APIKeys:            cfg.APIKeys,
		AllowedHosts:       cfg.AllowedHosts,
		ProbeCIDRs:         cfg.ProbeCIDRs,
		TrustProxy:         cfg.TrustProxy,
		CreateBurst:        cfg.CreateBurst,
		CreateRefillPerMin: cfg.CreateRefillPerMin,
	}

	a := &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  httpserver.New(cfg, loggerClient, d),
		store:   st,
		crawler: c,
	}
	if cfg.HomepageBookmarks != "" {
		a.importer = scheduler.NewHomepageImporter(cfg.HomepageBookmarks, svc,
			loggerClient.With(logger.String("component", "homepage")), cfg.HomepageReload)
	}
	return a, nil
}

// openStore builds the backend named by cfg.Store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewStore(client), nil
	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("SQLite store opened", logger.String("path", cfg.SQLitePath))
		return st, nil
	default:
		log.Warn("using the in-memory store, bookmarks are lost on restart")
		return memory.New(), nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting hoarderd %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("%s, store=%s", version.String("hoarderd"), a.cfg.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the crawler outlives ctx so Stop can let in-flight pages finish
	if err := a.crawler.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start crawler: %w", err)
	}

	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			a.logger.Error("homepage import disabled", logger.Error(err))
			a.importer = nil
		} else {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-hup:
						a.importer.Trigger()
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.crawler.Stop()

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close %s store: %v", a.cfg.Store, err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	_ = a.logger.Sync()
	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ hoarderd stopped cleanly")
	return nil
}

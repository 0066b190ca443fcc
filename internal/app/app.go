package app

import (
	"context"
	"log/slog"
	"os"

	routerApp "github.com/GintGld/kshana-timeline/internal/app/router"
	"github.com/GintGld/kshana-timeline/internal/client/messenger"
	"github.com/GintGld/kshana-timeline/internal/config"
	"github.com/GintGld/kshana-timeline/internal/lib/ffmpeg"
	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"
)

type App struct {
	log     *slog.Logger
	Router  routerApp.App
	storage *sqlite.Storage
	manager *workspace.Manager
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	secret []byte,
	rootPass []byte,
) *App {
	if _, err := sqlite.Migrate(cfg.StoragePath, ""); err != nil {
		log.Error("failed to migrate storage", sl.Err(err))
		os.Exit(1)
	}

	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	var msg markers.Messenger
	if cfg.Messenger.URL != "" {
		msg = messenger.New(log, cfg.Messenger.URL, cfg.Messenger.Timeout)
	} else {
		log.Warn("no generator configured, markers are only logged")
		msg = messenger.NewLog(log)
	}

	manager := workspace.NewManager(
		log,
		WorkspaceConfig(cfg),
		cfg.ProjectsDir,
		storage,
		msg,
		ffmpeg.Prober{},
	)

	routerApp := routerApp.New(
		log,
		manager,
		storage,
		cfg.HTTPServer.Address,
		cfg.HTTPServer.Timeout,
		cfg.HTTPServer.IdleTimeout,
		cfg.TokenTTL,
		secret,
		rootPass,
		os.TempDir(),
	)

	return &App{
		log:     log,
		Router:  *routerApp,
		storage: storage,
		manager: manager,
	}
}

// WorkspaceConfig maps the configuration file onto the engine settings.
func WorkspaceConfig(cfg *config.Config) workspace.Config {
	return workspace.Config{
		MinDuration:      cfg.Timeline.MinDuration,
		MinImageDuration: cfg.Timeline.MinImageDuration,
		UndoCapacity:     cfg.Timeline.UndoCapacity,
		PlaybackTick:     cfg.Timeline.PlaybackTick,
		WatchSettle:      cfg.Timeline.WatchSettle,
		Resolver: retry.Policy{
			MaxAttempts: cfg.Resolver.MaxAttempts,
			BaseDelay:   cfg.Resolver.BaseDelay,
		},
		Persist: retry.Policy{
			MaxAttempts: cfg.Persist.MaxAttempts,
			BaseDelay:   cfg.Persist.BaseDelay,
		},
		Debounce: cfg.Persist.Debounce,
	}
}

// Stop shuts the server down, saves and closes open projects.
func (a *App) Stop(ctx context.Context) {
	a.Router.Stop()

	if err := a.manager.CloseAll(ctx); err != nil {
		a.log.Error("failed to close projects", sl.Err(err))
	}
	if err := a.storage.Stop(); err != nil {
		a.log.Error("failed to close storage", sl.Err(err))
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/motioneffector/autoplanner/adapter/cli"
	"github.com/motioneffector/autoplanner/adapter/cli/reflow"
	"github.com/motioneffector/autoplanner/adapter/cli/series"
	"github.com/motioneffector/autoplanner/internal/app"
	"github.com/motioneffector/autoplanner/pkg/config"
	"github.com/google/uuid"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	var cliApp *cli.App
	var container *app.Container

	if cfg.IsLocalMode() {
		logger.Info("starting in local mode with SQLite", "database", cfg.SQLitePath)
		container, err = app.NewLocalContainer(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize local container", "error", err)
			os.Exit(1)
		}
	} else {
		container, err = app.NewContainer(ctx, cfg, logger)
	}

	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		if cfg.OutboxProcessorEnabled && container.OutboxProcessor != nil {
			go container.OutboxProcessor.Start(ctx)
		} else if container.OutboxProcessor == nil {
			logger.Debug("outbox processor not available in local mode")
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		if container.CalendarImportWorker != nil {
			go container.CalendarImportWorker.Run(ctx)
			logger.Info("calendar import worker started")
		}

		cliApp = cli.NewApp(
			container.CreateSeriesHandler,
			container.SeriesMutationHandler,
			container.LogCompletionHandler,
			container.ConstraintHandler,
			container.ExceptionHandler,
			container.ReminderHandler,
			container.SeriesQueries,
			container.ScheduleQuery,
		)

		userID, err := uuid.Parse(cfg.UserID)
		if err != nil {
			logger.Error("invalid ORBITA_USER_ID", "error", err)
			os.Exit(1)
		}
		cliApp.SetCurrentUserID(userID)

		if container.ProviderRegistry != nil {
			cliApp.SetProviderRegistry(container.ProviderRegistry)
		}
		if container.SyncCoordinator != nil {
			cliApp.SetSyncCoordinator(container.SyncCoordinator)
		}
		if container.ConflictDetector != nil {
			cliApp.SetConflictDetector(container.ConflictDetector)
		}
	}

	cli.SetApp(cliApp)

	cli.AddCommand(series.Cmd)
	cli.AddCommand(reflow.Cmd)

	cli.Execute()
}

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/pokearena/internal/api"
	"github.com/mcoot/pokearena/internal/config"
	"github.com/mcoot/pokearena/internal/factory"
	"github.com/mcoot/pokearena/internal/scheduler"
)

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := factory.New(ctx, factory.ConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	jobs, err := scheduleJobs(app, cfg, logger)
	if err != nil {
		logger.Error("failed to schedule jobs", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jobs.Start()

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Router(cfg.AllowedOrigins), serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := jobs.Shutdown(); err != nil {
		logger.Error("scheduler shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}

// scheduleJobs registers the periodic maintenance jobs
func scheduleJobs(app *factory.App, cfg config.Config, logger *slog.Logger) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(logger)
	if err != nil {
		return nil, err
	}

	err = s.Every("session-sweep", cfg.SessionSweepInterval, func(ctx context.Context) error {
		if n := app.AuthService.CleanExpiredSessions(ctx); n > 0 {
			logger.Info("expired sessions removed", slog.Int("count", n))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if app.BackupService != nil {
		err = s.Every("backup", cfg.BackupInterval, func(ctx context.Context) error {
			_, err := app.BackupService.Snapshot(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

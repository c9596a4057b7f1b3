package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jitenkr2030/Rail-Clean/internal/analytics"
	"github.com/jitenkr2030/Rail-Clean/internal/config"
	"github.com/jitenkr2030/Rail-Clean/internal/feedback"
	httpserver "github.com/jitenkr2030/Rail-Clean/internal/http"
	"github.com/jitenkr2030/Rail-Clean/internal/logging"
	"github.com/jitenkr2030/Rail-Clean/internal/notify"
	"github.com/jitenkr2030/Rail-Clean/internal/photos"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
	"github.com/jitenkr2030/Rail-Clean/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot := logging.New(os.Stderr, "info")
	if err := config.LoadDotEnv(); err != nil {
		boot.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With().Str("service", "rail-clean").Logger()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init alert notifier")
	}

	photoStore, err := photos.NewFileStore(cfg.PhotoDir, httpserver.PhotoPrefix, cfg.PhotoMaxBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("init photo store")
	}

	repo := repository.New(st)
	feedbackSvc := feedback.NewService(repo.Ratings, repo.Alerts, notifier, logger)
	server := httpserver.New(cfg, httpserver.Deps{
		Health:   st,
		Feedback: feedbackSvc,
		Reports:  analytics.NewService(repo.Snapshot, cfg.Location()),
		Coaches:  repo.Network,
		Teams:    repo.Staff,
		Records:  repo.Staff,
		Photos:   photoStore,
		Logger:   logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	feedbackSvc.Wait()
	logger.Info().Msg("shutdown complete")
}

func buildNotifier(cfg config.Config, logger zerolog.Logger) (notify.Notifier, error) {
	if cfg.AlertWebhookURL == "" {
		return notify.Noop{}, nil
	}
	timeout := time.Duration(cfg.AlertWebhookTimeoutSecs) * time.Second
	return notify.NewHTTPClient(cfg.AlertWebhookURL, cfg.AlertWebhookAPIKey, timeout, logger)
}

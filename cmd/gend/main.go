// gend is the assistant server: chat with mode-aware context, a decision
// engine that turns requests into PDF and Excel files, and a fallback chain
// of generative models behind a per-model cooldown breaker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gen-labs/gen-assistant/internal/api"
	"github.com/gen-labs/gen-assistant/internal/config"
	"github.com/gen-labs/gen-assistant/internal/metrics"
	"github.com/gen-labs/gen-assistant/pkg/cache"
	"github.com/gen-labs/gen-assistant/pkg/dispatch"
	"github.com/gen-labs/gen-assistant/pkg/docgen"
	"github.com/gen-labs/gen-assistant/pkg/market"
	"github.com/gen-labs/gen-assistant/pkg/prompt"
	"github.com/gen-labs/gen-assistant/pkg/router"
	"github.com/gen-labs/gen-assistant/pkg/search"
	"github.com/gen-labs/gen-assistant/pkg/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Info("starting gend",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("provider", cfg.Provider),
		zap.Strings("models", cfg.Models))

	ctx := context.Background()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", zap.Error(err))
		}
	}()
	if err := repo.Ping(ctx); err != nil {
		return err
	}
	logger.Info("database connected")

	gen, err := docgen.New(cfg.DocsDir, logger)
	if err != nil {
		return err
	}

	dp := dispatch.New(gen, repo, logger)
	dp.OnFile = func(kind string) {
		metrics.FilesGenerated.WithLabelValues(kind).Inc()
	}

	rt := router.New(router.Options{
		Cooldown: time.Duration(cfg.CooldownSeconds) * time.Second,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:   logger,
		OnAttempt: func(endpoint, outcome string) {
			metrics.RouterAttempts.WithLabelValues(endpoint, outcome).Inc()
		},
		OnExhausted: func() {
			metrics.RouterExhaustions.Inc()
		},
	})

	keys := config.KeyStore{Dir: cfg.UserConfigDir}
	activator := api.NewKeyActivator(keys, rt, cfg.Provider, cfg.Models, logger)
	if err := activator.Bootstrap(ctx); err != nil {
		// A stale key should not keep the server down; activation can fix it.
		logger.Warn("stored key bootstrap failed", zap.Error(err))
	}

	mkt := market.NewService(cache.New(), logger)
	mkt.TTL = time.Duration(cfg.MarketTTLSecs) * time.Second
	mkt.OnLookup = func(outcome string) {
		metrics.CacheLookups.WithLabelValues(outcome).Inc()
	}

	asm := prompt.NewAssembler(repo, search.NewClient(logger), mkt, repo, logger)

	handler := api.NewHandler(repo, rt, dp, asm, activator, cfg.DocsDir, cfg.StaticDir, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// openRepository picks Postgres when a DSN is configured, SQLite otherwise.
func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	if cfg.PostgresDSN != "" {
		return store.NewPostgres(ctx, cfg.PostgresDSN)
	}
	return store.NewSQLite(cfg.DBPath)
}

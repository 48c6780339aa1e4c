// Package main implements the gateway's server entry point: load
// configuration, connect to Postgres, reconcile the YAML config document,
// wire the dispatcher, and serve HTTP until an interrupt signal arrives.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fusion-gw/fusion/config"
	"github.com/fusion-gw/fusion/internal/compose"
	"github.com/fusion-gw/fusion/internal/configloader"
	httpdelivery "github.com/fusion-gw/fusion/internal/delivery/http"
	"github.com/fusion-gw/fusion/internal/dispatch"
	"github.com/fusion-gw/fusion/internal/repository/postgres"
	"github.com/fusion-gw/fusion/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Init(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("connected to database")

	sources := postgres.NewSourceRepository()
	destinations := postgres.NewDestinationRepository()
	tokens := postgres.NewAuthTokenRepository()
	versions := postgres.NewConfigVersionRepository()

	repos := configloader.Repositories{
		Sources:      sources,
		Destinations: destinations,
		Tokens:       tokens,
		Versions:     versions,
	}
	if err := reconcileConfig(ctx, repos, cfg.ConfigFile, logger); err != nil {
		logger.Fatal("failed to reconcile configuration", zap.Error(err))
	}

	authorizer := dispatch.NewAuthorizer(tokens, destinations)
	composer := compose.New()
	dispatcher := dispatch.New(destinations, authorizer, composer, logger)

	router := httpdelivery.NewRouter(dispatcher, cfg.API.BindPath)
	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func reconcileConfig(ctx context.Context, repos configloader.Repositories, path string, logger *zap.Logger) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}

	changed, err := configloader.Reconcile(ctx, tx, repos, path)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if changed {
		logger.Info("configuration reconciled", zap.String("file", path))
	} else {
		logger.Info("configuration unchanged", zap.String("file", path))
	}
	return nil
}

// Package main runs the API to manage users, roles and their income and expense transactions.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-petr/pet-finance/cmd/httpserver"
	"github.com/go-petr/pet-finance/internal/eventpkg"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/pkg/configpkg"
	"github.com/go-petr/pet-finance/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	logger := middleware.CreateLogger(config)

	if config.MigrateOnStart {
		if err := dbpkg.Migrate(config.DBDriver, config.DBSource); err != nil {
			logger.Fatal().Err(err).Msg("cannot migrate database")
		}
	}

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	publisher, err := eventpkg.New(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create event publisher")
	}
	defer publisher.Close()

	server, err := httpserver.New(db, logger, config, publisher)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.AdminEmail != "" {
		created, err := server.Users.EnsureAdmin(logger.WithContext(ctx), config.AdminName, config.AdminEmail, config.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot create admin user")
		}

		if created {
			logger.Info().Str("email", config.AdminEmail).Msg("admin user bootstrapped")
		}
	}

	httpServer := &http.Server{
		Addr:    config.ServerAddress,
		Handler: server,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", config.ServerAddress).Msg("FINANCE API SERVER HAS STARTED")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		logger.Info().Msg("shutting down server")

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}

	logger.Info().Msg("server stopped")
}

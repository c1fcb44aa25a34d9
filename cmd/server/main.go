package main

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/restkit/internal/api"
	"github.com/skybi/restkit/internal/config"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/storage/cache"
	"github.com/skybi/restkit/internal/storage/memory"
	"github.com/skybi/restkit/internal/storage/postgres"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Info().Msg("starting up...")

	// Load the application configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		// Set up zerolog to use pretty printing
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out: os.Stderr,
		})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("storage", cfg.Storage).Str("listen_address", cfg.ListenAddress).Bool("oidc", cfg.OIDCEnabled()).Msg("loaded configuration")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize the storage driver
	log.Info().Str("driver", cfg.Storage).Msg("initializing storage...")
	driver, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the storage driver")
	}
	defer driver.Close()

	// Start up the API
	log.Info().Str("address", cfg.ListenAddress).Msg("starting up the API...")
	apis := &api.Service{
		Config:  cfg,
		Storage: driver,
	}
	apiErrs := make(chan error, 1)
	apis.Startup(ctx, apiErrs)
	defer func() {
		log.Info().Msg("shutting down the API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		apis.Shutdown(shutdownCtx)
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	select {
	case <-ctx.Done():
	case err := <-apiErrs:
		log.Error().Err(err).Msg("the API service raised an unexpected error")
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	var driver storage.Driver
	switch cfg.Storage {
	case "memory":
		driver = memory.New()
	case "postgres":
		driver = postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver '%s'", cfg.Storage)
	}
	if err := driver.Initialize(ctx); err != nil {
		return nil, err
	}
	if cfg.CacheDisabled {
		return driver, nil
	}

	cached := cache.New(driver, cache.Config{
		Lifetime: cfg.CacheLifetime,
		Cleanup:  cache.DefaultConfig().Cleanup,
	})
	if err := cached.Initialize(ctx); err != nil {
		driver.Close()
		return nil, err
	}
	return cached, nil
}

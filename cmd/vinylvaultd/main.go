// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Command vinylvaultd runs the VinylVault core: the selection engine, the
// cover art cache and their supervised background maintenance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/vinylvault/internal/config"
	"github.com/tomtom215/vinylvault/internal/imagecache"
	"github.com/tomtom215/vinylvault/internal/library"
	"github.com/tomtom215/vinylvault/internal/logging"
	"github.com/tomtom215/vinylvault/internal/selection"
	"github.com/tomtom215/vinylvault/internal/supervisor"
	"github.com/tomtom215/vinylvault/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: search standard locations)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("vinylvaultd " + version)
		return
	}

	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("loading configuration failed")
	}

	logging.Init(cfg.Log)
	logging.Info().
		Str("version", version).
		Str("store", cfg.Store.Path).
		Str("images", cfg.Images.Dir).
		Msg("vinylvault starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openBadger(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("opening store failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("closing store failed")
		}
	}()

	lib := library.NewStore(db, logging.Logger())

	engine, err := selection.NewEngine(&cfg.Engine, lib, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("building selection engine failed")
	}
	if err := engine.Init(ctx); err != nil {
		logging.Fatal().Err(err).Msg("initializing selection engine failed")
	}

	images, err := imagecache.NewService(&cfg.Images, db, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("building image cache failed")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logging.Logger()), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewRefreshService(engine, cfg.Engine.RefreshInterval, logging.Logger()))
	tree.AddMaintenanceService(services.NewCleanupService(images, 24*time.Hour, logging.Logger()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("waiting for supervised services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	stats := engine.Statistics()
	logging.Info().
		Int64("selections", stats.TotalSelections).
		Int64("fallbacks", stats.FallbackSelections).
		Msg("vinylvault stopped")
}

func openBadger(cfg *config.StoreConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil
	return badger.Open(opts)
}

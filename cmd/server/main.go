// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

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

	_ "github.com/tomtom215/aeropacer/docs" // Import generated swagger docs
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/supervisor"
	"github.com/tomtom215/aeropacer/internal/supervisor/services"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	migrateMode := flag.String("migrate", "", "run a schema migration command (up, down or status) and exit")
	flag.Parse()
	if *migrateMode != "" && !validMigrateMode(*migrateMode) {
		fmt.Fprintf(os.Stderr, "invalid -migrate value %q: want up, down or status\n", *migrateMode)
		os.Exit(2)
	}

	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if *migrateMode != "" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err := migrateOnly(ctx, cfg, *migrateMode, os.Stdout)
		stop()
		if err != nil {
			logging.Error().Err(err).Str("mode", *migrateMode).Msg("Migration command failed")
			os.Exit(1)
		}
		return
	}

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Bool("strava_enabled", cfg.Strava.Enabled).
		Bool("ml_enabled", cfg.ML.Enabled).
		Msg("Starting AeroPacer with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// Bridges zerolog to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddDataService(a.bus)

	tree.AddMessagingService(a.hub)
	tree.AddMessagingService(a.janitor)
	if a.scheduler != nil {
		tree.AddMessagingService(a.scheduler)
		logging.Info().Dur("interval", cfg.Sync.Interval).Msg("Strava sync scheduler added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", a.server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel yields exactly one result and is never closed.
	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	return runErr
}

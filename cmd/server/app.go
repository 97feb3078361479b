// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/aeropacer/internal/activities"
	"github.com/tomtom215/aeropacer/internal/analytics"
	"github.com/tomtom215/aeropacer/internal/api"
	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/authz"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/events"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/ml"
	"github.com/tomtom215/aeropacer/internal/strava"
	"github.com/tomtom215/aeropacer/internal/users"
	"github.com/tomtom215/aeropacer/internal/websocket"
)

// app holds the components main owns. Supervised services are started by the
// tree; everything else is released by close.
type app struct {
	db         *database.DB
	states     auth.StateStore
	enforcer   *authz.Enforcer
	bus        *events.Bus
	hub        *websocket.Hub
	janitor    *auth.StateJanitor
	stravaSvc  *strava.Service
	scheduler  *strava.Scheduler
	statsCache *activities.StatsCache
	server     *http.Server
}

// newApp opens storage and wires the services and HTTP server. On error,
// everything opened so far is closed.
//
//nolint:gocyclo // Sequential wiring
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.db, err = database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		applied, migErr := a.db.Migrate(ctx)
		if migErr != nil {
			return nil, fmt.Errorf("migrate database: %w", migErr)
		}
		logging.Info().Int("applied", applied).Msg("Database migrations complete")
	}

	userRepo := database.NewUserRepository(a.db)
	tokenRepo := database.NewTokenRepository(a.db)
	activityRepo := database.NewActivityRepository(a.db)
	eventRepo := database.NewEventRepository(a.db)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("create JWT manager: %w", err)
	}

	a.states, err = auth.NewStateStore(cfg.StateStore)
	if err != nil {
		return nil, fmt.Errorf("create OAuth state store: %w", err)
	}
	a.janitor = auth.NewStateJanitor(a.states, cfg.StateStore.CleanupInterval)

	a.enforcer, err = authz.NewEnforcer(authz.ConfigFromSecurity(cfg.Security.Casbin))
	if err != nil {
		return nil, fmt.Errorf("create authorization enforcer: %w", err)
	}

	a.bus, err = events.NewBus(cfg.Events)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	logging.Info().Str("backend", a.bus.Backend()).Msg("Event bus created")

	a.hub = websocket.NewHub()

	analyticsSvc := analytics.NewService(cfg, eventRepo)

	a.statsCache = activities.NewStatsCache(cfg.Cache.StatsTTL)
	activitySvc := activities.NewService(cfg, activityRepo, userRepo, a.bus, analyticsSvc, a.statsCache)

	if err = events.Register(a.bus, events.Consumers{
		Recorder: analyticsSvc,
		Notifier: a.hub,
		Cache:    activitySvc,
	}); err != nil {
		return nil, fmt.Errorf("register event consumers: %w", err)
	}

	svcs := api.Services{
		Auth:       auth.NewService(userRepo, tokenRepo, jwtManager, analyticsSvc),
		Activities: activitySvc,
		Analytics:  analyticsSvc,
		Hub:        a.hub,
		DB:         a.db,
	}

	// Left as a nil interface when Strava is off so users.Service skips
	// provider revocation.
	var disconnector users.Disconnector
	if cfg.Strava.Enabled {
		a.stravaSvc = strava.NewService(cfg, strava.NewClient(&cfg.Strava), a.states, tokenRepo, userRepo, activityRepo, a.bus)
		a.scheduler = strava.NewScheduler(a.stravaSvc, cfg.Sync.Interval)
		disconnector = a.stravaSvc
		svcs.Strava = a.stravaSvc
		svcs.SyncAll = a.scheduler
		logging.Info().Str("redirect_uri", cfg.Strava.RedirectURI).Msg("Strava integration enabled")
	} else {
		logging.Info().Msg("Strava integration disabled")
	}
	svcs.Users = users.NewService(userRepo, tokenRepo, disconnector, activitySvc)

	var mlClient *ml.Client
	if cfg.ML.Enabled {
		mlClient = ml.NewClient(&cfg.ML)
		logging.Info().Str("url", cfg.ML.URL).Msg("ML service enabled")
	} else {
		logging.Info().Msg("ML service disabled, using local heuristics")
	}
	svcs.ML = ml.NewService(mlClient, activityRepo, userRepo)

	handler := api.NewHandler(cfg, svcs, version)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), authz.NewMiddleware(a.enforcer))

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// close releases non-supervised resources. In-flight Strava syncs finish
// before the database pool goes away.
func (a *app) close() {
	if a.stravaSvc != nil {
		a.stravaSvc.Wait()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.statsCache != nil {
		a.statsCache.Close()
	}
	if a.enforcer != nil {
		a.enforcer.Close()
	}
	if a.states != nil {
		if err := a.states.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing OAuth state store")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}

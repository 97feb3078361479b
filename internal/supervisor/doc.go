// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package supervisor runs AeroPacer's long-lived components under a suture v4
supervision tree.

The tree has three layers under a root supervisor:

	aeropacer
	├── data-layer       event bus (Watermill router, embedded NATS)
	├── messaging-layer  websocket hub, Strava sync scheduler, OAuth state janitor
	└── api-layer        HTTP server

A component that returns an error or panics is restarted by its layer's
supervisor with exponential backoff once FailureThreshold failures
accumulate (decaying by FailureDecay per second). A crashing scheduler
therefore never takes down the HTTP server.

Supervisor events (restarts, backoff, shutdown timeouts) are logged through
sutureslog using the slog adapter from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(bus)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, timeout))
	err = tree.Serve(ctx)
*/
package supervisor

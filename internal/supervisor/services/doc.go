// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package services adapts AeroPacer components that do not already follow the
suture.Service shape.

Components with a native Serve(ctx) error method (websocket.Hub,
events.Bus, strava.Scheduler, auth.StateJanitor) are added to the tree
directly. The HTTP server blocks in ListenAndServe and needs an explicit
Shutdown, so it is wrapped:

	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Setup()}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

Serve returns nil or ctx.Err() on a requested shutdown and a wrapped error
when the listener fails, which lets suture decide whether to restart.
*/
package services

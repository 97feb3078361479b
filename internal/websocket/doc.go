// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package websocket pushes live notifications to signed-in users.

A Hub tracks connected clients per user. Events from the internal bus reach
the hub through SendToUser and are delivered to every socket that user has
open on this instance:

	{"type": "sync_completed", "data": {...}}

Message types:
  - sync_completed: a Strava sync finished
  - activity_changed: an activity was created, updated or deleted
  - strava_connected, strava_disconnected: account link changes
  - pong: reply to a client {"type": "ping"}

Each client runs a read and a write goroutine. The server pings every 54s and
drops a connection that has not answered within 60s. A client whose send
buffer is full is disconnected rather than blocking delivery to others.

The hub implements suture.Service through Serve and closes every client when
its context is canceled.
*/
package websocket

// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package events is AeroPacer's internal event bus.

Domain services publish small JSON envelopes on a handful of topics; the
analytics recorder, the WebSocket notifier and the stats cache invalidator
consume them. The bus is built on Watermill:

  - With no NATS_URL the publisher and subscribers share an in-process
    gochannel, which is enough for a single instance.
  - With NATS_URL (or NATS_EMBEDDED=true, which starts a local nats-server)
    messages travel over core NATS. Each handler gets its own queue group so
    replicas share the work, except broadcast handlers such as the WebSocket
    notifier, which must see every message on every instance.

Handlers run under a Watermill router with panic recovery and bounded retry.
Delivery is at-most-once across restarts; consumers must tolerate loss.
*/
package events

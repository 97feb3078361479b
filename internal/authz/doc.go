// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package authz provides role-based authorization using Casbin.
//
// Authentication happens first (internal/auth puts the JWT claims in the
// request context); this package maps the caller's role and the request
// path to an allow or deny decision:
//
//	Request -> auth.Authenticate -> authz.AuthorizeRequest -> Handler
//
// # Model
//
// The embedded model is RBAC with path patterns and an action regex:
//
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
//
// HTTP methods map to read (GET, HEAD, OPTIONS), write (POST, PUT, PATCH)
// and delete (DELETE).
//
// # Roles
//
//	user   runner endpoints under /api/v1
//	admin  inherits user, plus /api/v1/admin/*
//
// A claim without a role falls back to the configured default role (user).
// Model and policy can be replaced from disk via CASBIN_MODEL_PATH and
// CASBIN_POLICY_PATH; the file policy is reloaded periodically.
//
// Decisions are cached per (subject, object, action) for a short TTL and
// counted in authz_decisions_total.
package authz

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package middleware holds the HTTP middleware shared by every cinematch route:
// request IDs with request logging, and Prometheus request metrics.
//
// Both are chi-style func(http.Handler) http.Handler and preserve the
// http.Hijacker of the underlying writer, so they can wrap websocket upgrades.
package middleware

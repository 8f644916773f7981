// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package catalog fetches item display metadata from a TMDB-compatible API.
//
// Results are passed straight through to callers and never cached. Requests
// are rate limited client-side and guarded by a circuit breaker so a failing
// provider does not tie up API handlers.
package catalog

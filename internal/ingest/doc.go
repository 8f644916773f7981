// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package ingest accepts like submissions and durably appends them to the
// like store.
//
// SubmitLike trims and validates identifiers, optionally requires the actor to
// hold a live session, and retries the append with bounded exponential backoff
// behind a circuit breaker. Ingest never touches the match index: the bridge
// observes every appended like through the store's live query.
//
// Failures map to four sentinel errors:
//
//	ErrInvalidInput      empty or malformed identifier
//	ErrNotConnected      actor has no live session
//	ErrStoreUnavailable  store closed or circuit open
//	ErrDeliveryFailed    retry budget exhausted
package ingest

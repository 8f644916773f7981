// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package bridge feeds the like store's live query into the matching engine.
//
// Each connection starts with a snapshot of every stored like, replayed in
// sequence order, followed by one event per newly appended like. Replaying a
// snapshot is safe because the index ignores likes it already holds and an
// item that was matched before stays matched without emitting again.
//
// When the feed ends for any reason other than shutdown (diff overflow, a
// store error, a listener error) the bridge counts a resnapshot, backs off,
// and listens again from a fresh snapshot.
package bridge

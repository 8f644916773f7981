// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package store is cinematch's durable state, kept in a single Badger database.
//
// Three logs share the database, each under its own key prefix:
//
//	like/<seq>                      append-only like log, seq from a Badger Sequence
//	match/<itemID>                  at most one MatchRecord per item
//	match_actor/<actor>/<ts>/<item> participant index over the match log
//	receipt/<actor>/<item>          one receipt per delivered (actor, match)
//
// '/' cannot appear in identifiers, so it is safe as a key separator.
//
// Listen exposes the like log as a live query: an initial snapshot in seq
// order followed by every later append. It is built on Badger's key
// subscription and ends with ErrFeedOverflow when the listener falls more than
// its buffer capacity behind.
package store

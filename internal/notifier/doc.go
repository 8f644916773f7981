// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package notifier turns match detections into durable match records and
// broker notifications.
//
// The Notifier is the matching engine's sink. Detections are queued on a
// bounded channel; when it is full the detecting shard blocks, which slows
// the bridge and in turn the live query. A single worker drains the queue:
//
//  1. CreateMatch stores the record if none exists for the item yet.
//  2. A newly created record is published on the match topic.
//
// A record that already exists means the detection is a replay of one
// handled before (a bridge resnapshot or a process restart), so nothing is
// published. Participants who missed the live notification receive it from
// the store when they next connect.
//
// If Serve is stopped while a detection is between those steps, the
// detection is kept and the next Serve finishes it before taking new work.
package notifier

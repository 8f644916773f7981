// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package matching is the like index and quorum evaluator.
//
// Each item moves through Unseen -> BelowQuorum(n) -> Matched. An item's
// ItemLikeSet only grows, and adding an actor it already holds changes nothing.
// The first like that brings the distinct count to the quorum emits exactly
// one MatchDetected; later likes keep extending the set but never emit again.
//
// Items are partitioned across shards by xxhash of the item ID. A shard is a
// bounded inbox drained by one goroutine that exclusively owns the index
// entries for its items, so per-item updates are linearized without locks and
// different shards never coordinate.
//
//	eng, _ := matching.NewEngine(matching.Config{Quorum: 2, Shards: 16, QueueSize: 1024}, sink)
//	go eng.Serve(ctx)
//	_ = eng.Submit(ctx, models.LikeEvent{ItemID: "m1", ActorID: "alice"})
package matching

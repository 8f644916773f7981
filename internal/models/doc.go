// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package models defines the data structures shared across cinematch.

Domain types:

  - LikeEvent / LikeRecord: one actor liking one item, before and after it is
    appended to the durable like log
  - MatchDetected / MatchRecord: the single quorum crossing for an item
  - Item / ItemPage: catalog metadata passed through to clients

HTTP types:

  - APIResponse, Metadata, APIError: the response envelope
  - LikeRequest: body of POST /api/v1/likes
  - HealthStatus: readiness report

All types are plain values with JSON tags and no behavior beyond small helpers.
*/
package models

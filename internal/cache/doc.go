// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package cache provides a bounded, thread-safe LRU with per-entry expiry.
//
// The catalog client keeps provider responses here so that a swipe deck
// shared by many participants costs one upstream request per page and TTL.
package cache

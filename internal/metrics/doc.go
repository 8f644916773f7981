// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package metrics declares cinematch's Prometheus collectors.
//
// Collectors are package-level and registered with the default registry via
// promauto; the API exposes them at /metrics. Record* helpers keep label
// values consistent across call sites.
package metrics

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package validation wraps go-playground/validator with cinematch's custom
// tags and API-friendly error messages.
//
// The "identifier" tag accepts 1 to 128 characters drawn from
// [A-Za-z0-9._:@-]. Item and actor IDs must satisfy it.
package validation

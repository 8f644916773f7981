// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid like input")
	ErrNotConnected     = errors.New("actor has no connected session")
	ErrStoreUnavailable = errors.New("like store unavailable")
	ErrDeliveryFailed   = errors.New("like delivery failed")
)

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package logging provides zerolog-based structured logging for cinematch.
//
// A single package-global logger is configured once at startup with Init and
// read through helpers such as Info, Warn and Error. JSON output is the default;
// "console" selects zerolog's human-readable writer for development.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("item_id", id).Msg("Match detected")
//
// Request-scoped fields travel in the context:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Warn().Msg("Store append retry")
//
// NewSlogLogger exposes the same sink as a *slog.Logger for libraries that
// expect log/slog: the suture supervisor (via sutureslog), Watermill and the
// embedded NATS server.
package logging

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package eventprocessor carries match notifications between the notifier and
// the session hub over Watermill.
//
// Two drivers are supported:
//
//   - memory: an in-process gochannel pub/sub. Messages do not survive a
//     restart; missed deliveries are recovered from the match store when an
//     actor reconnects.
//   - nats: NATS JetStream through watermill-nats. Publishing sets the
//     Nats-Msg-Id header from a UUID derived from the item ID, so the stream
//     drops duplicate publishes of the same match inside its dedup window.
//     An embedded server can be started in-process with EmbeddedServer.
//
// Every service instance consumes every match message: sessions live on
// whichever instance the client is connected to, so no queue group is used.
//
// The Router wraps a Watermill router with Recoverer and Retry middleware.
// Match payloads are encoded with EncodeMatch and decoded with DecodeMatch.
package eventprocessor

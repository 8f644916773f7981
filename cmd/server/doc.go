// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Command server runs the cinematch match detection service.

Participants authenticate with a token issued by the identity service,
open a websocket session and like items from the swipe deck. Every like is
appended to the like log; the like bridge replays the log into the sharded
match engine, which detects when enough distinct participants like the same
item. Each match is persisted exactly once and published on the match topic,
from which connected sessions are notified.

# Startup order

 1. Configuration (koanf: defaults, optional config.yaml, environment)
 2. Logging (zerolog)
 3. Like store (Badger)
 4. Match broker: in-process channels, external NATS, or embedded NATS
 5. Session hub, ingestor, notifier, engine and bridge
 6. Catalog client, token verification and the HTTP router
 7. Supervisor tree

# Configuration

Required:

	JWT_SECRET            32+ character HS256 secret shared with the identity service

Common:

	HTTP_PORT             listen port (default 8080)
	MATCH_QUORUM          distinct likes that make a match (default 2)
	STORE_PATH            Badger directory (default /data/cinematch)
	BROKER_DRIVER         memory or nats (default memory)
	NATS_EMBEDDED         run a NATS server in-process
	TMDB_API_KEY          enables the swipe deck catalog

# Signals

SIGINT and SIGTERM cancel the root context. Every supervised service gets
SUPERVISOR_SHUTDOWN_TIMEOUT to stop; the HTTP server waits for in-flight
requests within HTTP_SHUTDOWN_TIMEOUT. The broker and the store are closed
after the tree has stopped.
*/
package main

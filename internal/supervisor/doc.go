// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package supervisor runs cinematch's long-lived services under a suture v4 tree.

	root ("cinematch")
	├── data-layer
	│   ├── store-gc
	│   └── nats-server (embedded broker only)
	├── matching-layer
	│   ├── matching-engine
	│   ├── like-bridge
	│   └── match-notifier
	├── delivery-layer
	│   ├── websocket-hub
	│   └── match-delivery
	└── api-layer
	    └── http-server

Each layer counts failures on its own, so a delivery crash restarts the hub
and the delivery router without disturbing the engine's in-memory index.
Restarting the engine itself is safe: the bridge resnapshots the like log and
the engine's pending detections are flushed when its shards start again.

Supervisor events are logged through sutureslog with the component logger
from the logging package.
*/
package supervisor

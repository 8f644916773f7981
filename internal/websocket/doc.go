// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package websocket delivers match notifications to connected participants.

Key Components:

  - Hub: owns every live session, keyed by actor. Session bookkeeping runs
    on the hub's loop, one operation at a time. Receipts are checked there
    and written by Confirm from the write pump.
  - Client: one websocket connection with a read pump and a write pump.
  - Delivery: a Watermill router handler that feeds match_detected messages
    from the broker into the hub.

Frames:

Every frame the server sends carries a per-session sequence number (the
session cursor), starting at 1 after a hello frame at cursor 0.

  - hello: sent on connect with the session ID
  - match: a MatchRecord the actor participates in
  - pong:  reply to a client ping

Delivery Guarantees:

A match reaches each participant at least once; clients drop repeats by
item ID. The hub checks the actor's delivery receipt before queueing, and the
receipt is written only after the write pump has put the match frame on the
wire (Hub.Confirm). Actors with no session keep the match pending; it is
pushed when they next connect.

A session whose send queue is full is stalled: the hub drops it and the
connection is closed with a policy violation. Match frames still in its
queue were never written, so the client reconnects to a fresh hello followed
by those matches again.

Usage Example:

	hub := websocket.NewHub(websocket.DefaultConfig(), matchStore)
	go hub.Serve(ctx)

	upgrader := websocket.NewUpgrader(allowedOrigins)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    hub.ServeWS(upgrader, w, r, actorID)
	})
*/
package websocket

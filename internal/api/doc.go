// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package api is the cinematch HTTP surface.

Routes:

	POST /api/v1/likes              record a like (202)
	GET  /api/v1/matches            the caller's matches, ?pending=true for undelivered ones
	GET  /api/v1/matches/{itemId}   one match the caller participates in
	GET  /api/v1/items              swipe deck page from the catalog, ?page=N
	GET  /api/v1/items/{id}         catalog metadata for one item
	GET  /api/v1/ws                 upgrade to a match notification session
	GET  /api/v1/health/live        liveness
	GET  /api/v1/health/ready       readiness: store open and like feed connected
	GET  /metrics                   Prometheus

Everything under /api/v1 except health requires an actor token. Responses
use the models.APIResponse envelope; failures carry a stable error code:

	INVALID_INPUT        400  malformed body or identifier
	UNAUTHORIZED         401  missing or invalid token
	NOT_FOUND            404  no such match or item
	NOT_CONNECTED        409  like from an actor without a live session
	CATALOG_UNAVAILABLE  502  catalog provider failed
	DELIVERY_FAILED      503  like could not be stored within the retry budget
	STORE_UNAVAILABLE    503  like store closed or circuit open
*/
package api

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package auth authenticates actors from tokens minted by the identity service.

Tokens are HS256 JWTs signed with a secret shared with the identity service.
The subject claim is the actor ID. Cinematch never issues tokens itself;
GenerateToken exists for tests and local tooling.

Middleware reads the token from an "Authorization: Bearer" header or, since
browsers cannot set headers on websocket upgrades, from the access_token
query parameter. Handlers read the authenticated actor with ActorFromContext.

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, time.Hour)
	mw := auth.NewMiddleware(jwtManager)
	r.With(mw.Authenticate).Post("/likes", handler.SubmitLike)
*/
package auth

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package config loads cinematch configuration.
//
// Values are layered with koanf, later sources overriding earlier ones:
//
//  1. Struct defaults (defaultConfig)
//  2. An optional YAML file: $CONFIG_PATH, then ./config.yaml, ./config.yml,
//     /etc/cinematch/config.yaml
//  3. Environment variables, mapped through envTransformFunc
//     (JWT_SECRET -> security.jwt_secret, MATCH_QUORUM -> match.quorum, ...)
//
// Example config.yaml:
//
//	server:
//	  port: 8080
//	match:
//	  quorum: 2
//	  shards: 16
//	broker:
//	  driver: nats
//	  embedded: true
//	  store_dir: /data/nats
//
// Validate is called after loading and rejects configurations the engine
// cannot run with.
package config

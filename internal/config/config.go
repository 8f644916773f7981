// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Match      MatchConfig      `koanf:"match"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Store      StoreConfig      `koanf:"store"`
	Broker     BrokerConfig     `koanf:"broker"`
	Session    SessionConfig    `koanf:"session"`
	Bridge     BridgeConfig     `koanf:"bridge"`
	Notifier   NotifierConfig   `koanf:"notifier"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds token verification and request limiting settings.
type SecurityConfig struct {
	// JWTSecret is the HS256 key shared with the identity service. Required.
	JWTSecret string `koanf:"jwt_secret"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP. 0 disables limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// MatchConfig configures the like index and quorum evaluator.
type MatchConfig struct {
	// Quorum is the number of distinct actors on one item that makes a match.
	Quorum int `koanf:"quorum"`

	// Shards is the number of independent single-consumer index partitions.
	Shards int `koanf:"shards"`

	// ShardQueueSize bounds each shard's inbox. Submitters block when it is full.
	ShardQueueSize int `koanf:"shard_queue_size"`
}

// IngestConfig bounds how hard SubmitLike tries before reporting DeliveryFailed.
type IngestConfig struct {
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`

	// RequireConnectedSession rejects likes from actors without a live session.
	RequireConnectedSession bool `koanf:"require_connected_session"`
}

// StoreConfig configures the Badger database behind the like log and match log.
type StoreConfig struct {
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`

	// InMemory keeps everything in RAM. Matches do not survive restarts.
	InMemory bool `koanf:"in_memory"`

	// GCInterval between value log GC passes. Zero disables GC.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// BrokerConfig selects the match notification transport.
type BrokerConfig struct {
	// Driver is "memory" (in-process channels) or "nats" (JetStream).
	Driver string `koanf:"driver"`

	URL string `koanf:"url"`

	// Embedded starts a NATS server inside the process and ignores URL.
	Embedded bool   `koanf:"embedded"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	StoreDir string `koanf:"store_dir"`

	Topic       string `koanf:"topic"`
	DurableName string `koanf:"durable_name"`

	RetryCount        int           `koanf:"retry_count"`
	RetryInitialDelay time.Duration `koanf:"retry_initial_delay"`
	CloseTimeout      time.Duration `koanf:"close_timeout"`
}

// SessionConfig configures participant websocket sessions.
type SessionConfig struct {
	// SendQueueSize frames may be pending per session before it counts as stalled.
	SendQueueSize int `koanf:"send_queue_size"`
}

// BridgeConfig configures the live query consumer.
type BridgeConfig struct {
	// QueueSize bounds buffered diffs per connection; overflow forces a resnapshot.
	QueueSize           int           `koanf:"queue_size"`
	ReconnectBackoff    time.Duration `koanf:"reconnect_backoff"`
	MaxReconnectBackoff time.Duration `koanf:"max_reconnect_backoff"`
}

// NotifierConfig configures match persistence and publishing.
type NotifierConfig struct {
	QueueSize  int `koanf:"queue_size"`
	MaxRetries int `koanf:"max_retries"`
}

// CatalogConfig points at a TMDB-compatible catalog API.
type CatalogConfig struct {
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	ImageURL  string        `koanf:"image_url"`
	Language  string        `koanf:"language"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	RateBurst int           `koanf:"rate_burst"`

	// CacheTTL keeps provider responses in memory. Zero disables the cache.
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ShouldWarnAboutCORS reports whether any origin may call the API.
func (c *Config) ShouldWarnAboutCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

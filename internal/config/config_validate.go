// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateBroker(); err != nil {
		return err
	}
	if err := c.validateQueues(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Security.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.Quorum < 2 {
		return fmt.Errorf("MATCH_QUORUM must be at least 2, got %d", c.Match.Quorum)
	}
	if c.Match.Shards < 1 {
		return fmt.Errorf("MATCH_SHARDS must be at least 1, got %d", c.Match.Shards)
	}
	if c.Match.ShardQueueSize < 1 {
		return fmt.Errorf("MATCH_SHARD_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.MaxRetries < 0 {
		return fmt.Errorf("INGEST_MAX_RETRIES must not be negative")
	}
	if c.Ingest.InitialBackoff <= 0 || c.Ingest.MaxBackoff < c.Ingest.InitialBackoff {
		return fmt.Errorf("ingest backoff must satisfy 0 < initial_backoff <= max_backoff")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	if c.Store.GCInterval > 0 && (c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1) {
		return fmt.Errorf("STORE_GC_DISCARD must be between 0 and 1, got %v", c.Store.GCDiscardRatio)
	}
	return nil
}

func (c *Config) validateBroker() error {
	switch c.Broker.Driver {
	case "memory":
	case "nats":
		if !c.Broker.Embedded && c.Broker.URL == "" {
			return fmt.Errorf("NATS_URL is required when BROKER_DRIVER=nats without NATS_EMBEDDED")
		}
		if c.Broker.Embedded && c.Broker.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
		}
	default:
		return fmt.Errorf("BROKER_DRIVER must be 'memory' or 'nats', got %q", c.Broker.Driver)
	}
	if c.Broker.Topic == "" || strings.ContainsAny(c.Broker.Topic, ".*> ") {
		return fmt.Errorf("BROKER_TOPIC %q must be non-empty and contain no '.', '*', '>' or spaces", c.Broker.Topic)
	}
	return nil
}

func (c *Config) validateQueues() error {
	if c.Session.SendQueueSize < 1 {
		return fmt.Errorf("SESSION_SEND_QUEUE_SIZE must be at least 1")
	}
	if c.Bridge.QueueSize < 1 {
		return fmt.Errorf("BRIDGE_QUEUE_SIZE must be at least 1")
	}
	if c.Notifier.QueueSize < 1 {
		return fmt.Errorf("NOTIFIER_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute http(s) URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.RateLimit <= 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

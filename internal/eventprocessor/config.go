// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package eventprocessor

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverMemory = "memory"
	DriverNATS   = "nats"
)

// Config selects and tunes the message broker.
type Config struct {
	Driver string

	// URL of the NATS server. Ignored by the memory driver.
	URL string

	Topic string

	// DurableName is the JetStream consumer name for this instance.
	DurableName string

	// MemoryBuffer is the gochannel output buffer per subscriber.
	MemoryBuffer int64

	MaxReconnects int
	ReconnectWait time.Duration
	AckWait       time.Duration
	CloseTimeout  time.Duration

	// Circuit breaker around publishing.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns an in-memory broker on the match_detected topic.
func DefaultConfig() Config {
	return Config{
		Driver:          DriverMemory,
		URL:             "nats://127.0.0.1:4222",
		Topic:           "match_detected",
		DurableName:     "cinematch-delivery",
		MemoryBuffer:    256,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		AckWait:         30 * time.Second,
		CloseTimeout:    10 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Validate reports the first problem with cfg.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverNATS:
		if c.URL == "" {
			return fmt.Errorf("%w: nats url is required", ErrInvalidConfig)
		}
		if c.DurableName == "" {
			return fmt.Errorf("%w: durable name is required for nats", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, c.Driver)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	// JetStream stream names are derived from the topic and may not contain these.
	if strings.ContainsAny(c.Topic, ".*> ") {
		return fmt.Errorf("%w: topic %q contains reserved characters", ErrInvalidConfig, c.Topic)
	}
	return nil
}

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host     string
	Port     int
	StoreDir string

	JetStreamMaxMemory int64
	JetStreamMaxStore  int64
}

// DefaultServerConfig listens on localhost with a 1GB file store.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:               "127.0.0.1",
		Port:               4222,
		StoreDir:           "/data/nats",
		JetStreamMaxMemory: 64 * 1024 * 1024,
		JetStreamMaxStore:  1024 * 1024 * 1024,
	}
}

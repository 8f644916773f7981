// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinematch/config.yaml",
	"/etc/cinematch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Match: MatchConfig{
			Quorum:         2,
			Shards:         16,
			ShardQueueSize: 1024,
		},
		Ingest: IngestConfig{
			MaxRetries:              5,
			InitialBackoff:          50 * time.Millisecond,
			MaxBackoff:              2 * time.Second,
			RequireConnectedSession: true,
		},
		Store: StoreConfig{
			Path:           "/data/cinematch",
			SyncWrites:     true,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Broker: BrokerConfig{
			Driver:            "memory",
			URL:               "nats://127.0.0.1:4222",
			Embedded:          false,
			Host:              "127.0.0.1",
			Port:              4222,
			StoreDir:          "/data/nats",
			Topic:             "match_detected",
			DurableName:       "cinematch-delivery",
			RetryCount:        3,
			RetryInitialDelay: 100 * time.Millisecond,
			CloseTimeout:      30 * time.Second,
		},
		Session: SessionConfig{
			SendQueueSize: 256,
		},
		Bridge: BridgeConfig{
			QueueSize:           4096,
			ReconnectBackoff:    250 * time.Millisecond,
			MaxReconnectBackoff: 30 * time.Second,
		},
		Notifier: NotifierConfig{
			QueueSize:  1024,
			MaxRetries: 8,
		},
		Catalog: CatalogConfig{
			BaseURL:   "https://api.themoviedb.org/3",
			ImageURL:  "https://image.tmdb.org/t/p/w500",
			Language:  "en-US",
			Timeout:   10 * time.Second,
			RateLimit: 20,
			RateBurst: 10,
			CacheTTL:  10 * time.Minute,
			CacheSize: 2000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := configFilePath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	for _, key := range listKeys {
		if err := splitList(k, key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// configFilePath returns CONFIG_PATH when it names an existing file, else the
// first of DefaultConfigPaths that exists, else "".
func configFilePath() string {
	candidates := DefaultConfigPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// listKeys are slice-typed settings that arrive from the environment as a
// single comma-separated string.
var listKeys = []string{"security.cors_origins"}

func splitList(k *koanf.Koanf, key string) error {
	raw, ok := k.Get(key).(string)
	if !ok || raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if err := k.Set(key, items); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"jwt_secret":          "security.jwt_secret",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",

	"match_quorum":           "match.quorum",
	"match_shards":           "match.shards",
	"match_shard_queue_size": "match.shard_queue_size",

	"ingest_max_retries":               "ingest.max_retries",
	"ingest_initial_backoff":           "ingest.initial_backoff",
	"ingest_max_backoff":               "ingest.max_backoff",
	"ingest_require_connected_session": "ingest.require_connected_session",

	"store_path":        "store.path",
	"store_sync_writes": "store.sync_writes",
	"store_in_memory":   "store.in_memory",
	"store_gc_interval": "store.gc_interval",
	"store_gc_discard":  "store.gc_discard_ratio",

	"broker_driver":        "broker.driver",
	"nats_url":             "broker.url",
	"nats_embedded":        "broker.embedded",
	"nats_host":            "broker.host",
	"nats_port":            "broker.port",
	"nats_store_dir":       "broker.store_dir",
	"broker_topic":         "broker.topic",
	"nats_durable_name":    "broker.durable_name",
	"broker_retry_count":   "broker.retry_count",
	"broker_retry_delay":   "broker.retry_initial_delay",
	"broker_close_timeout": "broker.close_timeout",

	"session_send_queue_size": "session.send_queue_size",

	"bridge_queue_size":            "bridge.queue_size",
	"bridge_reconnect_backoff":     "bridge.reconnect_backoff",
	"bridge_max_reconnect_backoff": "bridge.max_reconnect_backoff",

	"notifier_queue_size":  "notifier.queue_size",
	"notifier_max_retries": "notifier.max_retries",

	"catalog_base_url":   "catalog.base_url",
	"catalog_api_key":    "catalog.api_key",
	"tmdb_api_key":       "catalog.api_key",
	"catalog_image_url":  "catalog.image_url",
	"catalog_language":   "catalog.language",
	"catalog_timeout":    "catalog.timeout",
	"catalog_rate_limit": "catalog.rate_limit",
	"catalog_rate_burst": "catalog.rate_burst",
	"catalog_cache_ttl":  "catalog.cache_ttl",
	"catalog_cache_size": "catalog.cache_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps a known environment variable to its config key.
// Unknown variables map to "" and are ignored.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

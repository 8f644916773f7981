// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.Match.Quorum != 2 {
		t.Errorf("Match.Quorum = %d, want 2", cfg.Match.Quorum)
	}
	if cfg.Match.Shards != 16 {
		t.Errorf("Match.Shards = %d, want 16", cfg.Match.Shards)
	}
	if !cfg.Ingest.RequireConnectedSession {
		t.Error("Ingest.RequireConnectedSession should default to true")
	}
	if cfg.Broker.Driver != "memory" {
		t.Errorf("Broker.Driver = %q, want memory", cfg.Broker.Driver)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}

	// Defaults are valid apart from the secret, which has no safe default.
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("expected JWT_SECRET error, got %v", err)
	}
	cfg.Security.JWTSecret = testSecret
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with secret should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"JWT_SECRET", "security.jwt_secret"},
		{"MATCH_QUORUM", "match.quorum"},
		{"NATS_EMBEDDED", "broker.embedded"},
		{"TMDB_API_KEY", "catalog.api_key"},
		{"log_level", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

// Load reads process environment, so these tests use t.Setenv and run serially.

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MATCH_QUORUM", "3")
	t.Setenv("MATCH_SHARDS", "4")
	t.Setenv("INGEST_MAX_BACKOFF", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORE_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Match.Quorum != 3 || cfg.Match.Shards != 4 {
		t.Errorf("match config = %+v", cfg.Match)
	}
	if cfg.Ingest.MaxBackoff != 5*time.Second {
		t.Errorf("Ingest.MaxBackoff = %v, want 5s", cfg.Ingest.MaxBackoff)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory should be true")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
security:
  jwt_secret: "` + testSecret + `"
match:
  quorum: 4
broker:
  driver: nats
  embedded: true
  store_dir: /tmp/nats
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("MATCH_QUORUM", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Match.Quorum != 5 {
		t.Errorf("env should override file: Match.Quorum = %d, want 5", cfg.Match.Quorum)
	}
	if cfg.Broker.Driver != "nats" || !cfg.Broker.Embedded {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	// Untouched sections keep their defaults.
	if cfg.Session.SendQueueSize != 256 {
		t.Errorf("Session.SendQueueSize = %d, want 256", cfg.Session.SendQueueSize)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MATCH_QUORUM", "1")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MATCH_QUORUM") {
		t.Errorf("expected quorum validation error, got %v", err)
	}
}

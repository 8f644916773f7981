// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		log       func(l *slog.Logger)
		wantLevel string
		wantParts []string
	}{
		{
			name:      "info with attrs",
			log:       func(l *slog.Logger) { l.Info("service started", "service", "hub", "attempt", 2) },
			wantLevel: `"level":"info"`,
			wantParts: []string{`"service":"hub"`, `"attempt":2`, "service started"},
		},
		{
			name:      "error value",
			log:       func(l *slog.Logger) { l.Error("service failed", "err", errors.New("boom")) },
			wantLevel: `"level":"error"`,
			wantParts: []string{`"err":"boom"`},
		},
		{
			name:      "grouped attrs",
			log:       func(l *slog.Logger) { l.WithGroup("sup").Warn("backoff", "name", "root") },
			wantLevel: `"level":"warn"`,
			wantParts: []string{`"sup.name":"root"`},
		},
		{
			name:      "inline group under handler group",
			log:       func(l *slog.Logger) { l.WithGroup("ws").Info("sent", slog.Group("frame", "kind", "match")) },
			wantLevel: `"level":"info"`,
			wantParts: []string{`"ws.frame.kind":"match"`},
		},
		{
			name:      "preset attrs",
			log:       func(l *slog.Logger) { l.With("component", "nats").Info("ready") },
			wantLevel: `"level":"info"`,
			wantParts: []string{`"component":"nats"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))
			tt.log(logger)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("missing level %s in %s", tt.wantLevel, out)
			}
			for _, p := range tt.wantParts {
				if !strings.Contains(out, p) {
					t.Errorf("missing %s in %s", p, out)
				}
			}
		})
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled for a warn-level logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled for a warn-level logger")
	}
}

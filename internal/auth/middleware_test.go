// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, _ := m.GenerateToken("alice", "")
	mw := NewMiddleware(m)

	var seen string
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantActor  string
	}{
		{"bearer header", "Bearer " + token, "", http.StatusNoContent, "alice"},
		{"lowercase scheme", "bearer " + token, "", http.StatusNoContent, "alice"},
		{"query parameter", "", "?access_token=" + token, http.StatusNoContent, "alice"},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic abc", "", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seen != tt.wantActor {
				t.Errorf("actor = %q, want %q", seen, tt.wantActor)
			}
			if rec.Code == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"UNAUTHORIZED"`) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestActorFromContext_Empty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ActorFromContext(req.Context()); got != "" {
		t.Errorf("actor = %q", got)
	}
	ctx := WithClaims(req.Context(), &Claims{})
	if _, ok := ClaimsFromContext(ctx); !ok {
		t.Error("claims not found")
	}
}

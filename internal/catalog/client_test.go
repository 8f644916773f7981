// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:  srv.URL + "/",
		APIKey:   "k3y",
		ImageURL: "https://img.test/w500/",
		Language: "en-US",
		Timeout:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error")
	}
}

func TestClient_Item(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "k3y" || r.URL.Query().Get("language") != "en-US" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club","overview":"...","poster_path":"/p.jpg","release_date":"1999-10-15","vote_average":8.4}`))
	})

	item, err := c.Item(context.Background(), "550")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.ID != "550" || item.Title != "Fight Club" || item.PosterURL != "https://img.test/w500/p.jpg" || item.Rating != 8.4 {
		t.Errorf("item = %+v", item)
	}
}

func TestClient_ItemNotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	})

	if _, err := c.Item(context.Background(), "1"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
	if _, err := c.Item(context.Background(), "not-a-number"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound for non-numeric id", err)
	}
}

func TestClient_Discover(t *testing.T) {
	t.Parallel()

	var page atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/popular" {
			t.Errorf("path = %s", r.URL.Path)
		}
		page.Store(r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":2,"total_pages":9,"results":[{"id":1,"title":"A"},{"id":2,"title":"B","poster_path":""}]}`))
	})

	deck, err := c.Discover(context.Background(), 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if page.Load() != "2" {
		t.Errorf("requested page = %v", page.Load())
	}
	if deck.Page != 2 || deck.TotalPages != 9 || len(deck.Items) != 2 || deck.Items[1].PosterURL != "" {
		t.Errorf("deck = %+v", deck)
	}

	if _, err := c.Discover(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if page.Load() != "1" {
		t.Errorf("page 0 should clamp to 1, got %v", page.Load())
	}
}

func TestClient_ProviderErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.Discover(context.Background(), 1); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 8; i++ {
		_, err := c.Discover(context.Background(), 1)
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("provider calls = %d, want 5 before the breaker opens", got)
	}
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < 8; i++ {
		_, _ = c.Item(context.Background(), "42")
	}
	if got := calls.Load(); got != 8 {
		t.Errorf("provider calls = %d, want 8", got)
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	}))
	t.Cleanup(srv.Close)
	c, _ := NewClient(Config{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1})

	if _, err := c.Discover(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Discover(ctx, 1); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestClient_CachesResponses(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/movie/550":
			_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Minute, CacheSize: 10})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		item, err := c.Item(context.Background(), "550")
		if err != nil || item.Title != "Fight Club" {
			t.Fatalf("Item = %+v, %v", item, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", calls.Load())
	}

	// Misses are not cached.
	for i := 0; i < 2; i++ {
		if _, err := c.Item(context.Background(), "404"); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3", calls.Load())
	}
}

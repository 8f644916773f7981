// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
)

var (
	// ErrItemNotFound means the provider has no item with the requested ID.
	ErrItemNotFound = errors.New("catalog item not found")

	// ErrCatalogUnavailable covers transport failures, provider errors,
	// rate limiting and an open circuit.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

const maxPage = 500

// Config for the provider client.
type Config struct {
	BaseURL   string
	APIKey    string
	ImageURL  string
	Language  string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// CacheTTL keeps successful responses for this long. Zero disables caching.
	CacheTTL  time.Duration
	CacheSize int
}

// Client is a TMDB v3 client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	responses  *cache.LRU[[]byte]
}

// NewClient returns a client for cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	cfg.ImageURL = strings.TrimSuffix(cfg.ImageURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := max(cfg.RateBurst, 1)

	const name = "catalog"
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing item is a valid answer, not a provider fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrItemNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
	}
	if cfg.CacheTTL > 0 {
		c.responses = cache.NewLRU[[]byte](cfg.CacheSize, cfg.CacheTTL)
	}
	return c, nil
}

type movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

type moviePage struct {
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Results    []movie `json:"results"`
}

// Item returns metadata for one item.
func (c *Client) Item(ctx context.Context, id string) (*models.Item, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: %q is not a catalog id", ErrItemNotFound, id)
	}

	body, err := c.get(ctx, "item", "/movie/"+id, nil)
	if err != nil {
		return nil, err
	}
	var m movie
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: decode item: %w", ErrCatalogUnavailable, err)
	}
	item := c.toItem(m)
	return &item, nil
}

// Discover returns one page of the swipe deck. Pages start at 1.
func (c *Client) Discover(ctx context.Context, page int) (*models.ItemPage, error) {
	page = min(max(page, 1), maxPage)

	body, err := c.get(ctx, "discover", "/movie/popular", url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return nil, err
	}
	var mp moviePage
	if err := json.Unmarshal(body, &mp); err != nil {
		return nil, fmt.Errorf("%w: decode page: %w", ErrCatalogUnavailable, err)
	}

	out := &models.ItemPage{Page: mp.Page, TotalPages: mp.TotalPages, Items: make([]models.Item, 0, len(mp.Results))}
	for _, m := range mp.Results {
		out.Items = append(out.Items, c.toItem(m))
	}
	return out, nil
}

func (c *Client) toItem(m movie) models.Item {
	item := models.Item{
		ID:          strconv.FormatInt(m.ID, 10),
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		Rating:      m.VoteAverage,
	}
	if m.PosterPath != "" && c.cfg.ImageURL != "" {
		item.PosterURL = c.cfg.ImageURL + m.PosterPath
	}
	return item
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	key := path + "?" + query.Encode()
	if c.responses != nil {
		if body, ok := c.responses.Get(key); ok {
			metrics.RecordCatalogRequest(endpoint, "cached", 0)
			return body, nil
		}
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, query)
	})
	result := "ok"
	switch {
	case errors.Is(err, ErrItemNotFound):
		result = "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	case err != nil:
		result = "error"
	}
	metrics.RecordCatalogRequest(endpoint, result, time.Since(start))
	if err == nil && c.responses != nil {
		c.responses.Add(key, body)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrCatalogUnavailable, err)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.cfg.APIKey != "" {
		query.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Language != "" {
		query.Set("language", c.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrCatalogUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrItemNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: provider returned status %d", ErrCatalogUnavailable, resp.StatusCode)
	}
	return body, nil
}

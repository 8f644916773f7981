// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cinematch/internal/auth"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/middleware"
)

// Router builds the chi route tree around a Handler.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
	cfg     config.SecurityConfig
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, cfg config.SecurityConfig) *Router {
	return &Router{handler: handler, auth: authMiddleware, cfg: cfg}
}

// Setup returns the root http.Handler.
//
// Middleware order: real IP, request ID and logging, panic recovery, CORS,
// per-IP rate limiting, then Prometheus instrumentation so that rejected
// requests are still counted.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(router.corsOptions()))
	if router.cfg.RateLimitReqs > 0 {
		window := router.cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.Limit(
			router.cfg.RateLimitReqs,
			window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(router.rateLimited),
		))
	}
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())

	h := router.handler
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.auth.Authenticate)

			r.Post("/likes", h.SubmitLike)

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", h.ListMatches)
				r.Get("/{itemId}", h.GetMatch)
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Get("/{id}", h.GetItem)
				r.Get("/{id}/likes", h.ItemLikes)
			})

			r.Get("/ws", h.Session)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "route not found", nil)
	})

	return r
}

func (router *Router) corsOptions() cors.Options {
	origins := router.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	}
}

func (router *Router) rateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "too many requests", nil)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

// HealthLive reports that the process is up. It never touches dependencies.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}, 0)
}

// HealthReady reports whether likes can be stored and matches detected:
// the store must be open and the like feed connected.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{Timestamp: time.Now().UTC()}
	if h.store != nil {
		status.StoreOpen = h.store.IsOpen()
	}
	if h.feed != nil {
		status.FeedConnected = h.feed.Connected()
		status.Resnapshots = h.feed.Resnapshots()
	}
	if h.counter != nil {
		status.ActiveSessions = h.counter.ActiveSessions()
	}

	code := http.StatusOK
	status.Status = "ready"
	if !status.StoreOpen || !status.FeedConnected {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, r, code, &models.APIResponse{
		Status: "success",
		Data:   status,
	})
}

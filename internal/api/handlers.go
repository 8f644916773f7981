// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/auth"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/ingest"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/matching"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/store"
	"github.com/tomtom215/cinematch/internal/validation"
)

// LikeSubmitter records likes. Implemented by *ingest.Ingestor.
type LikeSubmitter interface {
	SubmitLike(ctx context.Context, actorID, itemID, itemTitle string) (models.LikeRecord, error)
}

// MatchReader reads the match log. Implemented by *store.Store.
type MatchReader interface {
	GetMatch(ctx context.Context, itemID string) (*models.MatchRecord, error)
	MatchesForActor(ctx context.Context, actorID string) ([]models.MatchRecord, error)
	UndeliveredMatches(ctx context.Context, actorID string) ([]models.MatchRecord, error)
}

// Catalog resolves swipe deck content. Implemented by *catalog.Client.
type Catalog interface {
	Item(ctx context.Context, id string) (*models.Item, error)
	Discover(ctx context.Context, page int) (*models.ItemPage, error)
}

// LikeIndex reports live matching state per item. Implemented by *matching.Engine.
type LikeIndex interface {
	Item(ctx context.Context, itemID string) (matching.ItemSnapshot, error)
	Quorum() int
}

// SessionServer upgrades a request into a notification session.
type SessionServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, actorID string)
}

// SessionServerFunc adapts a function to SessionServer.
type SessionServerFunc func(w http.ResponseWriter, r *http.Request, actorID string)

func (f SessionServerFunc) ServeWS(w http.ResponseWriter, r *http.Request, actorID string) {
	f(w, r, actorID)
}

// Health sources consulted by the readiness probe.
type (
	StoreHealth interface{ IsOpen() bool }
	FeedHealth  interface {
		Connected() bool
		Resnapshots() int64
	}
	SessionCounter interface{ ActiveSessions() int }
)

// Handler serves the HTTP API.
type Handler struct {
	likes    LikeSubmitter
	matches  MatchReader
	catalog  Catalog
	sessions SessionServer
	index    LikeIndex

	store    StoreHealth
	feed     FeedHealth
	counter  SessionCounter
	started  time.Time
	deadline time.Duration
}

// Deps groups what NewHandler needs. Catalog, Sessions and Index may be nil,
// in which case their routes answer 503.
type Deps struct {
	Likes    LikeSubmitter
	Matches  MatchReader
	Catalog  Catalog
	Sessions SessionServer
	Index    LikeIndex
	Store    StoreHealth
	Feed     FeedHealth
	Counter  SessionCounter

	// RequestTimeout bounds likes and match reads. Zero means 10s.
	RequestTimeout time.Duration
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		likes:    d.Likes,
		matches:  d.Matches,
		catalog:  d.Catalog,
		sessions: d.Sessions,
		index:    d.Index,
		store:    d.Store,
		feed:     d.Feed,
		counter:  d.Counter,
		started:  time.Now(),
		deadline: timeout,
	}
}

// SubmitLike records that the caller likes an item.
//
// @Summary Record a like
// @Tags Likes
// @Accept json
// @Produce json
// @Param request body models.LikeRequest true "Liked item"
// @Success 202 {object} models.APIResponse{data=models.LikeRecord}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /likes [post]
func (h *Handler) SubmitLike(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorFromContext(r.Context())

	var req models.LikeRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline)
	defer cancel()

	rec, err := h.likes.SubmitLike(ctx, actorID, req.ItemID, req.ItemTitle)
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusAccepted, rec, 1)
	case errors.Is(err, ingest.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid like", err)
	case errors.Is(err, ingest.ErrNotConnected):
		respondError(w, r, http.StatusConflict, CodeNotConnected, "open a session before liking items", err)
	case errors.Is(err, ingest.ErrStoreUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, CodeStoreUnavailable, "like store unavailable", err)
	case errors.Is(err, ingest.ErrDeliveryFailed):
		respondError(w, r, http.StatusServiceUnavailable, CodeDeliveryFailed, "like could not be recorded, retry later", err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, CodeTimeout, "request timed out", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to record like", err)
	}
}

// ListMatches returns the caller's matches, or only those not yet delivered
// to any of the caller's sessions when pending=true.
//
// @Summary List matches
// @Tags Matches
// @Produce json
// @Param pending query bool false "Only undelivered matches"
// @Success 200 {object} models.APIResponse{data=[]models.MatchRecord}
// @Router /matches [get]
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline)
	defer cancel()

	var (
		matches []models.MatchRecord
		err     error
	)
	if getBoolParam(r, "pending") {
		matches, err = h.matches.UndeliveredMatches(ctx, actorID)
	} else {
		matches, err = h.matches.MatchesForActor(ctx, actorID)
	}
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.MatchRecord{}
	}
	respondSuccess(w, r, http.StatusOK, matches, len(matches))
}

// GetMatch returns one match the caller takes part in. Matches of other
// actors are reported as not found.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorFromContext(r.Context())
	itemID := chi.URLParam(r, "itemId")
	if !validation.ValidIdentifier(itemID) {
		respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid item id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline)
	defer cancel()

	rec, err := h.matches.GetMatch(ctx, itemID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if !rec.HasParticipant(actorID) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "match not found", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, rec, 1)
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, "match not found", nil)
	case errors.Is(err, store.ErrStoreClosed):
		respondError(w, r, http.StatusServiceUnavailable, CodeStoreUnavailable, "match store unavailable", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to read matches", err)
	}
}

// ListItems returns a page of the swipe deck.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeCatalogUnavailable, "catalog not configured", nil)
		return
	}
	page, err := h.catalog.Discover(r.Context(), getIntParam(r, "page", 1))
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, page, len(page.Items))
}

// GetItem returns catalog metadata for one item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeCatalogUnavailable, "catalog not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if !validation.ValidIdentifier(id) {
		respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid item id", nil)
		return
	}
	item, err := h.catalog.Item(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, item, 1)
}

// ItemLikes reports how close an item is to a match, as seen by the shard
// that owns it.
func (h *Handler) ItemLikes(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeInternal, "like index not available", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if !validation.ValidIdentifier(id) {
		respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid item id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline)
	defer cancel()

	snap, err := h.index.Item(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, r, http.StatusGatewayTimeout, CodeTimeout, "like index did not answer", err)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, CodeInternal, "like index not available", err)
		return
	}

	caller := auth.ActorFromContext(r.Context())
	view := models.ItemLikes{ItemID: snap.ItemID, State: snap.State, Likes: snap.Count, Quorum: h.index.Quorum()}
	for _, a := range snap.Actors {
		if a == caller {
			view.LikedBy = true
			break
		}
	}
	respondSuccess(w, r, http.StatusOK, view, 1)
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrItemNotFound) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "item not found", nil)
		return
	}
	respondError(w, r, http.StatusBadGateway, CodeCatalogUnavailable, "catalog unavailable", err)
}

// Session upgrades the connection to a websocket notification session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeInternal, "sessions not available", nil)
		return
	}
	actorID := auth.ActorFromContext(r.Context())
	logging.Ctx(r.Context()).Debug().Msg("Opening notification session")
	h.sessions.ServeWS(w, r, actorID)
}

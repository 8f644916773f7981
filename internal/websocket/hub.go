// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
)

// Frame types.
const (
	FrameHello = "hello"
	FrameMatch = "match"
	FramePing  = "ping"
	FramePong  = "pong"
)

// ErrSessionStalled is the terminal error of a session whose queue overflowed.
var ErrSessionStalled = errors.New("session stalled")

// Frame is one server-to-client message.
type Frame struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Data any    `json:"data,omitempty"`

	// itemID is set on match frames so the writer can confirm them.
	itemID string
}

func matchFrame(rec models.MatchRecord) Frame {
	return Frame{Type: FrameMatch, Data: rec, itemID: rec.ItemID}
}

// Hello is the payload of the first frame on a session.
type Hello struct {
	SessionID string `json:"session_id"`
	ActorID   string `json:"actor_id"`
	Cursor    uint64 `json:"cursor"`
}

// ReceiptStore tracks which participants have been shown which matches.
type ReceiptStore interface {
	UndeliveredMatches(ctx context.Context, actorID string) ([]models.MatchRecord, error)
	IsDelivered(ctx context.Context, actorID, itemID string) (bool, error)
	MarkDelivered(ctx context.Context, actorID, itemID string) (bool, error)
}

// Config sizes session queues.
type Config struct {
	SendQueueSize int
}

func DefaultConfig() Config {
	return Config{SendQueueSize: 256}
}

// Hub owns all sessions. Session maps and cursors are only touched by the
// Serve loop; presence counts are shared under mu for IsConnected.
type Hub struct {
	cfg      Config
	receipts ReceiptStore
	ops      chan func(ctx context.Context)
	log      zerolog.Logger

	sessions map[string]map[string]*Session

	mu       sync.RWMutex
	presence map[string]int
	total    int
}

// NewHub returns a hub that records deliveries in receipts.
func NewHub(cfg Config, receipts ReceiptStore) *Hub {
	if cfg.SendQueueSize < 1 {
		cfg.SendQueueSize = DefaultConfig().SendQueueSize
	}
	return &Hub{
		cfg:      cfg,
		receipts: receipts,
		ops:      make(chan func(ctx context.Context)),
		log:      logging.WithComponent("websocket"),
		sessions: make(map[string]map[string]*Session),
		presence: make(map[string]int),
	}
}

// Serve runs the hub loop until ctx is done, then closes every session.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op := <-h.ops:
			op(ctx)
		}
	}
}

func (h *Hub) String() string {
	return "websocket-hub"
}

// do hands fn to the loop. Once accepted, fn always runs to completion, so
// callers wait for it regardless of ctx.
func (h *Hub) do(ctx context.Context, fn func(ctx context.Context)) error {
	done := make(chan struct{})
	op := func(loopCtx context.Context) {
		defer close(done)
		fn(loopCtx)
	}
	select {
	case h.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// IsConnected reports whether actorID has at least one live session.
func (h *Hub) IsConnected(actorID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presence[actorID] > 0
}

// ActiveSessions is the number of live sessions across all actors.
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Register opens a session for actorID, sends hello and pushes every match
// the actor has not been shown yet. A match stays pending until Confirm
// reports that one of the actor's sessions wrote it to the client.
func (h *Hub) Register(ctx context.Context, actorID string) (*Session, error) {
	if actorID == "" {
		return nil, errors.New("actor id is required")
	}
	var s *Session
	err := h.do(ctx, func(ctx context.Context) {
		s = newSession(actorID, h.cfg.SendQueueSize)
		h.add(s)
		h.enqueueFrame(s, Frame{Type: FrameHello, Data: Hello{SessionID: s.id, ActorID: actorID}}, false)

		pending, err := h.receipts.UndeliveredMatches(ctx, actorID)
		if err != nil {
			h.log.Error().Err(err).Str("actor_id", actorID).Msg("Failed to load pending matches")
			return
		}
		for _, rec := range pending {
			if !h.offer(s, rec) {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Unregister removes s. It is safe to call more than once.
func (h *Hub) Unregister(ctx context.Context, s *Session) {
	_ = h.do(ctx, func(context.Context) {
		h.remove(s, nil)
	})
}

// Send pushes a frame of typ to s.
func (h *Hub) Send(ctx context.Context, s *Session, typ string, data any) error {
	return h.do(ctx, func(context.Context) {
		h.enqueue(s, Frame{Type: typ, Data: data})
	})
}

// DeliverMatch queues rec for every participant that has not seen it. An
// error means some receipts could not be read and the call may be retried.
// Sessions that already hold rec in their queue are skipped.
func (h *Hub) DeliverMatch(ctx context.Context, rec models.MatchRecord) error {
	var errs []error
	err := h.do(ctx, func(ctx context.Context) {
		for _, actorID := range rec.Participants {
			if err := h.deliverTo(ctx, actorID, rec); err != nil {
				errs = append(errs, err)
			}
		}
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (h *Hub) deliverTo(ctx context.Context, actorID string, rec models.MatchRecord) error {
	delivered, err := h.receipts.IsDelivered(ctx, actorID, rec.ItemID)
	if err != nil {
		metrics.MatchDeliveries.WithLabelValues("error").Inc()
		return err
	}
	if delivered {
		metrics.MatchDeliveries.WithLabelValues("duplicate").Inc()
		return nil
	}

	queued := false
	for _, s := range h.sessions[actorID] {
		if _, dup := s.offered[rec.ItemID]; dup {
			queued = true
			continue
		}
		if h.offer(s, rec) {
			queued = true
		}
	}
	if !queued {
		metrics.MatchDeliveries.WithLabelValues("pending").Inc()
	}
	return nil
}

// offer queues rec on s and remembers it so a redelivery does not queue it twice.
func (h *Hub) offer(s *Session, rec models.MatchRecord) bool {
	if !h.enqueue(s, matchFrame(rec)) {
		return false
	}
	s.offered[rec.ItemID] = struct{}{}
	return true
}

// Confirm records that f was written to the client of s. For a match frame
// this stores the participant's receipt; any other frame is ignored. Frames
// that were queued but never written leave no receipt and are offered again
// on the next Register.
func (h *Hub) Confirm(ctx context.Context, s *Session, f Frame) error {
	if f.Type != FrameMatch || f.itemID == "" {
		return nil
	}
	if _, err := h.receipts.MarkDelivered(ctx, s.actorID, f.itemID); err != nil {
		metrics.MatchDeliveries.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("actor_id", s.actorID).Str("item_id", f.itemID).Msg("Failed to record delivery receipt")
		return err
	}
	metrics.MatchDeliveries.WithLabelValues("delivered").Inc()
	return nil
}

func (h *Hub) enqueue(s *Session, f Frame) bool {
	return h.enqueueFrame(s, f, true)
}

// enqueueFrame assigns the next cursor value unless advance is false, and
// drops s as stalled if its queue is full.
func (h *Hub) enqueueFrame(s *Session, f Frame, advance bool) bool {
	if s.closed {
		return false
	}
	if advance {
		s.cursor++
	}
	f.Seq = s.cursor
	select {
	case s.send <- f:
		metrics.SessionFrames.WithLabelValues(f.Type).Inc()
		return true
	default:
		metrics.SessionsStalled.Inc()
		h.log.Warn().Str("session_id", s.id).Str("actor_id", s.actorID).Msg("Session stalled, dropping")
		h.remove(s, ErrSessionStalled)
		return false
	}
}

func (h *Hub) add(s *Session) {
	bound, ok := h.sessions[s.actorID]
	if !ok {
		bound = make(map[string]*Session)
		h.sessions[s.actorID] = bound
	}
	bound[s.id] = s

	h.mu.Lock()
	h.presence[s.actorID]++
	h.total++
	h.mu.Unlock()
	metrics.SessionsActive.Inc()

	h.log.Info().Str("session_id", s.id).Str("actor_id", s.actorID).Msg("Session registered")
}

func (h *Hub) remove(s *Session, cause error) {
	if s.closed {
		return
	}
	s.close(cause)

	bound := h.sessions[s.actorID]
	delete(bound, s.id)
	if len(bound) == 0 {
		delete(h.sessions, s.actorID)
	}

	h.mu.Lock()
	if h.presence[s.actorID]--; h.presence[s.actorID] <= 0 {
		delete(h.presence, s.actorID)
	}
	h.total--
	h.mu.Unlock()
	metrics.SessionsActive.Dec()

	h.log.Info().Str("session_id", s.id).Str("actor_id", s.actorID).Msg("Session closed")
}

func (h *Hub) closeAll() {
	for _, bound := range h.sessions {
		for _, s := range bound {
			h.remove(s, nil)
		}
	}
}

// Session is one bound connection. Its queue is closed by the hub when the
// session ends.
type Session struct {
	id      string
	actorID string
	send    chan Frame
	done    chan struct{}

	// Owned by the hub loop.
	cursor  uint64
	closed  bool
	offered map[string]struct{}

	errMu sync.Mutex
	err   error
}

func newSession(actorID string, queueSize int) *Session {
	return &Session{
		id:      uuid.New().String(),
		actorID: actorID,
		send:    make(chan Frame, queueSize),
		done:    make(chan struct{}),
		offered: make(map[string]struct{}),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) ActorID() string { return s.actorID }

// Frames yields queued frames until the session ends.
func (s *Session) Frames() <-chan Frame { return s.send }

// Done is closed when the hub drops the session.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err is ErrSessionStalled for a stalled session, nil otherwise.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) close(cause error) {
	s.errMu.Lock()
	s.err = cause
	s.errMu.Unlock()
	s.closed = true
	close(s.send)
	close(s.done)
}

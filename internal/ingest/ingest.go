// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/store"
	"github.com/tomtom215/cinematch/internal/validation"
)

// LikeAppender is the durable half of the like store.
type LikeAppender interface {
	AppendLike(ctx context.Context, ev models.LikeEvent) (models.LikeRecord, error)
}

// Presence reports whether an actor currently holds a live session.
type Presence interface {
	IsConnected(actorID string) bool
}

// Config controls retries and the session requirement.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	RequireConnectedSession bool

	// BreakerFailures consecutive failed submissions open the circuit.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig matches the service defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:              5,
		InitialBackoff:          50 * time.Millisecond,
		MaxBackoff:              2 * time.Second,
		RequireConnectedSession: true,
		BreakerFailures:         5,
		BreakerTimeout:          30 * time.Second,
	}
}

// Ingestor is the like submission path.
type Ingestor struct {
	cfg      Config
	store    LikeAppender
	presence Presence
	breaker  *gobreaker.CircuitBreaker[models.LikeRecord]
	log      zerolog.Logger
}

// New returns an Ingestor. presence may be nil when
// RequireConnectedSession is false.
func New(cfg Config, appender LikeAppender, presence Presence) (*Ingestor, error) {
	if appender == nil {
		return nil, errors.New("like appender is required")
	}
	if cfg.RequireConnectedSession && presence == nil {
		return nil, errors.New("presence is required when connected sessions are enforced")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultConfig().BreakerFailures
	}

	in := &Ingestor{
		cfg:      cfg,
		store:    appender,
		presence: presence,
		log:      logging.WithComponent("ingest"),
	}
	in.breaker = gobreaker.NewCircuitBreaker[models.LikeRecord](gobreaker.Settings{
		Name:    "like-store",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Rejections for bad input or a stopped caller say nothing about the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			in.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
	return in, nil
}

// SubmitLike records that actorID likes itemID. On success the returned
// record carries the store-assigned sequence number.
func (in *Ingestor) SubmitLike(ctx context.Context, actorID, itemID, itemTitle string) (models.LikeRecord, error) {
	start := time.Now()
	rec, err := in.submit(ctx, actorID, itemID, itemTitle)
	metrics.RecordLikeSubmission(resultLabel(err), time.Since(start))
	return rec, err
}

func (in *Ingestor) submit(ctx context.Context, actorID, itemID, itemTitle string) (models.LikeRecord, error) {
	ev := models.LikeEvent{
		ItemID:    strings.TrimSpace(itemID),
		ActorID:   strings.TrimSpace(actorID),
		ItemTitle: strings.TrimSpace(itemTitle),
	}
	if verr := validation.ValidateStruct(&ev); verr != nil {
		return models.LikeRecord{}, fmt.Errorf("%w: %s", ErrInvalidInput, verr.Error())
	}
	if in.cfg.RequireConnectedSession && !in.presence.IsConnected(ev.ActorID) {
		return models.LikeRecord{}, ErrNotConnected
	}

	var lastErr error
	attempt := 0
	op := func() (models.LikeRecord, error) {
		if attempt > 0 {
			metrics.LikeAppendRetries.Inc()
		}
		attempt++

		rec, err := in.breaker.Execute(func() (models.LikeRecord, error) {
			return in.store.AppendLike(ctx, ev)
		})
		if err == nil {
			return rec, nil
		}
		lastErr = err
		switch {
		case errors.Is(err, store.ErrStoreClosed),
			errors.Is(err, gobreaker.ErrOpenState),
			errors.Is(err, gobreaker.ErrTooManyRequests):
			return models.LikeRecord{}, backoff.Permanent(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
		case ctx.Err() != nil:
			return models.LikeRecord{}, backoff.Permanent(ctx.Err())
		}
		in.log.Debug().Err(err).Int("attempt", attempt).Str("item_id", ev.ItemID).Msg("Like append failed")
		return models.LikeRecord{}, err
	}

	rec, err := backoff.RetryWithData(op, in.newBackOff(ctx))
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.LikeRecord{}, err
	}
	in.log.Error().Err(lastErr).Int("attempts", attempt).
		Str("actor_id", logging.SanitizeValue(ev.ActorID)).
		Str("item_id", logging.SanitizeValue(ev.ItemID)).
		Msg("Like delivery failed after retries")
	return models.LikeRecord{}, fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, attempt, lastErr)
}

func (in *Ingestor) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if in.cfg.InitialBackoff > 0 {
		eb.InitialInterval = in.cfg.InitialBackoff
	}
	if in.cfg.MaxBackoff > 0 {
		eb.MaxInterval = in.cfg.MaxBackoff
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(in.cfg.MaxRetries)), ctx)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrDeliveryFailed):
		return "failed"
	default:
		return "canceled"
	}
}

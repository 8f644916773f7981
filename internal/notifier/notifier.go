// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/eventprocessor"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/store"
)

// MatchStore persists match records.
type MatchStore interface {
	CreateMatch(ctx context.Context, rec models.MatchRecord) (bool, error)
}

// Config sizes the queue and retry budget.
type Config struct {
	QueueSize      int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:      1024,
		MaxRetries:     8,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Notifier persists and publishes detections.
type Notifier struct {
	cfg       Config
	store     MatchStore
	publisher message.Publisher
	topic     string
	queue     chan models.MatchDetected
	log       zerolog.Logger

	// held carries detections interrupted by a stop of Serve into the next
	// run. Only Serve touches it.
	held []job
}

// job is one detection in flight. stored is set once the persist step is
// finished, so a resumed job only publishes.
type job struct {
	det    models.MatchDetected
	stored bool
}

// New returns a Notifier publishing to topic.
func New(cfg Config, matches MatchStore, pub message.Publisher, topic string) (*Notifier, error) {
	if matches == nil || pub == nil {
		return nil, errors.New("match store and publisher are required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("queue size must be at least 1, got %d", cfg.QueueSize)
	}
	return &Notifier{
		cfg:       cfg,
		store:     matches,
		publisher: pub,
		topic:     topic,
		queue:     make(chan models.MatchDetected, cfg.QueueSize),
		log:       logging.WithComponent("notifier"),
	}, nil
}

// MatchDetected queues m, blocking while the queue is full.
func (n *Notifier) MatchDetected(ctx context.Context, m models.MatchDetected) error {
	select {
	case n.queue <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve drains the queue until ctx is done. Queued detections and the one
// being worked on when ctx ends are resumed by the next call.
func (n *Notifier) Serve(ctx context.Context) error {
	for len(n.held) > 0 {
		j := n.held[0]
		n.held = n.held[1:]
		n.handle(ctx, j)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-n.queue:
			n.handle(ctx, job{det: m})
		}
	}
}

// hold keeps j for the next Serve, ahead of anything held after it.
func (n *Notifier) hold(j job) {
	n.held = append([]job{j}, n.held...)
	n.log.Warn().Str("item_id", j.det.ItemID).Bool("stored", j.stored).Msg("Notifier stopping, detection held for restart")
}

func (n *Notifier) String() string {
	return "match-notifier"
}

func (n *Notifier) handle(ctx context.Context, j job) {
	rec := j.det.Record()
	log := n.log.With().Str("item_id", rec.ItemID).Logger()

	if !j.stored && !n.persist(ctx, j, rec, log) {
		return
	}
	j.stored = true

	if err := n.publish(ctx, rec); err != nil {
		if ctx.Err() != nil {
			n.hold(j)
			return
		}
		metrics.MatchPublishes.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("Failed to publish match; participants will receive it on reconnect")
		return
	}
	metrics.MatchPublishes.WithLabelValues("ok").Inc()
	log.Info().Strs("participants", rec.Participants).Msg("Match published")
}

// persist writes rec and reports whether handle should go on to publish.
// A stop of Serve mid-retry holds j instead.
func (n *Notifier) persist(ctx context.Context, j job, rec models.MatchRecord, log zerolog.Logger) bool {
	created, err := backoff.RetryWithData(func() (bool, error) {
		created, err := n.store.CreateMatch(ctx, rec)
		if errors.Is(err, store.ErrStoreClosed) {
			return false, backoff.Permanent(err)
		}
		return created, err
	}, n.newBackOff(ctx))
	switch {
	case err != nil && ctx.Err() != nil:
		n.hold(j)
		return false
	case err != nil:
		// Still publish: connected participants get the alert now, and the
		// record is created when the like log is replayed.
		metrics.MatchesPersisted.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("Failed to persist match")
	case !created:
		metrics.MatchesPersisted.WithLabelValues("exists").Inc()
		log.Debug().Msg("Match already recorded, skipping publish")
		return false
	default:
		metrics.MatchesPersisted.WithLabelValues("created").Inc()
	}
	return true
}

func (n *Notifier) publish(ctx context.Context, rec models.MatchRecord) error {
	msg, err := eventprocessor.EncodeMatch(rec)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return backoff.Retry(func() error {
		return n.publisher.Publish(n.topic, msg)
	}, n.newBackOff(ctx))
}

func (n *Notifier) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if n.cfg.InitialBackoff > 0 {
		eb.InitialInterval = n.cfg.InitialBackoff
	}
	if n.cfg.MaxBackoff > 0 {
		eb.MaxInterval = n.cfg.MaxBackoff
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(n.cfg.MaxRetries, 0))), ctx)
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/store"
)

// Feed is the store's live query.
type Feed interface {
	Listen(ctx context.Context, capacity int, l store.Listener) error
}

// EventSink receives like events in feed order.
type EventSink interface {
	Submit(ctx context.Context, ev models.LikeEvent) error
}

// Config tunes the per-connection buffer and reconnect backoff.
type Config struct {
	QueueSize           int
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:           4096,
		ReconnectBackoff:    250 * time.Millisecond,
		MaxReconnectBackoff: 30 * time.Second,
	}
}

// Bridge is a supervised service.
type Bridge struct {
	cfg  Config
	feed Feed
	sink EventSink
	log  zerolog.Logger

	connected   atomic.Bool
	resnapshots atomic.Int64
}

// New returns a bridge from feed to sink.
func New(cfg Config, feed Feed, sink EventSink) (*Bridge, error) {
	if feed == nil || sink == nil {
		return nil, errors.New("feed and sink are required")
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Bridge{cfg: cfg, feed: feed, sink: sink, log: logging.WithComponent("bridge")}, nil
}

// Connected reports whether the current connection has delivered its snapshot.
func (b *Bridge) Connected() bool {
	return b.connected.Load()
}

// Resnapshots counts connections that ended other than by shutdown.
func (b *Bridge) Resnapshots() int64 {
	return b.resnapshots.Load()
}

func (b *Bridge) String() string {
	return "like-bridge"
}

// Serve listens until ctx is done.
func (b *Bridge) Serve(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.cfg.ReconnectBackoff
	bo.MaxInterval = b.cfg.MaxReconnectBackoff
	bo.MaxElapsedTime = 0

	for {
		conn := &connection{bridge: b}
		err := b.feed.Listen(ctx, b.cfg.QueueSize, conn)
		b.setConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		reason := "error"
		switch {
		case errors.Is(err, store.ErrFeedOverflow):
			reason = "overflow"
		case errors.Is(err, store.ErrStoreClosed):
			reason = "store_closed"
		}
		b.resnapshots.Add(1)
		metrics.BridgeResnapshots.WithLabelValues(reason).Inc()

		if conn.snapshotDone {
			bo.Reset()
		}
		wait := bo.NextBackOff()
		b.log.Warn().Err(err).Str("reason", reason).Dur("retry_in", wait).Msg("Like feed ended, resnapshotting")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (b *Bridge) setConnected(v bool) {
	b.connected.Store(v)
	if v {
		metrics.BridgeConnected.Set(1)
	} else {
		metrics.BridgeConnected.Set(0)
	}
}

// connection is the listener for one Listen call.
type connection struct {
	bridge       *Bridge
	snapshotDone bool
}

func (c *connection) OnSnapshot(ctx context.Context, records []models.LikeRecord) error {
	for _, rec := range records {
		if err := c.bridge.sink.Submit(ctx, rec.Event()); err != nil {
			return err
		}
	}
	metrics.BridgeEvents.WithLabelValues("snapshot").Add(float64(len(records)))
	c.snapshotDone = true
	c.bridge.setConnected(true)
	c.bridge.log.Info().Int("likes", len(records)).Msg("Like feed snapshot replayed")
	return nil
}

func (c *connection) OnChange(ctx context.Context, rec models.LikeRecord) error {
	if err := c.bridge.sink.Submit(ctx, rec.Event()); err != nil {
		return err
	}
	metrics.BridgeEvents.WithLabelValues("change").Inc()
	return nil
}

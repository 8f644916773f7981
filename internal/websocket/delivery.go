// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/cinematch/internal/eventprocessor"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Delivery consumes match messages from the broker and hands them to the hub.
type Delivery struct {
	hub        *Hub
	subscriber message.Subscriber
	topic      string
	routerCfg  eventprocessor.RouterConfig
	logger     watermill.LoggerAdapter
}

// NewDelivery returns a Delivery reading topic from sub.
func NewDelivery(hub *Hub, sub message.Subscriber, topic string, cfg eventprocessor.RouterConfig, logger watermill.LoggerAdapter) *Delivery {
	return &Delivery{hub: hub, subscriber: sub, topic: topic, routerCfg: cfg, logger: logger}
}

func (d *Delivery) String() string {
	return "match-delivery"
}

// Serve runs a fresh router until ctx is done. A Watermill router cannot be
// restarted, so each call builds its own.
func (d *Delivery) Serve(ctx context.Context) error {
	router, err := eventprocessor.NewRouter(d.routerCfg, d.logger)
	if err != nil {
		return err
	}
	router.AddConsumerHandler("match-delivery", d.topic, d.subscriber, func(msg *message.Message) error {
		return d.handle(ctx, msg)
	})

	logging.Info().Str("topic", d.topic).Msg("Match delivery started")
	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("match delivery router stopped")
	}
	return err
}

func (d *Delivery) handle(ctx context.Context, msg *message.Message) error {
	rec, err := eventprocessor.DecodeMatch(msg)
	if err != nil {
		// Redelivering a malformed payload cannot help.
		metrics.BrokerConsumed.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable match message")
		return nil
	}
	if err := d.hub.DeliverMatch(ctx, rec); err != nil {
		metrics.BrokerConsumed.WithLabelValues("error").Inc()
		return fmt.Errorf("deliver match %s: %w", rec.ItemID, err)
	}
	metrics.BrokerConsumed.WithLabelValues("ok").Inc()
	return nil
}

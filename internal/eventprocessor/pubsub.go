// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package eventprocessor

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/cinematch/internal/logging"
)

// PubSub is a connected publisher and subscriber pair for one driver.
type PubSub struct {
	Publisher  *Publisher
	Subscriber message.Subscriber
	Logger     watermill.LoggerAdapter
	config     Config
}

// NewLogger adapts the service logger for Watermill.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewComponentSlogLogger("watermill"))
}

// NewPubSub builds the publisher and subscriber for cfg.Driver.
func NewPubSub(cfg Config, logger watermill.LoggerAdapter) (*PubSub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger()
	}

	var (
		pub message.Publisher
		sub message.Subscriber
		err error
	)
	switch cfg.Driver {
	case DriverMemory:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.MemoryBuffer,
		}, logger)
		pub, sub = ch, ch
	case DriverNATS:
		if pub, err = newNATSPublisher(cfg, logger); err != nil {
			return nil, err
		}
		if sub, err = newNATSSubscriber(cfg, logger); err != nil {
			_ = pub.Close()
			return nil, err
		}
	}

	return &PubSub{
		Publisher:  NewPublisher(pub, cfg, logger),
		Subscriber: sub,
		Logger:     logger,
		config:     cfg,
	}, nil
}

// Topic is the configured match topic.
func (ps *PubSub) Topic() string {
	return ps.config.Topic
}

// Close closes both halves. For gochannel they are the same object.
func (ps *PubSub) Close() error {
	err := ps.Publisher.Close()
	if ps.config.Driver != DriverMemory {
		err = errors.Join(err, ps.Subscriber.Close())
	}
	return err
}

func natsOptions(cfg Config, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

func newNATSPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}

func newNATSSubscriber(cfg Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            cfg.URL,
		AckWaitTimeout: cfg.AckWait,
		CloseTimeout:   cfg.CloseTimeout,
		NatsOptions:    natsOptions(cfg, logger),
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.AckWait(cfg.AckWait),
				natsgo.DeliverAll(),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return sub, nil
}

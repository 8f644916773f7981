// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/eventprocessor"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
)

// broker is the match transport plus the embedded server behind it, if any.
type broker struct {
	pubsub   *eventprocessor.PubSub
	embedded *eventprocessor.EmbeddedServer
	router   eventprocessor.RouterConfig
}

func eventprocessorConfig(cfg *config.Config) eventprocessor.Config {
	epCfg := eventprocessor.DefaultConfig()
	epCfg.Driver = cfg.Broker.Driver
	epCfg.URL = cfg.Broker.URL
	epCfg.Topic = cfg.Broker.Topic
	epCfg.DurableName = cfg.Broker.DurableName
	if cfg.Broker.CloseTimeout > 0 {
		epCfg.CloseTimeout = cfg.Broker.CloseTimeout
	}
	return epCfg
}

func routerConfig(cfg *config.Config) eventprocessor.RouterConfig {
	rc := eventprocessor.DefaultRouterConfig()
	rc.RetryMaxRetries = cfg.Broker.RetryCount
	if cfg.Broker.RetryInitialDelay > 0 {
		rc.RetryInitialInterval = cfg.Broker.RetryInitialDelay
	}
	if cfg.Broker.CloseTimeout > 0 {
		rc.CloseTimeout = cfg.Broker.CloseTimeout
	}
	return rc
}

// initBroker starts the embedded NATS server when configured, then connects
// the publisher and subscriber.
func initBroker(cfg *config.Config) (*broker, error) {
	epCfg := eventprocessorConfig(cfg)
	b := &broker{router: routerConfig(cfg)}

	if epCfg.Driver == eventprocessor.DriverNATS && cfg.Broker.Embedded {
		srvCfg := eventprocessor.DefaultServerConfig()
		srvCfg.Host = cfg.Broker.Host
		srvCfg.Port = cfg.Broker.Port
		srvCfg.StoreDir = cfg.Broker.StoreDir

		start := time.Now()
		srv, err := eventprocessor.NewEmbeddedServer(srvCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		b.embedded = srv
		epCfg.URL = srv.ClientURL()
		logging.Info().
			Str("url", epCfg.URL).
			Bool("jetstream", srv.JetStreamEnabled()).
			Dur("startup", time.Since(start)).
			Msg("Embedded NATS server started")
	}

	ps, err := eventprocessor.NewPubSub(epCfg, eventprocessor.NewLogger())
	if err != nil {
		b.shutdownEmbedded()
		return nil, fmt.Errorf("connect match broker: %w", err)
	}
	b.pubsub = ps

	logging.Info().
		Str("driver", epCfg.Driver).
		Str("topic", ps.Topic()).
		Msg("Match broker connected")
	return b, nil
}

// supervise hands the embedded server's shutdown to the tree.
func (b *broker) supervise(tree *supervisor.Tree, cfg *config.Config) {
	if b.embedded != nil {
		tree.AddDataService(services.NewNATSServerService(b.embedded, cfg.Broker.CloseTimeout))
	}
}

func (b *broker) close() {
	if err := b.pubsub.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing match broker")
	}
}

func (b *broker) shutdownEmbedded() {
	if b.embedded == nil {
		return
	}
	ctx, cancel := shutdownContext(10 * time.Second)
	defer cancel()
	if err := b.embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
	}
}

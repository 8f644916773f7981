// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cinematch/internal/api"
	"github.com/tomtom215/cinematch/internal/auth"
	"github.com/tomtom215/cinematch/internal/bridge"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/ingest"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/matching"
	"github.com/tomtom215/cinematch/internal/notifier"
	"github.com/tomtom215/cinematch/internal/store"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
	ws "github.com/tomtom215/cinematch/internal/websocket"
)

//nolint:gocyclo // sequential wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Int("quorum", cfg.Match.Quorum).
		Int("shards", cfg.Match.Shards).
		Str("broker", cfg.Broker.Driver).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Cinematch")

	db, err := store.Open(store.Config{
		Path:           cfg.Store.Path,
		SyncWrites:     cfg.Store.SyncWrites,
		InMemory:       cfg.Store.InMemory,
		GCInterval:     cfg.Store.GCInterval,
		GCDiscardRatio: cfg.Store.GCDiscardRatio,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open like store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing like store")
		}
	}()
	if cfg.Store.InMemory {
		logging.Warn().Msg("Store is in memory: likes and matches are lost on restart")
	}

	mb, err := initBroker(cfg)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize match broker")
	}
	defer mb.close()

	hub := ws.NewHub(ws.Config{SendQueueSize: cfg.Session.SendQueueSize}, db)

	ingestCfg := ingest.DefaultConfig()
	ingestCfg.MaxRetries = cfg.Ingest.MaxRetries
	ingestCfg.InitialBackoff = cfg.Ingest.InitialBackoff
	ingestCfg.MaxBackoff = cfg.Ingest.MaxBackoff
	ingestCfg.RequireConnectedSession = cfg.Ingest.RequireConnectedSession
	ingestor, err := ingest.New(ingestCfg, db, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create ingestor")
	}

	notifierCfg := notifier.DefaultConfig()
	notifierCfg.QueueSize = cfg.Notifier.QueueSize
	notifierCfg.MaxRetries = cfg.Notifier.MaxRetries
	matchNotifier, err := notifier.New(notifierCfg, db, mb.pubsub.Publisher, mb.pubsub.Topic())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create match notifier")
	}

	engine, err := matching.NewEngine(matching.Config{
		Quorum:    cfg.Match.Quorum,
		Shards:    cfg.Match.Shards,
		QueueSize: cfg.Match.ShardQueueSize,
	}, matchNotifier)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create match engine")
	}

	likeBridge, err := bridge.New(bridge.Config{
		QueueSize:           cfg.Bridge.QueueSize,
		ReconnectBackoff:    cfg.Bridge.ReconnectBackoff,
		MaxReconnectBackoff: cfg.Bridge.MaxReconnectBackoff,
	}, db, engine)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create like bridge")
	}

	delivery := ws.NewDelivery(hub, mb.pubsub.Subscriber, mb.pubsub.Topic(), mb.router, mb.pubsub.Logger)

	var catalogClient api.Catalog
	if cfg.Catalog.APIKey != "" {
		client, err := catalog.NewClient(catalog.Config{
			BaseURL:   cfg.Catalog.BaseURL,
			APIKey:    cfg.Catalog.APIKey,
			ImageURL:  cfg.Catalog.ImageURL,
			Language:  cfg.Catalog.Language,
			Timeout:   cfg.Catalog.Timeout,
			RateLimit: cfg.Catalog.RateLimit,
			RateBurst: cfg.Catalog.RateBurst,
			CacheTTL:  cfg.Catalog.CacheTTL,
			CacheSize: cfg.Catalog.CacheSize,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create catalog client")
		}
		catalogClient = client
		logging.Info().Str("base_url", cfg.Catalog.BaseURL).Msg("Catalog enabled")
	} else {
		logging.Warn().Msg("CATALOG_API_KEY not set: swipe deck endpoints are disabled")
	}

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, 0)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* lets any website open sessions with a stolen token; set explicit origins in production")
	}

	upgrader := ws.NewUpgrader(cfg.Security.CORSOrigins)
	handler := api.NewHandler(api.Deps{
		Likes:   ingestor,
		Matches: db,
		Catalog: catalogClient,
		Index:   engine,
		Sessions: api.SessionServerFunc(func(w http.ResponseWriter, r *http.Request, actorID string) {
			hub.ServeWS(upgrader, w, r, actorID)
		}),
		Store:   db,
		Feed:    likeBridge,
		Counter: hub,
	})
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), cfg.Security)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfigFrom(cfg.Supervisor))

	tree.AddDataService(services.NewStoreGCService(db))
	mb.supervise(tree, cfg)

	tree.AddMatchingService(engine)
	tree.AddMatchingService(likeBridge)
	tree.AddMatchingService(matchNotifier)

	tree.AddDeliveryService(hub)
	tree.AddDeliveryService(delivery)

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
		cancel()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Cinematch stopped")
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

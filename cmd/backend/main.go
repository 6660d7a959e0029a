package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"vasafe/backend/internal/api"
	"vasafe/backend/internal/auth"
	"vasafe/backend/internal/config"
	"vasafe/backend/internal/domain"
	"vasafe/backend/internal/ingest"
	"vasafe/backend/internal/mqtt"
	"vasafe/backend/internal/pipeline"
	"vasafe/backend/internal/store"
	"vasafe/backend/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	slog.Info("vasafe-backend starting",
		"http_port", cfg.HTTPPort,
		"mqtt_broker", cfg.MQTTHost+":"+cfg.MQTTPort,
		"namespace", cfg.MQTTNamespace,
		"violation_policy", cfg.ViolationPolicy,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewTimescaleStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to timescale", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	redis, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redis.Close()

	// Live alert stream for dashboard clients.
	hub := ws.New()
	go hub.Run(ctx)

	// Violation alerts fan out asynchronously so ingestion never blocks.
	alertC := make(chan domain.AlertEvent, cfg.AlertChanSize)
	notifier := pipeline.NewAlertNotifier(alertC, db, redis, hub, cfg.AlertDedupTTL)
	go notifier.Run(ctx)

	// The ingest loop owns the subscription and reconnects forever.
	brokerAddr := cfg.MQTTHost + ":" + cfg.MQTTPort
	dial := func(ctx context.Context) (ingest.Transport, error) {
		clientID := fmt.Sprintf("vasafe-backend-%s", uuid.NewString()[:8])
		return mqtt.Dial(ctx, brokerAddr, clientID)
	}
	loop := ingest.NewLoop(
		dial,
		cfg.MQTTNamespace+"/+/telemetria",
		db,
		cfg.ViolationPolicy,
		cfg.ReconnectDelay,
		alertC,
	)
	go loop.Run(ctx)

	authn := auth.NewAuthenticator(cfg, redis)

	handler := api.New(db, mqtt.CommandPublisher{Addr: brokerAddr}, authn, api.Options{
		Namespace:    cfg.MQTTNamespace,
		Lookback:     time.Duration(cfg.LookbackHours) * time.Hour,
		WindowLimit:  cfg.WindowLimit,
		QueryTimeout: cfg.QueryTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/ws/alertas", hub)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("vasafe-backend shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}

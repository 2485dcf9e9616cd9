package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"

	"github.com/example/telegram-order-notify/internal/api"
	"github.com/example/telegram-order-notify/internal/common"
	"github.com/example/telegram-order-notify/internal/deliverylog"
	"github.com/example/telegram-order-notify/internal/notifier"
	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/render"
	"github.com/example/telegram-order-notify/internal/settings"
	"github.com/example/telegram-order-notify/internal/telegram"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := common.LoadConfig("notifier")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := common.NewLogger(cfg.ServiceName)
	shutdown, err := common.SetupOTel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise telemetry")
	}
	defer common.ShutdownTelemetry(context.Background(), shutdown)

	metricsSrv := common.StartMetricsServer(cfg.MetricsPort)
	defer metricsSrv.Shutdown(context.Background())

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL must be provided")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	store, err := settings.NewPostgresStore(pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("settings store")
	}

	delayWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.DelayedTopic,
		Balancer: &kafka.Hash{},
	}
	defer delayWriter.Close()

	svc := &notifier.Service{
		Settings: store,
		Cipher:   settings.NewCipher(settings.StaticKeyProvider{Secret: cfg.EncryptionSecret}),
		Orders:   &order.HTTPSource{Endpoint: cfg.CommerceAPIURL, APIKey: cfg.CommerceAPIKey},
		Client: &telegram.Client{
			BaseURL: cfg.TelegramAPIBase,
			Log:     deliverylog.New(cfg.StorageDir),
		},
		Renderer:    render.Renderer{SiteName: cfg.SiteName, AdminBaseURL: cfg.AdminBaseURL},
		DelayWriter: delayWriter,
		Logger:      logger,
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: (&api.Server{Notifier: svc, Logger: logger}).Router(),
	}

	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("notifier service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/kursadbilgin/ippanel-notify/internal/config"
	"github.com/kursadbilgin/ippanel-notify/internal/handler"
	"github.com/kursadbilgin/ippanel-notify/internal/ippanel"
	"github.com/kursadbilgin/ippanel-notify/internal/observability"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	client := resty.New()
	client.SetTimeout(cfg.HTTPTimeout)

	channel, err := ippanel.NewChannelWithClient(
		cfg.IppanelSettings(),
		client,
		logger.Named("ippanel"),
		ippanel.WithFailurePolicy(cfg.FailurePolicy()),
		ippanel.WithRecorder(metrics),
	)
	if err != nil {
		logger.Fatal("ippanel channel initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "ippanel-notify",
		ErrorHandler: handler.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, metrics)
	if err := handler.RegisterSMSRoutes(app, channel, cfg.BatchConcurrency); err != nil {
		logger.Fatal("sms routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("ippanel-notify api started",
		zap.Int("port", cfg.APIPort),
		zap.String("endpoint", cfg.IppanelEndpoint),
		zap.Bool("strictDelivery", cfg.StrictDelivery),
	)

	if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
		logger.Fatal("http server stopped with error", zap.Error(err))
	}

	logger.Info("ippanel-notify api stopped")
}

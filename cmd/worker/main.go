package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/suPer8Hu/chainbot/internal/app"
	"github.com/suPer8Hu/chainbot/internal/config"
	"github.com/suPer8Hu/chainbot/internal/logutil"
	"github.com/suPer8Hu/chainbot/internal/store/rabbitmq"
)

func main() {
	cfg := config.Load()

	logger, err := logutil.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("logger", "error", err.Error())
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if cfg.RabbitURL == "" {
		logger.Error("RABBIT_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := app.OpenMarkov(cfg)
	if err != nil {
		logger.Error("db", "driver", cfg.DBDriver, "error", err.Error())
		os.Exit(1)
	}
	defer m.Close()

	chat, err := app.NewChat(ctx, cfg, m, logger)
	if err != nil {
		logger.Error("startup", "error", err.Error())
		os.Exit(1)
	}
	defer chat.Close()

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerPrefetch)
	if err != nil {
		logger.Error("rabbit", "error", err.Error())
		os.Exit(1)
	}
	defer consumer.Close()

	logger.Info("worker started", "queue", cfg.RabbitQueue, "prefetch", cfg.WorkerPrefetch)

	if err := chat.Dispatcher.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("dispatcher stopped", "error", err.Error())
	}

	logger.Info("worker shutting down")
	// handlers ack before the channel closes
	chat.Dispatcher.Wait()
}

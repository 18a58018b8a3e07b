package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/chainbot/internal/app"
	"github.com/suPer8Hu/chainbot/internal/config"
	"github.com/suPer8Hu/chainbot/internal/httpapi"
	"github.com/suPer8Hu/chainbot/internal/httpapi/handlers"
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

	if err := cfg.ValidateAPI(); err != nil {
		logger.Error("config", "error", err.Error())
		os.Exit(1)
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is empty, login is disabled")
	}

	m, err := app.OpenMarkov(cfg)
	if err != nil {
		logger.Error("db", "driver", cfg.DBDriver, "error", err.Error())
		os.Exit(1)
	}
	defer m.Close()

	var pub handlers.EventPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Error("rabbit", "error", err.Error())
			os.Exit(1)
		}
		defer p.Close()
		pub = p
	}

	h := handlers.NewHandler(cfg, m.Repo, m.Updater, m.Generator, pub, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
}

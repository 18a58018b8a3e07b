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
	"github.com/suPer8Hu/chainbot/internal/discord"
	"github.com/suPer8Hu/chainbot/internal/logutil"
)

func main() {
	cfg := config.Load()

	logger, err := logutil.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("logger", "error", err.Error())
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if cfg.DiscordToken == "" {
		logger.Error("DISCORD_TOKEN is required")
		os.Exit(1)
	}
	if cfg.AuthorizedChannelID == "" {
		logger.Warn("AUTHORIZED_CHANNEL_ID is empty, every message will be ignored")
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

	gw := discord.NewGateway(discord.GatewayOptions{
		URL:         cfg.DiscordGatewayURL,
		Token:       cfg.DiscordToken,
		Activity:    cfg.DiscordActivity,
		ActivityURL: cfg.DiscordActivityURL,
		Logger:      logger,
	})
	gw.Start(ctx)
	defer gw.Close()

	logger.Info("bot started", "channel_id", cfg.AuthorizedChannelID, "prefix", cfg.TriggerPrefix, "max_words", cfg.MaxWords)

	if err := chat.Dispatcher.Run(ctx, gw); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("dispatcher stopped", "error", err.Error())
	}

	logger.Info("bot shutting down")
	chat.Dispatcher.Wait()
}

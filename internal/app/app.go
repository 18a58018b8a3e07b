// Package app wires the markov store and dispatcher shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/suPer8Hu/chainbot/internal/bot"
	"github.com/suPer8Hu/chainbot/internal/config"
	"github.com/suPer8Hu/chainbot/internal/db"
	"github.com/suPer8Hu/chainbot/internal/discord"
	"github.com/suPer8Hu/chainbot/internal/markov"
	"github.com/suPer8Hu/chainbot/internal/store/redisstore"
	"gorm.io/gorm"
)

type Markov struct {
	DB        *gorm.DB
	Repo      *markov.Repo
	Updater   *markov.Updater
	Generator *markov.Generator
}

// OpenMarkov connects the configured database and migrates the pair table.
func OpenMarkov(cfg config.Config) (*Markov, error) {
	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := markov.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	repo := markov.NewRepo(gdb)
	return &Markov{
		DB:        gdb,
		Repo:      repo,
		Updater:   markov.NewUpdater(repo, cfg.IngestAtomic),
		Generator: markov.NewGenerator(repo, cfg.MaxWords),
	}, nil
}

func (m *Markov) Close() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Chat is a dispatcher replying through the Discord REST API.
type Chat struct {
	Discord    *discord.Client
	Dispatcher *bot.Dispatcher
	Self       discord.User

	dedupe *redisstore.Store
}

// NewChat builds the dispatcher. The bot's own account is excluded so it
// never learns from or answers itself; redis dedupe is enabled when REDIS_ADDR is set.
func NewChat(ctx context.Context, cfg config.Config, m *Markov, logger *slog.Logger) (*Chat, error) {
	client := discord.NewClient(&http.Client{Timeout: 15 * time.Second}, cfg.DiscordAPIBaseURL, cfg.DiscordToken)

	d := bot.NewDispatcher(bot.Options{
		ChannelID:       cfg.AuthorizedChannelID,
		ExcludedAuthors: cfg.ExcludedAuthorIDs,
		TriggerPrefix:   cfg.TriggerPrefix,
		ApologyText:     cfg.ApologyText,
	}, m.Updater, m.Generator, client, logger)

	self, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("discord current user: %w", err)
	}
	d.ExcludeAuthor(self.ID)
	logger.Info("logged in as", "user", self.Tag(), "id", self.ID)

	c := &Chat{Discord: client, Dispatcher: d, Self: self}
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Duration(cfg.DedupeTTLSeconds)*time.Second)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rds.Ping(pingCtx); err != nil {
			_ = rds.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		d.WithDedupe(rds)
		c.dedupe = rds
		logger.Info("dedupe enabled", "redis", cfg.RedisAddr, "ttl_seconds", cfg.DedupeTTLSeconds)
	}
	return c, nil
}

func (c *Chat) Close() error {
	if c.dedupe != nil {
		return c.dedupe.Close()
	}
	return nil
}

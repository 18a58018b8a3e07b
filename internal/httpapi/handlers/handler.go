package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chainbot/internal/common"
	"github.com/suPer8Hu/chainbot/internal/config"
	"github.com/suPer8Hu/chainbot/internal/events"
	"github.com/suPer8Hu/chainbot/internal/markov"
)

type StatsReader interface {
	Stats(ctx context.Context) (markov.Stats, error)
}

type Ingester interface {
	Ingest(ctx context.Context, text string) error
}

type Generator interface {
	GenerateN(ctx context.Context, seed string, maxWords int) (markov.GeneratedText, error)
}

// EventPublisher hands a message to the worker queue and returns its event id.
type EventPublisher interface {
	PublishMessage(ctx context.Context, msg events.Message) (string, error)
}

type Handler struct {
	Cfg       config.Config
	Stats     StatsReader
	Updater   Ingester
	Generator Generator
	Publisher EventPublisher // nil when RABBIT_URL is unset
	Logger    *slog.Logger
}

func NewHandler(cfg config.Config, stats StatsReader, updater Ingester, gen Generator, pub EventPublisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Cfg:       cfg,
		Stats:     stats,
		Updater:   updater,
		Generator: gen,
		Publisher: pub,
		Logger:    logger,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func (h *Handler) storeError(c *gin.Context, op string, err error) {
	h.Logger.Error("http_store_error", "op", op, "path", c.Request.URL.Path, "error", err.Error())
	common.Fail(c, http.StatusServiceUnavailable, 50301, "store unavailable")
}

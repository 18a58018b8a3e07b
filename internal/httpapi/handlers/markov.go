package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chainbot/internal/common"
	"github.com/suPer8Hu/chainbot/internal/events"
)

const maxWordsLimit = 200

func (h *Handler) MarkovStats(c *gin.Context) {
	s, err := h.Stats.Stats(c.Request.Context())
	if err != nil {
		h.storeError(c, "stats", err)
		return
	}
	common.OK(c, gin.H{
		"observations":   s.Observations,
		"distinct_words": s.DistinctWords,
	})
}

type generateReq struct {
	Seed     string `json:"seed"`
	MaxWords int    `json:"max_words"`
}

func (h *Handler) Generate(c *gin.Context) {
	var req generateReq
	// empty body means random start with the default length
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if req.MaxWords < 0 || req.MaxWords > maxWordsLimit {
		common.Fail(c, http.StatusBadRequest, 10011, "max_words out of range")
		return
	}
	n := req.MaxWords
	if n == 0 {
		n = h.Cfg.MaxWords
	}

	out, err := h.Generator.GenerateN(c.Request.Context(), req.Seed, n)
	if err != nil {
		h.storeError(c, "generate", err)
		return
	}
	common.OK(c, gin.H{
		"outcome": out.Outcome.String(),
		"text":    out.Text,
		"reply":   out.Render(h.Cfg.ApologyText),
	})
}

type ingestReq struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) Ingest(c *gin.Context) {
	var req ingestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Updater.Ingest(c.Request.Context(), req.Text); err != nil {
		h.storeError(c, "ingest", err)
		return
	}
	common.OK(c, gin.H{"ingested": true})
}

type publishEventReq struct {
	ChannelID string `json:"channel_id" binding:"required"`
	AuthorID  string `json:"author_id" binding:"required"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// PublishEvent queues a message for the worker as if it arrived from the gateway.
func (h *Handler) PublishEvent(c *gin.Context) {
	if h.Publisher == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50302, "queue not configured")
		return
	}
	var req publishEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	msg := events.Message{
		ID:        strings.TrimSpace(req.MessageID),
		ChannelID: strings.TrimSpace(req.ChannelID),
		AuthorID:  strings.TrimSpace(req.AuthorID),
		Content:   req.Content,
	}
	eventID, err := h.Publisher.PublishMessage(c.Request.Context(), msg)
	if err != nil {
		h.Logger.Error("http_publish_error", "channel_id", msg.ChannelID, "error", err.Error())
		common.Fail(c, http.StatusBadGateway, 50201, "failed to publish event")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "queued",
		"data":    gin.H{"event_id": eventID},
	})
}

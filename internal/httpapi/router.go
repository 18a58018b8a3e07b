package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chainbot/internal/common"
	"github.com/suPer8Hu/chainbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/chainbot/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(logger))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)
	r.POST("/login", h.Login)

	// JWT required
	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
	authGroup.GET("/markov/stats", h.MarkovStats)
	authGroup.POST("/markov/generate", h.Generate)
	authGroup.POST("/markov/ingest", h.Ingest)
	authGroup.POST("/events", h.PublishEvent)
	return r
}

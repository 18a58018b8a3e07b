package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suPer8Hu/chainbot/internal/auth"
	"github.com/suPer8Hu/chainbot/internal/common"
)

const (
	SubjectKey      = "subject"
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Recovery turns panics into the standard error envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("http_panic", "path", c.Request.URL.Path, "request_id", c.GetString(RequestIDKey), "panic", r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			common.Fail(c, http.StatusUnauthorized, 40103, "auth not configured")
			c.Abort()
			return
		}
		h := c.GetHeader("Authorization")
		tok, found := strings.CutPrefix(h, "Bearer ")
		if !found || strings.TrimSpace(tok) == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		sub, err := auth.ParseJWT(strings.TrimSpace(tok), secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			c.Abort()
			return
		}
		c.Set(SubjectKey, sub)
		c.Next()
	}
}

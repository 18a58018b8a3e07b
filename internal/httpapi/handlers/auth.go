package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chainbot/internal/auth"
	"github.com/suPer8Hu/chainbot/internal/common"
)

const (
	adminSubject = "admin"
	tokenTTL     = 24 * time.Hour
)

type loginReq struct {
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "password required")
		return
	}
	if h.Cfg.JWTSecret == "" {
		common.Fail(c, http.StatusServiceUnavailable, 50303, "auth not configured")
		return
	}
	if !auth.CheckPassword(h.Cfg.AdminPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 10003, "invalid credentials")
		return
	}

	token, err := auth.SignJWT(adminSubject, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to sign token")
		return
	}
	common.OK(c, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
	})
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/http/response"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/services"
)

type GitHubTokenHandler struct {
	log *logger.Logger
	svc services.GitHubTokenService
}

func NewGitHubTokenHandler(log *logger.Logger, svc services.GitHubTokenService) *GitHubTokenHandler {
	return &GitHubTokenHandler{log: log.With("handler", "GitHubTokenHandler"), svc: svc}
}

// fail keeps decrypt and store details server side; only configuration and
// validation errors reach the client verbatim.
func (h *GitHubTokenHandler) fail(c *gin.Context, fallback string, err error) {
	switch {
	case errors.Is(err, types.ErrNotConfigured), errors.Is(err, types.ErrInvalidArgument):
		response.RespondServiceError(c, err)
	default:
		h.log.Error("github token request failed", "user_id", ctxutil.UserID(c.Request.Context()), "error", err)
		response.RespondMessage(c, http.StatusInternalServerError, "token_request_failed", fallback)
	}
}

// GET /api/github-token
func (h *GitHubTokenHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	token, tokenType, found, err := h.svc.Get(ctx, ctxutil.UserID(ctx))
	if err != nil {
		h.fail(c, "Failed to load token", err)
		return
	}
	if !found {
		response.RespondOK(c, gin.H{"token": nil})
		return
	}
	response.RespondOK(c, gin.H{"token": token, "tokenType": tokenType})
}

// POST /api/github-token
func (h *GitHubTokenHandler) Post(c *gin.Context) {
	var req struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondMessage(c, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	ctx := c.Request.Context()
	if err := h.svc.Store(ctx, ctxutil.UserID(ctx), req.Token, req.TokenType); err != nil {
		h.fail(c, "Failed to persist token", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// DELETE /api/github-token
func (h *GitHubTokenHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.svc.Delete(ctx, ctxutil.UserID(ctx)); err != nil {
		h.fail(c, "Failed to delete token", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

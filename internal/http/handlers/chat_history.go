package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chatrepo "github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/chat"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/http/response"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/services"
)

const (
	IntentUpsert            = "upsert"
	IntentDuplicate         = "duplicate"
	IntentFork              = "fork"
	IntentImport            = "import"
	IntentUpdateDescription = "updateDescription"
	IntentUpdateMetadata    = "updateMetadata"
)

type ChatHistoryHandler struct {
	log *logger.Logger
	svc services.ChatHistoryService
}

func NewChatHistoryHandler(log *logger.Logger, svc services.ChatHistoryService) *ChatHistoryHandler {
	return &ChatHistoryHandler{log: log.With("handler", "ChatHistoryHandler"), svc: svc}
}

// ChatHistoryRequest is the POST body. Which fields matter depends on Intent.
type ChatHistoryRequest struct {
	Intent      string                   `json:"intent"`
	Payload     *types.UpsertChatPayload `json:"payload,omitempty"`
	ChatID      string                   `json:"chatId,omitempty"`
	MessageID   string                   `json:"messageId,omitempty"`
	URLID       string                   `json:"urlId,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Metadata    types.ChatMetadata       `json:"metadata,omitempty"`
}

func badRequest(c *gin.Context, msg string) {
	response.RespondMessage(c, http.StatusBadRequest, "invalid_request", msg)
}

// fail answers err; 5xx causes are logged here since they are the only copy.
func (h *ChatHistoryHandler) fail(c *gin.Context, op string, err error) {
	status, _ := response.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("chat history request failed", "op", op, "user_id", ctxutil.UserID(c.Request.Context()), "error", err)
	}
	response.RespondServiceError(c, err)
}

// GET /api/chat-history?list=1[&search=] | ?chatId=
func (h *ChatHistoryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID := ctxutil.UserID(ctx)

	if chatID := strings.TrimSpace(c.Query("chatId")); chatID != "" {
		item, err := h.svc.Get(ctx, userID, chatID)
		if err != nil {
			h.fail(c, "get", err)
			return
		}
		response.RespondOK(c, gin.H{"chat": item})
		return
	}

	chats, err := h.svc.List(ctx, userID, chatrepo.ListOptions{Search: c.Query("search")})
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.RespondOK(c, gin.H{"chats": chats})
}

// POST /api/chat-history
func (h *ChatHistoryHandler) Post(c *gin.Context) {
	var req ChatHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	userID := ctxutil.UserID(ctx)

	intent := req.Intent
	if intent == "" {
		intent = IntentUpsert
	}

	switch intent {
	case IntentUpsert:
		if req.Payload == nil {
			badRequest(c, "payload is required")
			return
		}
		item, err := h.svc.Upsert(ctx, userID, *req.Payload)
		if err != nil {
			h.fail(c, intent, err)
			return
		}
		response.RespondOK(c, gin.H{"chat": item})

	case IntentDuplicate:
		if req.ChatID == "" {
			badRequest(c, "chatId is required")
			return
		}
		h.respondURLID(c, intent)(h.svc.Duplicate(ctx, userID, req.ChatID))

	case IntentFork:
		if req.ChatID == "" || req.MessageID == "" {
			badRequest(c, "chatId and messageId are required")
			return
		}
		h.respondURLID(c, intent)(h.svc.Fork(ctx, userID, req.ChatID, req.MessageID))

	case IntentImport:
		if req.Payload == nil {
			badRequest(c, "payload is required")
			return
		}
		h.respondURLID(c, intent)(h.svc.Import(ctx, userID, *req.Payload))

	case IntentUpdateDescription:
		if req.URLID == "" || req.Description == nil {
			badRequest(c, "urlId and description are required")
			return
		}
		h.respondSuccess(c, intent, h.svc.UpdateDescription(ctx, userID, req.URLID, *req.Description))

	case IntentUpdateMetadata:
		if req.URLID == "" {
			badRequest(c, "urlId is required")
			return
		}
		h.respondSuccess(c, intent, h.svc.UpdateMetadata(ctx, userID, req.URLID, req.Metadata))

	default:
		badRequest(c, fmt.Sprintf("Unsupported intent: %s", intent))
	}
}

func (h *ChatHistoryHandler) respondURLID(c *gin.Context, op string) func(string, error) {
	return func(urlID string, err error) {
		if err != nil {
			h.fail(c, op, err)
			return
		}
		response.RespondOK(c, gin.H{"urlId": urlID})
	}
}

func (h *ChatHistoryHandler) respondSuccess(c *gin.Context, op string, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// DELETE /api/chat-history
func (h *ChatHistoryHandler) Delete(c *gin.Context) {
	var req struct {
		ChatID string `json:"chatId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	if req.ChatID == "" {
		badRequest(c, "chatId is required")
		return
	}
	ctx := c.Request.Context()
	h.respondSuccess(c, "delete", h.svc.Delete(ctx, ctxutil.UserID(ctx), req.ChatID))
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/chat-history/events
func (h *RealtimeHandler) ChatEvents(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	userID := ctxutil.UserID(c.Request.Context())
	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, realtime.UserChannel(userID))
	sessionID := ""
	if rd != nil {
		sessionID = rd.SessionID
	}
	h.log.Info("chat event stream open", "user_id", userID, "session_id", sessionID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}

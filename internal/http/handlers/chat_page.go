package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/http/response"
)

type ChatPageHandler struct{}

func NewChatPageHandler() *ChatPageHandler { return &ChatPageHandler{} }

// GET /chat/:id
func (h *ChatPageHandler) Show(c *gin.Context) {
	response.RespondOK(c, gin.H{"id": c.Param("id")})
}

package handler

import (
	"net/http"
	"strconv"

	"petnet/backend/internal/chat"

	"github.com/gin-gonic/gin"
)

// SendMessage handles POST /chat/messages.
func (h *Handler) SendMessage(c *gin.Context) {
	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId, messageType and body are required"})
		return
	}

	resp, err := h.Chat.SendMessage(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConversations handles GET /chat/conversations.
func (h *Handler) GetConversations(c *gin.Context) {
	pageNumber := intQuery(c, "pageNumber", 1)
	pageSize := intQuery(c, "pageSize", 0)
	search := c.Query("search")

	resp, err := h.Chat.GetConversations(currentUserID(c), pageNumber, pageSize, search)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConversationUser handles GET /chat/conversations/user.
func (h *Handler) GetConversationUser(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return
	}

	resp, err := h.Chat.GetConversationUser(currentUserID(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMessages handles GET /chat/messages.
func (h *Handler) GetMessages(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return
	}
	pageNumber := intQuery(c, "pageNumber", 1)
	pageSize := intQuery(c, "pageSize", 0)

	resp, err := h.Chat.GetMessages(currentUserID(c), pageNumber, pageSize, conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

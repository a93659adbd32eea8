package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNotifications handles GET /notifications, returning the caller's
// notifications grouped per entity, newest activity first.
func (h *Handler) ListNotifications(c *gin.Context) {
	groups, err := h.Notifications.ListByUser(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": groups})
}

// UnseenNotifications handles GET /notifications/unseen.
func (h *Handler) UnseenNotifications(c *gin.Context) {
	count, err := h.Notifications.Unseen(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unseen": count})
}

// MarkNotificationRead handles POST /notifications/:entityId/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	entityID := c.Param("entityId")
	if err := h.Notifications.MarkRead(currentUserID(c), entityID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkNotificationsRead handles POST /notifications/read for batch marking.
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	var req struct {
		EntityIDs []string `json:"entityIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entityIds is required"})
		return
	}

	if err := h.Notifications.MarkReadMultiple(currentUserID(c), req.EntityIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

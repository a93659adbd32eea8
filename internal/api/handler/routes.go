package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every endpoint. The admin chat group mirrors the
// public chat routes for the moderation console, which calls the same
// operations on behalf of its own account.
func (h *Handler) RegisterRoutes(r *gin.Engine, devAuth bool) {
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api/v1")
	if devAuth {
		api.POST("/auth/dev-token", h.GetDevToken)
	}

	for _, group := range []*gin.RouterGroup{
		api.Group("/chat", h.AuthRequired()),
		api.Group("/admin/chat", h.AuthRequired()),
	} {
		group.POST("/messages", h.SendMessage)
		group.GET("/messages", h.GetMessages)
		group.GET("/conversations", h.GetConversations)
		group.GET("/conversations/user", h.GetConversationUser)
	}

	notifications := api.Group("/notifications", h.AuthRequired())
	notifications.GET("", h.ListNotifications)
	notifications.GET("/unseen", h.UnseenNotifications)
	notifications.POST("/read", h.MarkNotificationsRead)
	notifications.POST("/:entityId/read", h.MarkNotificationRead)
}

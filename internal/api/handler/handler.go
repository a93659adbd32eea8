// Package handler exposes the messaging core over HTTP and WebSocket.
package handler

import (
	"errors"
	"log"
	"net/http"

	"petnet/backend/internal/apperr"
	"petnet/backend/internal/chat"
	"petnet/backend/internal/notification"
	"petnet/backend/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Handler wires the HTTP surface to the messaging, notification and realtime
// services.
type Handler struct {
	Chat          *chat.Service
	Notifications notification.Service
	Hub           *realtime.Hub
	JWTSecret     []byte
}

func NewHandler(chatSvc *chat.Service, notifications notification.Service, hub *realtime.Hub, jwtSecret []byte) *Handler {
	return &Handler{
		Chat:          chatSvc,
		Notifications: notifications,
		Hub:           hub,
		JWTSecret:     jwtSecret,
	}
}

// respondError maps structured errors onto HTTP statuses. Internal causes are
// logged server-side and never leak to the client.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Printf("ERROR: Unclassified error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": apperr.CodeInternal, "error": "internal error"})
		return
	}

	var status int
	switch appErr.Code {
	case apperr.CodeInvalidRequest:
		status = http.StatusBadRequest
	case apperr.CodeUnauthorized:
		status = http.StatusUnauthorized
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeRateLimited:
		status = http.StatusTooManyRequests
	default:
		log.Printf("ERROR: %v", appErr)
		c.JSON(http.StatusInternalServerError, gin.H{"code": apperr.CodeInternal, "error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"code": appErr.Code, "error": appErr.Message})
}

package handler

import (
	"net/http"

	"petnet/backend/internal/config"
	"petnet/backend/internal/models"
	"petnet/backend/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection and hands it to the hub. The
// token is validated before the upgrade; the session starts bound to the
// token's user and clients may still re-bind with an addUser event.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
		return
	}
	userID, err := h.validateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &realtime.WebSocketClient{
		Session: uuid.NewString(),
		User:    userID,
		Conn:    conn,
		Hub:     h.Hub,
		Send:    make(chan models.RealtimeEvent, config.SendBufferSize),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}

package realtime

import (
	"encoding/json"
	"log"
	"time"

	"petnet/backend/internal/config"
	"petnet/backend/internal/models"

	"github.com/gorilla/websocket"
)

// WebSocketClient implements the realtime.Client interface over a
// gorilla/websocket connection.
type WebSocketClient struct {
	Session string
	User    string
	Conn    *websocket.Conn
	Hub     *Hub
	Send    chan models.RealtimeEvent
}

func (c *WebSocketClient) SessionID() string { return c.Session }
func (c *WebSocketClient) UserID() string    { return c.User }
func (c *WebSocketClient) SetUserID(id string) {
	c.User = id
}
func (c *WebSocketClient) SendChannel() chan<- models.RealtimeEvent { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump.
func (c *WebSocketClient) Close() {
	close(c.Send)
	// readPump stops on its own once Conn.Close() runs in its defer
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var inbound struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(message, &inbound); err != nil {
			log.Printf("Error decoding JSON from session %s: %v", c.Session, err)
			continue
		}

		switch inbound.Event {
		case models.EventAddUser:
			var userID string
			if err := json.Unmarshal(inbound.Payload, &userID); err != nil || userID == "" {
				log.Printf("Error decoding addUser payload from session %s: %v", c.Session, err)
				continue
			}
			c.Hub.Bind(c, userID)
		default:
			// Business operations go through the REST API; anything else on
			// the socket is ignored.
		}
	}
}

// writePump reads events from the Send channel and writes them to the
// WebSocket.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// Channel closed by the hub, close the WS connection
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error encoding JSON for session %s: %v", c.Session, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// Ping keeps the connection alive
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

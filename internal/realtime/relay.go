package realtime

import (
	"context"
	"encoding/json"
	"log"

	"petnet/backend/internal/config"
)

// relayEnvelope is the wire form of an event relayed between instances over
// Redis Pub/Sub. Payload stays raw JSON so relaying never re-interprets the
// event body.
type relayEnvelope struct {
	SessionID string          `json:"sessionId"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

// publishRelay hands an event addressed to a non-local session to the shared
// Redis channel. Failures are logged and swallowed; relay delivery is
// best-effort.
func (h *Hub) publishRelay(sessionID, event string, payload any) {
	if h.Redis == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to encode relay payload for session %s: %v", sessionID, err)
		return
	}
	data, err := json.Marshal(relayEnvelope{SessionID: sessionID, Event: event, Payload: raw})
	if err != nil {
		log.Printf("ERROR: Failed to encode relay envelope for session %s: %v", sessionID, err)
		return
	}

	if err := h.Redis.Publish(context.Background(), config.RelayChannel, data).Err(); err != nil {
		log.Printf("WARNING: Relay publish failed for session %s: %v", sessionID, err)
	}
}

// startRelayListener subscribes to the relay channel and feeds envelopes into
// the hub loop. Events for sessions not on this instance are ignored there.
func (h *Hub) startRelayListener() {
	if h.Redis == nil {
		return
	}

	go func() {
		ctx := context.Background()
		pubsub := h.Redis.Subscribe(ctx, config.RelayChannel)
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("ERROR: Failed to decode relay envelope: %v", err)
				continue
			}
			h.relayCh <- env
		}
	}()
}

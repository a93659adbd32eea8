package realtime

import (
	"log"
	"sync"

	"petnet/backend/internal/models"
	"petnet/backend/internal/presence"

	"github.com/redis/go-redis/v9"
)

type binding struct {
	client Client
	userID string
}

// Hub owns the set of live sessions and the presence registry. All
// connection-lifecycle mutations flow through its channels and run on the
// single Run goroutine; event emission from request handlers goes through the
// mutex-guarded clients map.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BindCh       chan binding

	Presence presence.Registry

	// Redis relays events addressed to sessions living on sibling instances.
	// nil means single-instance deployment, local delivery only.
	Redis *redis.Client

	relayCh chan relayEnvelope
}

func NewHub(registry presence.Registry, rdb *redis.Client) *Hub {
	return &Hub{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BindCh:       make(chan binding),
		Presence:     registry,
		Redis:        rdb,
		relayCh:      make(chan relayEnvelope),
	}
}

// Run is the hub's main dispatch loop. Start it once, as a goroutine.
func (h *Hub) Run() {
	h.startRelayListener()

	for {
		select {
		case client := <-h.RegisterCh:
			h.mu.Lock()
			h.clients[client.SessionID()] = client
			h.mu.Unlock()

			// A session authenticated at upgrade time already knows its user.
			if client.UserID() != "" {
				h.Presence.Register(client.UserID(), client.SessionID())
			}
			h.broadcastPresence()

		case client := <-h.UnregisterCh:
			h.mu.Lock()
			_, known := h.clients[client.SessionID()]
			if known {
				delete(h.clients, client.SessionID())
				// Close under the same lock deliverLocal sends under, so a
				// concurrent emit can never hit a closed channel.
				client.Close()
			}
			h.mu.Unlock()

			if known {
				h.Presence.Unregister(client.SessionID())
				h.broadcastPresence()
			}

		case b := <-h.BindCh:
			b.client.SetUserID(b.userID)
			h.Presence.Register(b.userID, b.client.SessionID())
			h.broadcastPresence()

		case env := <-h.relayCh:
			// Event relayed from a sibling instance; deliver if the target
			// session happens to live here.
			h.deliverLocal(env.SessionID, models.RealtimeEvent{Event: env.Event, Payload: env.Payload})
		}
	}
}

// Bind asks the hub loop to attach a user identity to a session.
func (h *Hub) Bind(client Client, userID string) {
	h.BindCh <- binding{client: client, userID: userID}
}

// EmitToSession pushes one event to one session. When the session is not
// connected to this instance the event goes out over the relay so a sibling
// can deliver it; if there is no relay it is dropped, which is acceptable for
// best-effort realtime nudges.
func (h *Hub) EmitToSession(sessionID, event string, payload any) {
	if h.deliverLocal(sessionID, models.RealtimeEvent{Event: event, Payload: payload}) {
		return
	}
	h.publishRelay(sessionID, event, payload)
}

// EmitToUser pushes one event to every live session of a user.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	sessions, ok := h.Presence.Lookup(userID)
	if !ok {
		return
	}
	for _, sessionID := range sessions {
		h.EmitToSession(sessionID, event, payload)
	}
}

// deliverLocal reports whether the session lives on this instance, not
// whether the event reached it: a full send buffer drops the event and
// schedules the session's removal. The relay is for sessions on sibling
// instances, never a retry path for local slow consumers. The read lock is
// held across the send so the unregister path cannot close the channel
// between the lookup and the send.
func (h *Hub) deliverLocal(sessionID string, event models.RealtimeEvent) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[sessionID]
	if !ok {
		return false
	}

	select {
	case client.SendChannel() <- event:
	default:
		// Slow consumer: drop the session rather than block the hub.
		log.Printf("WARNING: Dropping slow session %s", sessionID)
		go func() { h.UnregisterCh <- client }()
	}
	return true
}

// broadcastPresence pushes the full presence snapshot to every session on
// this instance, on every connect, disconnect and bind.
func (h *Hub) broadcastPresence() {
	snapshot := h.Presence.Snapshot()
	event := models.RealtimeEvent{Event: models.EventGetUsers, Payload: snapshot}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.SendChannel() <- event:
		default:
			// Skip rather than block; the next lifecycle event rebroadcasts.
		}
	}
}

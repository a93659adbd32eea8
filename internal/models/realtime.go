package models

// Realtime event names exchanged over the WebSocket channel.
const (
	// EventAddUser is inbound: binds the current session to a user identity.
	EventAddUser = "addUser"
	// EventGetUsers is broadcast to everyone on each connect/disconnect.
	EventGetUsers = "getUsers"
	// EventNewNotification carries a freshly created Notification.
	EventNewNotification = "new-notification"
	// EventNewMobileNotification carries a MobileNotification payload.
	EventNewMobileNotification = "new-mobile-notification"
	// EventSeeMessage tells the original sender their messages were just read.
	EventSeeMessage = "see-message"
)

// RealtimeEvent is the JSON envelope written to and read from a session.
type RealtimeEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// MobileNotification mirrors the shape the mobile clients render directly.
type MobileNotification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Event   string `json:"event"`
	Payload string `json:"payload"`
	Sender  string `json:"sender"`
}

// SeenMessage is the payload of a see-message event. ReceiverID is the user
// who just read the conversation, not the user the event is delivered to.
type SeenMessage struct {
	ConversationID string `json:"conversationId"`
	ReceiverID     string `json:"receiverId"`
}

// PresenceEntry is one user's slice of the presence snapshot.
type PresenceEntry struct {
	UserID     string   `json:"userId"`
	SessionIDs []string `json:"sessionIds"`
}

package realtime

import "petnet/backend/internal/models"

// Client is the interface for one live transport session. It abstracts the
// underlying connection so the hub can manage different transports uniformly.
type Client interface {
	// SessionID returns the unique identifier of this connection.
	SessionID() string
	// UserID returns the user identity bound to the session, or "" when the
	// session has not declared one yet.
	UserID() string
	// SetUserID binds the session to a user identity. Called only by the hub.
	SetUserID(string)

	// SendChannel returns the channel the hub writes outbound events to.
	SendChannel() chan<- models.RealtimeEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's outbound channel.
	Close()
}

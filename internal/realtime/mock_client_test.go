package realtime_test

import (
	"petnet/backend/internal/models"
)

type MockClient struct {
	session     string
	userID      string
	closed      bool
	RecvChannel chan models.RealtimeEvent
}

func newMockClient(session, userID string) *MockClient {
	return &MockClient{
		session:     session,
		userID:      userID,
		RecvChannel: make(chan models.RealtimeEvent, 10),
	}
}

func (c *MockClient) SessionID() string { return c.session }

func (c *MockClient) UserID() string { return c.userID }

func (c *MockClient) SetUserID(id string) { c.userID = id }

func (c *MockClient) SendChannel() chan<- models.RealtimeEvent { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed = true
}

// closingClient closes its receive channel on Close, exactly like the
// WebSocket client, so tests exercise the real channel lifecycle.
type closingClient struct {
	*MockClient
}

func newClosingClient(session, userID string) *closingClient {
	return &closingClient{MockClient: newMockClient(session, userID)}
}

func (c *closingClient) Close() {
	c.closed = true
	close(c.RecvChannel)
}

package chat_test

import (
	"sync"
	"time"

	"petnet/backend/internal/models"
	"petnet/backend/internal/notification"
	"petnet/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a comprehensive mock implementation of the storage.Storage
// interface, built on testify/mock for flexible expectation setting.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) FindActiveUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) SetUserArchived(id string, archived bool) error {
	args := m.Called(id, archived)
	return args.Error(0)
}

func (m *MockStorage) FindConversationByMembers(userA, userB string) (*models.Conversation, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockStorage) CreateConversation(conv *models.Conversation) error {
	args := m.Called(conv)
	return args.Error(0)
}

func (m *MockStorage) GetConversationByID(id string) (*models.Conversation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockStorage) ListConversationSummaries(userID, search string, offset, limit int) ([]storage.ConversationSummary, error) {
	args := m.Called(userID, search, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ConversationSummary), args.Error(1)
}

func (m *MockStorage) CountConversations(userID, search string) (int64, error) {
	args := m.Called(userID, search)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CreateMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) RecentSenderMessages(conversationID, senderID string, limit int) ([]models.Message, error) {
	args := m.Called(conversationID, senderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) ListMessages(conversationID string, offset, limit int) ([]models.Message, error) {
	args := m.Called(conversationID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) CountMessages(conversationID string) (int64, error) {
	args := m.Called(conversationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) MarkSeen(conversationID, readerID string, seenAt time.Time) (int64, error) {
	args := m.Called(conversationID, readerID, seenAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CreateNotification(n *models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockStorage) ListNotificationRecords(receiverID string) ([]storage.NotificationRecord, error) {
	args := m.Called(receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationRecord), args.Error(1)
}

func (m *MockStorage) MarkNotificationsRead(entityID string) (int64, error) {
	args := m.Called(entityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CountNotificationsByEntity(entityID string) (int64, error) {
	args := m.Called(entityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) UnseenNotificationCount(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) ResetUnseenNotifications(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockNotifications mocks notification.Service.
type MockNotifications struct {
	mock.Mock
}

func (m *MockNotifications) Create(input notification.CreateInput) (*models.Notification, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotifications) ListByUser(userID string) ([]notification.Group, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Group), args.Error(1)
}

func (m *MockNotifications) MarkRead(userID, entityID string) error {
	args := m.Called(userID, entityID)
	return args.Error(0)
}

func (m *MockNotifications) MarkReadMultiple(userID string, entityIDs []string) error {
	args := m.Called(userID, entityIDs)
	return args.Error(0)
}

func (m *MockNotifications) Unseen(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotifications) CountByEntity(entityID string) (int64, error) {
	args := m.Called(entityID)
	return args.Get(0).(int64), args.Error(1)
}

// RecordingDispatcher captures push requests instead of publishing them.
type RecordingDispatcher struct {
	mu    sync.Mutex
	Calls []PushCall
}

type PushCall struct {
	DeviceToken string
	Title       string
	Body        string
}

func (d *RecordingDispatcher) Send(deviceToken, title, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, PushCall{DeviceToken: deviceToken, Title: title, Body: body})
}

// RecordingEmitter captures realtime emissions instead of delivering them.
type RecordingEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

type EmittedEvent struct {
	SessionID string
	Event     string
	Payload   any
}

func (e *RecordingEmitter) EmitToSession(sessionID, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, EmittedEvent{SessionID: sessionID, Event: event, Payload: payload})
}

func (e *RecordingEmitter) ForSession(sessionID string) []EmittedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []EmittedEvent
	for _, ev := range e.Events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out
}

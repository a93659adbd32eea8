package chat_test

import (
	"errors"
	"testing"
	"time"

	"petnet/backend/internal/apperr"
	"petnet/backend/internal/chat"
	"petnet/backend/internal/models"
	"petnet/backend/internal/notification"
	"petnet/backend/internal/presence"
	"petnet/backend/internal/storage"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc           *chat.Service
	store         *MockStorage
	registry      *presence.MemoryRegistry
	notifications *MockNotifications
	push          *RecordingDispatcher
	emitter       *RecordingEmitter
}

func newFixture() *fixture {
	store := new(MockStorage)
	registry := presence.NewMemoryRegistry()
	notifications := new(MockNotifications)
	dispatcher := new(RecordingDispatcher)
	emitter := new(RecordingEmitter)
	return &fixture{
		svc:           chat.NewService(store, registry, notifications, dispatcher, emitter),
		store:         store,
		registry:      registry,
		notifications: notifications,
		push:          dispatcher,
		emitter:       emitter,
	}
}

func appErrCode(t *testing.T, err error) apperr.Code {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	return appErr.Code
}

func textMessage(body string) chat.SendMessageRequest {
	return chat.SendMessageRequest{ReceiverID: "b1", MessageType: models.MessageTypeText, Body: body}
}

func TestSendMessage_SelfSendRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SendMessage("b1", textMessage("hi me"))

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidRequest, appErrCode(t, err))
	f.store.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestSendMessage_UnknownReceiver(t *testing.T) {
	f := newFixture()
	f.store.On("FindActiveUserByID", "b1").Return(nil, nil)

	_, err := f.svc.SendMessage("a1", textMessage("hello?"))

	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, appErrCode(t, err))
	f.store.AssertNotCalled(t, "CreateConversation", mock.Anything)
	f.store.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestSendMessage_FirstContactCreatesConversation(t *testing.T) {
	f := newFixture()
	f.store.On("FindActiveUserByID", "b1").Return(&models.User{ID: "b1", FirstName: "Riley"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(nil, nil)
	f.store.On("CreateConversation", mock.AnythingOfType("*models.Conversation")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.Conversation).ID = "conv_1"
		}).Return(nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)

	resp, err := f.svc.SendMessage("a1", textMessage("hi"))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "conv_1", resp.ConversationID)

	created := f.store.Calls[len(f.store.Calls)-1].Arguments.Get(0).(*models.Message)
	assert.Equal(t, "conv_1", created.ConversationID)
	assert.Equal(t, "a1", created.SenderID)
	assert.Equal(t, models.MessageTypeText, created.MessageType)
	assert.Nil(t, created.SeenAt)

	// First contact opens the conversation quietly: no notification, no push.
	f.notifications.AssertNotCalled(t, "Create", mock.Anything)
	assert.Empty(t, f.push.Calls)
	assert.Empty(t, f.emitter.Events)
}

func TestSendMessage_FirstContactInsertRaceReusesWinner(t *testing.T) {
	f := newFixture()
	winner := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("FindActiveUserByID", "b1").Return(&models.User{ID: "b1", FirstName: "Riley"}, nil)
	f.store.On("FindActiveUserByID", "a1").Return(&models.User{ID: "a1", FirstName: "Jamie"}, nil)
	// Both sides send first contact at once: the lookup misses, the insert
	// loses to the unique pair index, the re-lookup finds the winner's row.
	f.store.On("FindConversationByMembers", "a1", "b1").Return(nil, nil).Once()
	f.store.On("CreateConversation", mock.AnythingOfType("*models.Conversation")).
		Return(errors.New(`duplicate key value violates unique constraint "idx_conversation_pair"`))
	f.store.On("FindConversationByMembers", "a1", "b1").Return(winner, nil).Once()
	f.store.On("RecentSenderMessages", "conv_1", "a1", 10).Return([]models.Message{}, nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything).Return(&models.Notification{ID: "n1"}, nil)

	resp, err := f.svc.SendMessage("a1", textMessage("hi"))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "conv_1", resp.ConversationID)

	for _, call := range f.store.Calls {
		if call.Method == "CreateMessage" {
			created := call.Arguments.Get(0).(*models.Message)
			assert.Equal(t, "conv_1", created.ConversationID)
		}
	}
}

func TestSendMessage_ExistingConversationFansOut(t *testing.T) {
	f := newFixture()
	receiver := &models.User{ID: "b1", FirstName: "Riley", LastName: "Stone", DeviceTokens: pq.StringArray{"tok-1", "tok-2"}}
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("FindActiveUserByID", "b1").Return(receiver, nil)
	f.store.On("FindActiveUserByID", "a1").Return(&models.User{ID: "a1", FirstName: "Jamie", LastName: "Doe"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(conv, nil)
	f.store.On("RecentSenderMessages", "conv_1", "a1", mock.Anything).Return([]models.Message{}, nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)

	notif := &models.Notification{ID: "n1", SenderID: "a1", ReceiverID: "b1", EntityID: "conv_1"}
	f.notifications.On("Create", mock.AnythingOfType("notification.CreateInput")).Return(notif, nil)

	// Receiver is online on two devices.
	f.registry.Register("b1", "sess-1")
	f.registry.Register("b1", "sess-2")

	resp, err := f.svc.SendMessage("a1", textMessage("hi again"))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "conv_1", resp.ConversationID)

	input := f.notifications.Calls[0].Arguments.Get(0).(notification.CreateInput)
	assert.Equal(t, "conv_1", input.EntityID)
	assert.Equal(t, models.NotificationTypeMessageRequest, input.Type)
	assert.Equal(t, "Jamie Doe sent you a message", input.Text)

	require.Len(t, f.push.Calls, 2)
	assert.Equal(t, "tok-1", f.push.Calls[0].DeviceToken)
	assert.Equal(t, "Jamie Doe", f.push.Calls[0].Title)
	assert.Equal(t, "hi again", f.push.Calls[0].Body)

	for _, session := range []string{"sess-1", "sess-2"} {
		events := f.emitter.ForSession(session)
		require.Len(t, events, 2, "session %s", session)
		assert.Equal(t, models.EventNewNotification, events[0].Event)
		assert.Equal(t, models.EventNewMobileNotification, events[1].Event)
	}
}

func TestSendMessage_OfflineReceiverStillNotified(t *testing.T) {
	f := newFixture()
	receiver := &models.User{ID: "b1", FirstName: "Riley", DeviceTokens: pq.StringArray{"tok-1"}}
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("FindActiveUserByID", "b1").Return(receiver, nil)
	f.store.On("FindActiveUserByID", "a1").Return(&models.User{ID: "a1", FirstName: "Jamie"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(conv, nil)
	f.store.On("RecentSenderMessages", "conv_1", "a1", mock.Anything).Return([]models.Message{}, nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything).Return(&models.Notification{ID: "n1"}, nil)

	_, err := f.svc.SendMessage("a1", textMessage("anyone home"))

	require.NoError(t, err)
	assert.Len(t, f.push.Calls, 1)
	assert.Empty(t, f.emitter.Events)
}

func recentBurst(n int, newest time.Time, gap time.Duration) []models.Message {
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{SentAt: newest.Add(-time.Duration(i) * gap)}
	}
	return msgs
}

func TestSendMessage_BurstLimitRejects(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}
	f.store.On("FindActiveUserByID", "b1").Return(&models.User{ID: "b1"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(conv, nil)
	// Ten messages in the last ~45 seconds: the oldest is still inside the window.
	f.store.On("RecentSenderMessages", "conv_1", "a1", 10).
		Return(recentBurst(10, time.Now(), 5*time.Second), nil)

	_, err := f.svc.SendMessage("a1", textMessage("spam"))

	require.Error(t, err)
	assert.Equal(t, apperr.CodeRateLimited, appErrCode(t, err))
	f.store.AssertNotCalled(t, "CreateMessage", mock.Anything)
	f.notifications.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSendMessage_BurstLimitExpires(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}
	f.store.On("FindActiveUserByID", "b1").Return(&models.User{ID: "b1", FirstName: "Riley"}, nil)
	f.store.On("FindActiveUserByID", "a1").Return(&models.User{ID: "a1", FirstName: "Jamie"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(conv, nil)
	// Ten messages on record, but the tenth-most-recent left the window.
	f.store.On("RecentSenderMessages", "conv_1", "a1", 10).
		Return(recentBurst(10, time.Now(), 8*time.Second), nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything).Return(&models.Notification{ID: "n1"}, nil)

	resp, err := f.svc.SendMessage("a1", textMessage("back again"))

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestSendMessage_UnderBurstLimit(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}
	f.store.On("FindActiveUserByID", "b1").Return(&models.User{ID: "b1"}, nil)
	f.store.On("FindActiveUserByID", "a1").Return(&models.User{ID: "a1", FirstName: "Jamie"}, nil)
	f.store.On("FindConversationByMembers", "a1", "b1").Return(conv, nil)
	f.store.On("RecentSenderMessages", "conv_1", "a1", 10).
		Return(recentBurst(9, time.Now(), time.Second), nil)
	f.store.On("CreateMessage", mock.AnythingOfType("*models.Message")).Return(nil)
	f.notifications.On("Create", mock.Anything).Return(&models.Notification{ID: "n1"}, nil)

	_, err := f.svc.SendMessage("a1", textMessage("ninth is fine"))

	require.NoError(t, err)
}

func summaryRow(convID string, msgType, body, senderID *string, sentAt *time.Time) storage.ConversationSummary {
	return storage.ConversationSummary{
		ConversationID:  convID,
		UserID:          "b1",
		FirstName:       "Riley",
		LastName:        "Stone",
		LastMessageType: msgType,
		LastBody:        body,
		LastSenderID:    senderID,
		LastSentAt:      sentAt,
	}
}

func TestGetConversations_Summaries(t *testing.T) {
	now := time.Now()
	text := models.MessageTypeText
	image := models.MessageTypeImage
	file := models.MessageTypeFile
	me := "a1"
	other := "b1"
	body := "see you at the shelter"

	f := newFixture()
	f.store.On("CountConversations", "a1", "").Return(int64(4), nil)
	f.store.On("ListConversationSummaries", "a1", "", 0, 20).Return([]storage.ConversationSummary{
		summaryRow("conv_1", &text, &body, &other, &now),
		summaryRow("conv_2", &image, nil, &me, &now),
		summaryRow("conv_3", &file, nil, &other, &now),
		summaryRow("conv_4", nil, nil, nil, nil),
	}, nil)

	resp, err := f.svc.GetConversations("a1", 1, 20, "")

	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Total)
	require.Len(t, resp.Conversations, 4)

	assert.Equal(t, "see you at the shelter", resp.Conversations[0].LastMessage.Body)
	assert.Equal(t, "You sent a photo.", resp.Conversations[1].LastMessage.Body)
	assert.Equal(t, "Riley sent a file.", resp.Conversations[2].LastMessage.Body)
	assert.Nil(t, resp.Conversations[3].LastMessage)
}

func TestGetConversations_SearchPassthrough(t *testing.T) {
	f := newFixture()
	f.store.On("CountConversations", "a1", "ril").Return(int64(1), nil)
	f.store.On("ListConversationSummaries", "a1", "ril", 0, 20).Return([]storage.ConversationSummary{}, nil)

	_, err := f.svc.GetConversations("a1", 0, 0, "ril")

	require.NoError(t, err)
	f.store.AssertExpectations(t)
}

func TestGetConversationUser(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}
	f.store.On("GetConversationByID", "conv_1").Return(conv, nil)
	f.store.On("GetUserByID", "b1").Return(&models.User{ID: "b1", FirstName: "Riley", LastName: "Stone"}, nil)

	resp, err := f.svc.GetConversationUser("a1", "conv_1")

	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "b1", resp.User.UserID)
	assert.Equal(t, "Riley", resp.User.FirstName)
}

func TestGetConversationUser_MissingConversation(t *testing.T) {
	f := newFixture()
	f.store.On("GetConversationByID", "conv_x").Return(nil, nil)

	resp, err := f.svc.GetConversationUser("a1", "conv_x")

	require.NoError(t, err)
	assert.Nil(t, resp.User)
}

func TestGetConversationUser_NonMember(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}
	f.store.On("GetConversationByID", "conv_1").Return(conv, nil)

	resp, err := f.svc.GetConversationUser("z9", "conv_1")

	require.NoError(t, err)
	assert.Nil(t, resp.User)
}

func TestGetMessages_MarksSeenAndNotifiesSender(t *testing.T) {
	now := time.Now()
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("MarkSeen", "conv_1", "b1", mock.AnythingOfType("time.Time")).Return(int64(2), nil)
	f.store.On("GetConversationByID", "conv_1").Return(conv, nil)
	f.store.On("CountMessages", "conv_1").Return(int64(2), nil)
	f.store.On("ListMessages", "conv_1", 0, 20).Return([]models.Message{
		{ID: "m2", SenderID: "a1", MessageType: models.MessageTypeText, Body: "hi again", SentAt: now},
		{ID: "m1", SenderID: "b1", MessageType: models.MessageTypeText, Body: "hello", SentAt: now.Add(-time.Minute)},
	}, nil)

	f.registry.Register("a1", "sess-a")

	resp, err := f.svc.GetMessages("b1", 1, 20, "conv_1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.False(t, resp.HasNext)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, models.SenderTypeOther, resp.Messages[0].SenderType)
	assert.Equal(t, models.SenderTypeMe, resp.Messages[1].SenderType)

	// The reader's identity travels in the read receipt.
	events := f.emitter.ForSession("sess-a")
	require.Len(t, events, 1)
	assert.Equal(t, models.EventSeeMessage, events[0].Event)
	seen := events[0].Payload.(models.SeenMessage)
	assert.Equal(t, "conv_1", seen.ConversationID)
	assert.Equal(t, "b1", seen.ReceiverID)
}

func TestGetMessages_IdempotentSeen(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("MarkSeen", "conv_1", "b1", mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	f.store.On("GetConversationByID", "conv_1").Return(conv, nil)
	f.store.On("CountMessages", "conv_1").Return(int64(0), nil)
	f.store.On("ListMessages", "conv_1", 0, 20).Return([]models.Message{}, nil)

	// Nothing left to mark: the call still succeeds and still emits the receipt.
	f.registry.Register("a1", "sess-a")
	resp, err := f.svc.GetMessages("b1", 1, 20, "conv_1")

	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
	assert.Len(t, f.emitter.ForSession("sess-a"), 1)
}

func TestGetMessages_Pagination(t *testing.T) {
	f := newFixture()
	conv := &models.Conversation{ID: "conv_1", Member1ID: "a1", Member2ID: "b1"}

	f.store.On("MarkSeen", "conv_1", "a1", mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	f.store.On("GetConversationByID", "conv_1").Return(conv, nil)
	f.store.On("CountMessages", "conv_1").Return(int64(45), nil)
	f.store.On("ListMessages", "conv_1", 20, 20).Return(make([]models.Message, 20), nil)

	resp, err := f.svc.GetMessages("a1", 2, 20, "conv_1")

	require.NoError(t, err)
	assert.True(t, resp.HasNext)
	assert.Equal(t, 2, resp.PageNumber)

	f2 := newFixture()
	f2.store.On("MarkSeen", "conv_1", "a1", mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	f2.store.On("GetConversationByID", "conv_1").Return(conv, nil)
	f2.store.On("CountMessages", "conv_1").Return(int64(45), nil)
	f2.store.On("ListMessages", "conv_1", 40, 20).Return(make([]models.Message, 5), nil)

	resp, err = f2.svc.GetMessages("a1", 3, 20, "conv_1")

	require.NoError(t, err)
	assert.False(t, resp.HasNext)
}

func TestGetMessages_PageDefaults(t *testing.T) {
	f := newFixture()
	f.store.On("MarkSeen", "conv_1", "a1", mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	f.store.On("GetConversationByID", "conv_1").Return(nil, nil)
	f.store.On("CountMessages", "conv_1").Return(int64(0), nil)
	f.store.On("ListMessages", "conv_1", 0, 20).Return([]models.Message{}, nil)

	resp, err := f.svc.GetMessages("a1", 0, -5, "conv_1")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.PageNumber)
}

// Package chat orchestrates the messaging core: conversation find-or-create,
// message persistence, burst rate-limiting, read receipts and the
// notification fan-out.
package chat

import (
	"log"
	"time"

	"petnet/backend/internal/apperr"
	"petnet/backend/internal/config"
	"petnet/backend/internal/models"
	"petnet/backend/internal/notification"
	"petnet/backend/internal/presence"
	"petnet/backend/internal/push"
	"petnet/backend/internal/storage"
)

// Emitter pushes one event to one live session. Satisfied by realtime.Hub.
type Emitter interface {
	EmitToSession(sessionID, event string, payload any)
}

type Service struct {
	Storage       storage.Storage
	Presence      presence.Registry
	Notifications notification.Service
	Push          push.Dispatcher
	Emitter       Emitter
}

func NewService(s storage.Storage, registry presence.Registry, notifications notification.Service, dispatcher push.Dispatcher, emitter Emitter) *Service {
	return &Service{
		Storage:       s,
		Presence:      registry,
		Notifications: notifications,
		Push:          dispatcher,
		Emitter:       emitter,
	}
}

// SendMessage persists a message from sender to receiver, creating the
// conversation on first contact. The notification fan-out fires only on the
// existing-conversation branch: the very first message opens the relationship
// and needs no separate nudge.
func (s *Service) SendMessage(senderID string, req SendMessageRequest) (*SendMessageResponse, error) {
	if senderID == req.ReceiverID {
		return nil, apperr.InvalidRequest("cannot send a message to yourself")
	}

	receiver, err := s.Storage.FindActiveUserByID(req.ReceiverID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "receiver lookup failed", err)
	}
	if receiver == nil {
		return nil, apperr.NotFound("receiver not found")
	}

	conv, err := s.Storage.FindConversationByMembers(senderID, req.ReceiverID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "conversation lookup failed", err)
	}

	now := time.Now()

	if conv == nil {
		fresh := models.NewConversation(senderID, req.ReceiverID)
		createErr := s.Storage.CreateConversation(fresh)
		if createErr == nil {
			msg := &models.Message{
				ConversationID: fresh.ID,
				SenderID:       senderID,
				MessageType:    req.MessageType,
				Body:           req.Body,
				SentAt:         now,
			}
			if err := s.Storage.CreateMessage(msg); err != nil {
				return nil, apperr.Wrap(apperr.CodeInternal, "message create failed", err)
			}
			return &SendMessageResponse{Success: true, ConversationID: fresh.ID}, nil
		}

		// Lost a racing first-contact insert against the unique pair index;
		// the winner's conversation exists now, so reuse it.
		existing, lookupErr := s.Storage.FindConversationByMembers(senderID, req.ReceiverID)
		if lookupErr != nil || existing == nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "conversation create failed", createErr)
		}
		conv = existing
	}

	if err := s.checkBurstLimit(conv.ID, senderID, now); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		MessageType:    req.MessageType,
		Body:           req.Body,
		SentAt:         now,
	}
	if err := s.Storage.CreateMessage(msg); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "message create failed", err)
	}

	// The message is durable; everything past this point is best-effort and
	// must not change the caller-visible result.
	s.fanOut(senderID, receiver, conv.ID, req.Body)

	return &SendMessageResponse{Success: true, ConversationID: conv.ID}, nil
}

// checkBurstLimit inspects the sender's most recent messages in the
// conversation. With BurstMessageLimit prior messages on record and the
// oldest of them inside BurstWindow, the send is rejected. Check-then-act:
// two racing sends can both pass, which is accepted for an advisory limit.
func (s *Service) checkBurstLimit(conversationID, senderID string, now time.Time) error {
	recent, err := s.Storage.RecentSenderMessages(conversationID, senderID, config.BurstMessageLimit)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "rate limit check failed", err)
	}
	if len(recent) >= config.BurstMessageLimit {
		oldest := recent[config.BurstMessageLimit-1]
		if now.Sub(oldest.SentAt) <= config.BurstWindow {
			return apperr.RateLimited("too many messages, slow down")
		}
	}
	return nil
}

// fanOut creates the persistent notification, submits push requests for every
// device token and emits realtime events to every live receiver session.
// Each side effect is fault-isolated: one failing never stops the others.
func (s *Service) fanOut(senderID string, receiver *models.User, conversationID, body string) {
	sender, err := s.Storage.FindActiveUserByID(senderID)
	if err != nil || sender == nil {
		log.Printf("ERROR: Sender %s lookup failed during fan-out: %v", senderID, err)
		return
	}

	notif, err := s.Notifications.Create(notification.CreateInput{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Type:       models.NotificationTypeMessageRequest,
		EntityID:   conversationID,
		Text:       sender.FullName() + " sent you a message",
	})
	if err != nil {
		log.Printf("ERROR: Notification create failed for conversation %s: %v", conversationID, err)
	}

	for _, token := range receiver.DeviceTokens {
		s.Push.Send(token, sender.FullName(), body)
	}

	sessions, ok := s.Presence.Lookup(receiver.ID)
	if !ok {
		return
	}

	mobile := models.MobileNotification{
		Title:   sender.FullName(),
		Body:    "sent you a message",
		Event:   models.NotificationTypeMessageRequest,
		Payload: body,
		Sender:  senderID,
	}
	for _, sessionID := range sessions {
		if notif != nil {
			s.Emitter.EmitToSession(sessionID, models.EventNewNotification, notif)
		}
		s.Emitter.EmitToSession(sessionID, models.EventNewMobileNotification, mobile)
	}
}

// GetConversations lists the user's conversations annotated with the other
// member's profile, a summarized last message and the unseen count.
func (s *Service) GetConversations(userID string, pageNumber, pageSize int, search string) (*ConversationsResponse, error) {
	pageNumber, pageSize = normalizePage(pageNumber, pageSize)

	total, err := s.Storage.CountConversations(userID, search)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "conversation count failed", err)
	}

	rows, err := s.Storage.ListConversationSummaries(userID, search, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "conversation list failed", err)
	}

	conversations := make([]ConversationView, 0, len(rows))
	for _, row := range rows {
		view := ConversationView{
			ConversationID: row.ConversationID,
			User: UserView{
				UserID:    row.UserID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				AvatarURL: row.AvatarURL,
			},
			Unseen: row.Unseen,
		}
		// Conversations with no messages yet simply carry no lastMessage.
		if row.LastMessageType != nil && row.LastSentAt != nil {
			view.LastMessage = &LastMessageView{
				MessageType: *row.LastMessageType,
				Body:        summarizeBody(row, userID),
				SentAt:      *row.LastSentAt,
			}
		}
		conversations = append(conversations, view)
	}

	return &ConversationsResponse{Total: total, Conversations: conversations}, nil
}

// summarizeBody renders image and file messages as a fixed placeholder; the
// wording depends on which side sent it.
func summarizeBody(row storage.ConversationSummary, userID string) string {
	mine := row.LastSenderID != nil && *row.LastSenderID == userID

	var noun string
	switch *row.LastMessageType {
	case models.MessageTypeImage:
		noun = "a photo."
	case models.MessageTypeFile:
		noun = "a file."
	default:
		if row.LastBody != nil {
			return *row.LastBody
		}
		return ""
	}

	if mine {
		return "You sent " + noun
	}
	return row.FirstName + " sent " + noun
}

// GetConversationUser returns the profile of the conversation member that is
// not the caller. A missing conversation or member yields a nil user, not an
// error; callers must handle the null explicitly.
func (s *Service) GetConversationUser(userID, conversationID string) (*ConversationUserResponse, error) {
	conv, err := s.Storage.GetConversationByID(conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "conversation lookup failed", err)
	}
	if conv == nil {
		return &ConversationUserResponse{User: nil}, nil
	}

	otherID := conv.OtherMember(userID)
	if otherID == "" {
		return &ConversationUserResponse{User: nil}, nil
	}

	other, err := s.Storage.GetUserByID(otherID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "user lookup failed", err)
	}
	if other == nil {
		return &ConversationUserResponse{User: nil}, nil
	}

	return &ConversationUserResponse{User: &UserView{
		UserID:    other.ID,
		FirstName: other.FirstName,
		LastName:  other.LastName,
		AvatarURL: other.AvatarURL,
	}}, nil
}

// GetMessages returns one page of a conversation's messages, newest first,
// marking everything addressed to the caller as seen and telling the other
// member's live sessions their messages were just read.
func (s *Service) GetMessages(userID string, pageNumber, pageSize int, conversationID string) (*MessagesResponse, error) {
	pageNumber, pageSize = normalizePage(pageNumber, pageSize)

	// Unconditional on every call; the IS NULL guard makes it idempotent.
	if _, err := s.Storage.MarkSeen(conversationID, userID, time.Now()); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "mark seen failed", err)
	}

	conv, err := s.Storage.GetConversationByID(conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "conversation lookup failed", err)
	}
	if conv != nil {
		if otherID := conv.OtherMember(userID); otherID != "" {
			if sessions, ok := s.Presence.Lookup(otherID); ok {
				seen := models.SeenMessage{ConversationID: conversationID, ReceiverID: userID}
				for _, sessionID := range sessions {
					s.Emitter.EmitToSession(sessionID, models.EventSeeMessage, seen)
				}
			}
		}
	}

	total, err := s.Storage.CountMessages(conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "message count failed", err)
	}

	msgs, err := s.Storage.ListMessages(conversationID, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "message list failed", err)
	}

	messages := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		senderType := models.SenderTypeOther
		if msg.SenderID == userID {
			senderType = models.SenderTypeMe
		}
		messages = append(messages, MessageView{
			MessageID:   msg.ID,
			SenderType:  senderType,
			MessageType: msg.MessageType,
			Body:        msg.Body,
			SentAt:      msg.SentAt,
			SeenAt:      msg.SeenAt,
		})
	}

	return &MessagesResponse{
		Total:      total,
		HasNext:    int64(pageNumber)*int64(pageSize) < total,
		PageNumber: pageNumber,
		Messages:   messages,
	}, nil
}

func normalizePage(pageNumber, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	return pageNumber, pageSize
}

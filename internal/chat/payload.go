package chat

import "time"

// SendMessageRequest is the body of POST /chat/messages. The sender identity
// comes from the caller's session, never from the payload.
type SendMessageRequest struct {
	ReceiverID  string `json:"receiverId" binding:"required"`
	MessageType string `json:"messageType" binding:"required,oneof=TEXT IMAGE FILE"`
	Body        string `json:"body" binding:"required"`
}

type SendMessageResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversationId"`
}

// UserView is the public profile slice rendered in chat responses.
type UserView struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
}

// LastMessageView summarizes a conversation's newest message. Image and file
// messages render as a human-readable placeholder instead of the raw body.
type LastMessageView struct {
	MessageType string    `json:"messageType"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sentAt"`
}

type ConversationView struct {
	ConversationID string           `json:"conversationId"`
	User           UserView         `json:"user"`
	LastMessage    *LastMessageView `json:"lastMessage"`
	Unseen         int64            `json:"unseen"`
}

type ConversationsResponse struct {
	Total         int64              `json:"total"`
	Conversations []ConversationView `json:"conversations"`
}

type ConversationUserResponse struct {
	User *UserView `json:"user"`
}

type MessageView struct {
	MessageID   string     `json:"messageId"`
	SenderType  string     `json:"senderType"`
	MessageType string     `json:"messageType"`
	Body        string     `json:"body"`
	SentAt      time.Time  `json:"sentAt"`
	SeenAt      *time.Time `json:"seenAt"`
}

type MessagesResponse struct {
	Total      int64         `json:"total"`
	HasNext    bool          `json:"hasNext"`
	PageNumber int           `json:"pageNumber"`
	Messages   []MessageView `json:"messages"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message types accepted on the send path.
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeFile  = "FILE"
)

// Sender tags relative to the caller of a message listing.
const (
	SenderTypeMe    = "ME"
	SenderTypeOther = "OTHER"
)

// Message is one entry in a conversation. SeenAt is the only mutable field:
// nil until the recipient fetches the conversation, then fixed forever.
type Message struct {
	ID             string     `gorm:"primaryKey" json:"messageId"`
	ConversationID string     `gorm:"not null;index:idx_conversation_message" json:"conversationId"`
	SenderID       string     `gorm:"not null;index:idx_conversation_message" json:"senderId"`
	MessageType    string     `gorm:"not null" json:"messageType"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time  `gorm:"not null;index" json:"sentAt"`
	SeenAt         *time.Time `json:"seenAt"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is unset.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

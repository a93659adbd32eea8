package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is the two-party container for an ordered sequence of messages.
// Membership is immutable after creation and exactly one conversation exists
// per unordered pair of users.
type Conversation struct {
	ID string `gorm:"primaryKey" json:"conversationId"`
	// Members are stored in canonical order (Member1ID < Member2ID) so the
	// composite unique index rejects a second conversation for the same pair
	// even if two first-contact sends race.
	Member1ID string    `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"member1Id"`
	Member2ID string    `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"member2Id"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConversation builds a conversation for the pair, normalizing member order.
func NewConversation(userA, userB string) *Conversation {
	if userB < userA {
		userA, userB = userB, userA
	}
	return &Conversation{Member1ID: userA, Member2ID: userB}
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is unset.
func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasMember reports whether userID is one of the two members.
func (c *Conversation) HasMember(userID string) bool {
	return c.Member1ID == userID || c.Member2ID == userID
}

// OtherMember returns the member that is not userID, or "" when userID is not
// a member at all.
func (c *Conversation) OtherMember(userID string) string {
	switch userID {
	case c.Member1ID:
		return c.Member2ID
	case c.Member2ID:
		return c.Member1ID
	}
	return ""
}

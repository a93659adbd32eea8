package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types understood by the clients.
const (
	NotificationTypeMessageRequest     = "MESSAGE_REQUEST"
	NotificationTypeFavoredRequest     = "FAVORED_REQUEST"
	NotificationTypePhoneNumberRequest = "PHONE_NUMBER_REQUEST"
)

// Notification is a persisted nudge created as a side effect of a domain
// event. EntityID points at the entity the notification is about (for a
// message notification, the conversation id).
type Notification struct {
	ID         string    `gorm:"primaryKey" json:"notificationId"`
	SenderID   string    `gorm:"not null;index" json:"senderId"`
	ReceiverID string    `gorm:"not null;index" json:"receiverId"`
	Type       string    `gorm:"not null" json:"type"`
	EntityID   string    `gorm:"index" json:"entityId"`
	Text       string    `gorm:"type:text" json:"text"`
	IsRead     bool      `gorm:"default:false" json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is unset.
func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

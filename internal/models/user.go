package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User holds the slice of the account/profile data the messaging core needs.
// The full account record (credentials, verification, preferences) is owned by
// the user service; this core only reads identity and display fields.
type User struct {
	ID        string `gorm:"primaryKey" json:"userId"`
	FirstName string `gorm:"not null" json:"firstName"`
	LastName  string `gorm:"not null" json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
	// IsArchived marks a soft-deleted account. Archived users cannot receive
	// messages.
	IsArchived bool `gorm:"index" json:"-"`
	// DeviceTokens are the push-notification tokens of the user's devices.
	DeviceTokens pq.StringArray `gorm:"type:text[]" json:"-"`
	CreatedAt    time.Time      `json:"-"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is unset.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// FullName returns the display name used in notification texts.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

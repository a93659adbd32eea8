package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"petnet/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the persistence boundary of the messaging core. The stores are
// the single source of truth for ordering and membership; nothing is cached
// across requests except the unseen-notification counters in Redis.
type Storage interface {
	FindActiveUserByID(id string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	SaveUser(user *models.User) error
	SetUserArchived(id string, archived bool) error

	FindConversationByMembers(userA, userB string) (*models.Conversation, error)
	CreateConversation(conv *models.Conversation) error
	GetConversationByID(id string) (*models.Conversation, error)
	ListConversationSummaries(userID, search string, offset, limit int) ([]ConversationSummary, error)
	CountConversations(userID, search string) (int64, error)

	CreateMessage(msg *models.Message) error
	RecentSenderMessages(conversationID, senderID string, limit int) ([]models.Message, error)
	ListMessages(conversationID string, offset, limit int) ([]models.Message, error)
	CountMessages(conversationID string) (int64, error)
	MarkSeen(conversationID, readerID string, seenAt time.Time) (int64, error)

	CreateNotification(n *models.Notification) error
	ListNotificationRecords(receiverID string) ([]NotificationRecord, error)
	MarkNotificationsRead(entityID string) (int64, error)
	CountNotificationsByEntity(entityID string) (int64, error)
	UnseenNotificationCount(userID string) (int64, error)
	ResetUnseenNotifications(userID string) error
}

// ConversationSummary is one row of the conversation listing: the other
// member's profile, the most recent message (nullable on empty conversations)
// and the unseen count, all computed in a single query.
type ConversationSummary struct {
	ConversationID  string     `json:"conversationId"`
	UserID          string     `json:"userId"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	AvatarURL       string     `json:"avatarUrl"`
	LastMessageType *string    `json:"lastMessageType"`
	LastBody        *string    `json:"lastBody"`
	LastSenderID    *string    `json:"lastSenderId"`
	LastSentAt      *time.Time `json:"lastSentAt"`
	Unseen          int64      `json:"unseen"`
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// FindActiveUserByID returns the non-archived user with the given id, or nil
// when no such user exists.
func (s *Service) FindActiveUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ? AND is_archived = ?", id, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find user %s: %v", id, err)
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns the user regardless of archive state, or nil when no
// such user exists. Listing endpoints still show archived counterparts.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get user %s: %v", id, err)
		return nil, err
	}
	return &user, nil
}

// SaveUser persists the user to PostgreSQL.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// SetUserArchived flips the soft-delete flag for a user.
func (s *Service) SetUserArchived(id string, archived bool) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", id).
		Update("is_archived", archived).Error
}

// FindConversationByMembers looks up the conversation for the unordered pair,
// or returns nil when the pair has never talked.
func (s *Service) FindConversationByMembers(userA, userB string) (*models.Conversation, error) {
	if userB < userA {
		userA, userB = userB, userA
	}

	var conv models.Conversation
	err := s.DB.Where("member1_id = ? AND member2_id = ?", userA, userB).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find conversation for pair (%s, %s): %v", userA, userB, err)
		return nil, err
	}
	return &conv, nil
}

// CreateConversation persists a new conversation.
func (s *Service) CreateConversation(conv *models.Conversation) error {
	if err := s.DB.Create(conv).Error; err != nil {
		log.Printf("ERROR: Failed to create conversation for pair (%s, %s): %v", conv.Member1ID, conv.Member2ID, err)
		return err
	}
	return nil
}

// GetConversationByID returns the conversation or nil when it does not exist.
func (s *Service) GetConversationByID(id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get conversation %s: %v", id, err)
		return nil, err
	}
	return &conv, nil
}

const conversationSummarySelect = `
SELECT c.id AS conversation_id,
       u.id AS user_id,
       u.first_name,
       u.last_name,
       u.avatar_url,
       lm.message_type AS last_message_type,
       lm.body         AS last_body,
       lm.sender_id    AS last_sender_id,
       lm.sent_at      AS last_sent_at,
       COALESCE(un.unseen, 0) AS unseen
FROM conversations c
JOIN users u
  ON u.id = CASE WHEN c.member1_id = @uid THEN c.member2_id ELSE c.member1_id END
LEFT JOIN LATERAL (
    SELECT m.message_type, m.body, m.sender_id, m.sent_at
    FROM messages m
    WHERE m.conversation_id = c.id
    ORDER BY m.sent_at DESC, m.id DESC
    LIMIT 1
) lm ON true
LEFT JOIN LATERAL (
    SELECT COUNT(*) AS unseen
    FROM messages m
    WHERE m.conversation_id = c.id AND m.sender_id <> @uid AND m.seen_at IS NULL
) un ON true
WHERE (c.member1_id = @uid OR c.member2_id = @uid)`

// ListConversationSummaries returns one page of the user's conversations,
// newest activity first. A non-empty search filters by the other member's
// first or last name, case-insensitively.
func (s *Service) ListConversationSummaries(userID, search string, offset, limit int) ([]ConversationSummary, error) {
	query := conversationSummarySelect
	params := map[string]any{"uid": userID}

	if search != "" {
		query += ` AND (u.first_name ILIKE @search OR u.last_name ILIKE @search)`
		params["search"] = "%" + search + "%"
	}

	query += `
ORDER BY lm.sent_at DESC NULLS LAST, c.created_at DESC
LIMIT @limit OFFSET @offset`
	params["limit"] = limit
	params["offset"] = offset

	var rows []ConversationSummary
	if err := s.DB.Raw(query, params).Scan(&rows).Error; err != nil {
		log.Printf("ERROR: Failed to list conversations for user %s: %v", userID, err)
		return nil, err
	}
	return rows, nil
}

// CountConversations returns the pre-pagination total the listing reports.
func (s *Service) CountConversations(userID, search string) (int64, error) {
	query := `
SELECT COUNT(*)
FROM conversations c
JOIN users u
  ON u.id = CASE WHEN c.member1_id = @uid THEN c.member2_id ELSE c.member1_id END
WHERE (c.member1_id = @uid OR c.member2_id = @uid)`
	params := map[string]any{"uid": userID}

	if search != "" {
		query += ` AND (u.first_name ILIKE @search OR u.last_name ILIKE @search)`
		params["search"] = "%" + search + "%"
	}

	var total int64
	if err := s.DB.Raw(query, params).Scan(&total).Error; err != nil {
		log.Printf("ERROR: Failed to count conversations for user %s: %v", userID, err)
		return 0, err
	}
	return total, nil
}

// CreateMessage persists a message to PostgreSQL.
func (s *Service) CreateMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for conversation %s: %v", msg.ConversationID, err)
		return err
	}
	return nil
}

// RecentSenderMessages returns the sender's newest messages in the
// conversation, newest first, capped at limit. Feeds the burst-limit check.
func (s *Service) RecentSenderMessages(conversationID, senderID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.Where("conversation_id = ? AND sender_id = ?", conversationID, senderID).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		log.Printf("ERROR: Failed to load recent messages for conversation %s: %v", conversationID, err)
		return nil, err
	}
	return msgs, nil
}

// ListMessages returns one page of a conversation's messages ordered by
// sent_at descending, ties broken by id so repeated calls page consistently.
func (s *Service) ListMessages(conversationID string, offset, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.Where("conversation_id = ?", conversationID).
		Order("sent_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		log.Printf("ERROR: Failed to list messages for conversation %s: %v", conversationID, err)
		return nil, err
	}
	return msgs, nil
}

// CountMessages returns the total number of messages in a conversation.
func (s *Service) CountMessages(conversationID string) (int64, error) {
	var total int64
	err := s.DB.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		log.Printf("ERROR: Failed to count messages for conversation %s: %v", conversationID, err)
		return 0, err
	}
	return total, nil
}

// MarkSeen stamps every unseen message not sent by the reader in a single
// bulk update and returns how many rows changed. seen_at never reverts: the
// IS NULL guard keeps already-set timestamps untouched.
func (s *Service) MarkSeen(conversationID, readerID string, seenAt time.Time) (int64, error) {
	result := s.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND seen_at IS NULL", conversationID, readerID).
		Update("seen_at", seenAt)
	if result.Error != nil {
		log.Printf("ERROR: Failed to mark messages seen in conversation %s: %v", conversationID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

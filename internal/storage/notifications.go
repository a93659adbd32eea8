package storage

import (
	"log"
	"time"

	"petnet/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// NotificationRecord is one notification joined with the sender's display
// fields, as the aggregation endpoints return it.
type NotificationRecord struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	UserID    string    `json:"userId"`
	EntityID  string    `json:"entityId"`
	CreatedAt time.Time `json:"createdAt"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
}

const unseenNotifKeyPrefix = "notif:unseen:"

// CreateNotification persists the notification and bumps the receiver's
// unseen counter in Redis. A counter failure is logged, not propagated: the
// cache rebuilds itself on the next read-through.
func (s *Service) CreateNotification(n *models.Notification) error {
	if err := s.DB.Create(n).Error; err != nil {
		log.Printf("ERROR: Failed to save notification for receiver %s: %v", n.ReceiverID, err)
		return err
	}

	if err := s.Redis.Incr(s.Ctx, unseenNotifKeyPrefix+n.ReceiverID).Err(); err != nil {
		log.Printf("WARNING: Failed to bump unseen counter for %s: %v", n.ReceiverID, err)
	}
	return nil
}

// ListNotificationRecords returns all of a user's notifications joined with
// sender names, newest first. Grouping per entity happens in the service.
func (s *Service) ListNotificationRecords(receiverID string) ([]NotificationRecord, error) {
	var records []NotificationRecord
	err := s.DB.Raw(`
SELECT u.first_name,
       u.last_name,
       n.sender_id AS user_id,
       n.entity_id,
       n.created_at,
       n.text,
       n.type,
       n.is_read
FROM notifications n
LEFT JOIN users u ON u.id = n.sender_id
WHERE n.receiver_id = ?
ORDER BY n.created_at DESC`, receiverID).Scan(&records).Error
	if err != nil {
		log.Printf("ERROR: Failed to list notifications for user %s: %v", receiverID, err)
		return nil, err
	}
	return records, nil
}

// MarkNotificationsRead flags every notification about the entity as read and
// returns the number of rows changed.
func (s *Service) MarkNotificationsRead(entityID string) (int64, error) {
	result := s.DB.Model(&models.Notification{}).
		Where("entity_id = ? AND is_read = ?", entityID, false).
		Update("is_read", true)
	if result.Error != nil {
		log.Printf("ERROR: Failed to mark notifications read for entity %s: %v", entityID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountNotificationsByEntity returns how many notifications reference the
// entity.
func (s *Service) CountNotificationsByEntity(entityID string) (int64, error) {
	var total int64
	err := s.DB.Model(&models.Notification{}).
		Where("entity_id = ?", entityID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// UnseenNotificationCount reads the receiver's unseen counter from Redis,
// falling back to a database count on a cache miss.
func (s *Service) UnseenNotificationCount(userID string) (int64, error) {
	key := unseenNotifKeyPrefix + userID

	n, err := s.Redis.Get(s.Ctx, key).Int64()
	if err == nil {
		return n, nil
	}
	if err != redis.Nil {
		log.Printf("WARNING: Unseen counter read failed for %s, falling back to DB: %v", userID, err)
	}

	var total int64
	if err := s.DB.Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&total).Error; err != nil {
		return 0, err
	}

	if err := s.Redis.Set(s.Ctx, key, total, 0).Err(); err != nil {
		log.Printf("WARNING: Failed to prime unseen counter for %s: %v", userID, err)
	}
	return total, nil
}

// ResetUnseenNotifications drops the cached counter after a mark-read so the
// next read rebuilds it from the database.
func (s *Service) ResetUnseenNotifications(userID string) error {
	return s.Redis.Del(s.Ctx, unseenNotifKeyPrefix+userID).Err()
}

// Package notification persists notification records and answers the
// aggregation and read-state queries the clients poll.
package notification

import (
	"time"

	"petnet/backend/internal/models"
	"petnet/backend/internal/storage"
)

// Store is the slice of the storage layer this service needs.
type Store interface {
	CreateNotification(n *models.Notification) error
	ListNotificationRecords(receiverID string) ([]storage.NotificationRecord, error)
	MarkNotificationsRead(entityID string) (int64, error)
	CountNotificationsByEntity(entityID string) (int64, error)
	UnseenNotificationCount(userID string) (int64, error)
	ResetUnseenNotifications(userID string) error
}

// CreateInput carries the fields of a new notification.
type CreateInput struct {
	SenderID   string
	ReceiverID string
	Type       string
	EntityID   string
	Text       string
}

// Group is one entity's bundle of notifications: the listing shows one row
// per entity with its records and read tallies.
type Group struct {
	EntityID    string                       `json:"entityId"`
	Count       int                          `json:"count"`
	Records     []storage.NotificationRecord `json:"records"`
	Timestamp   time.Time                    `json:"timestamp"`
	Type        string                       `json:"type"`
	IsRead      bool                         `json:"isRead"`
	TotalUnread int                          `json:"totalUnread"`
}

type Service interface {
	Create(input CreateInput) (*models.Notification, error)
	ListByUser(userID string) ([]Group, error)
	MarkRead(userID, entityID string) error
	MarkReadMultiple(userID string, entityIDs []string) error
	Unseen(userID string) (int64, error)
	CountByEntity(entityID string) (int64, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) Create(input CreateInput) (*models.Notification, error) {
	n := &models.Notification{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Type:       input.Type,
		EntityID:   input.EntityID,
		Text:       input.Text,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateNotification(n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListByUser groups the user's notifications per entity, newest group first.
// Records arrive from storage newest first, so the first record of each group
// defines its timestamp and type.
func (s *service) ListByUser(userID string) ([]Group, error) {
	records, err := s.store.ListNotificationRecords(userID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, record := range records {
		i, ok := index[record.EntityID]
		if !ok {
			index[record.EntityID] = len(groups)
			groups = append(groups, Group{
				EntityID:  record.EntityID,
				Timestamp: record.CreatedAt,
				Type:      record.Type,
			})
			i = len(groups) - 1
		}
		groups[i].Count++
		groups[i].Records = append(groups[i].Records, record)
		if !record.IsRead {
			groups[i].TotalUnread++
		}
	}
	for i := range groups {
		groups[i].IsRead = groups[i].TotalUnread == 0
	}
	return groups, nil
}

func (s *service) MarkRead(userID, entityID string) error {
	if _, err := s.store.MarkNotificationsRead(entityID); err != nil {
		return err
	}
	return s.store.ResetUnseenNotifications(userID)
}

func (s *service) MarkReadMultiple(userID string, entityIDs []string) error {
	for _, entityID := range entityIDs {
		if _, err := s.store.MarkNotificationsRead(entityID); err != nil {
			return err
		}
	}
	return s.store.ResetUnseenNotifications(userID)
}

func (s *service) Unseen(userID string) (int64, error) {
	return s.store.UnseenNotificationCount(userID)
}

func (s *service) CountByEntity(entityID string) (int64, error) {
	return s.store.CountNotificationsByEntity(entityID)
}

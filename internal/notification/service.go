package notification

import (
	"context"
	defError "errors"
	"fmt"
	"time"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"
	"municipal-planning-collab/redis"

	"gorm.io/gorm"
)

type Service interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	GetUserNotifications(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID uint64) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint64, userID uint64) error
	MarkAllAsRead(ctx context.Context, userID uint64) error
	DeleteNotification(ctx context.Context, notificationID uint64, userID uint64) error
	DeleteRead(ctx context.Context, userID uint64) error
}

type DefaultService struct {
	repository Repository
	cache      *redis.Cache
}

func NewService(repository Repository, cache *redis.Cache) Service {
	return &DefaultService{repository: repository, cache: cache}
}

func unreadCountKey(userID uint64) string {
	return fmt.Sprintf("user:%d:notif:unread", userID)
}

func (s *DefaultService) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.UserID == 0 || n.Type == "" {
		return errors.BadRequest("recipient and type are required", nil)
	}
	if n.Priority == "" {
		n.Priority = "normal"
	}

	if err := s.repository.Create(ctx, n); err != nil {
		return err
	}
	s.cache.Delete(ctx, unreadCountKey(n.UserID))
	return nil
}

func (s *DefaultService) GetUserNotifications(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	return s.repository.ListByUser(ctx, userID, unreadOnly, page, pageSize)
}

func (s *DefaultService) GetUnreadCount(ctx context.Context, userID uint64) (int64, error) {
	key := unreadCountKey(userID)

	var cached int64
	found, _ := s.cache.Get(ctx, key, &cached)
	if found {
		return cached, nil
	}

	count, err := s.repository.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, key, count, 5*time.Minute)

	return count, nil
}

// MarkAsRead flips the read flag. Only the recipient may do it.
func (s *DefaultService) MarkAsRead(ctx context.Context, notificationID uint64, userID uint64) error {
	notification, err := s.findOwned(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if notification.Read {
		return nil // already read, nothing to do
	}

	if err := s.repository.MarkAsRead(ctx, notificationID); err != nil {
		return err
	}
	s.cache.Delete(ctx, unreadCountKey(userID))
	return nil
}

func (s *DefaultService) MarkAllAsRead(ctx context.Context, userID uint64) error {
	if err := s.repository.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, unreadCountKey(userID))
	return nil
}

// DeleteNotification removes a notification. Only the recipient may do it.
func (s *DefaultService) DeleteNotification(ctx context.Context, notificationID uint64, userID uint64) error {
	if _, err := s.findOwned(ctx, notificationID, userID); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, notificationID); err != nil {
		return err
	}
	s.cache.Delete(ctx, unreadCountKey(userID))
	return nil
}

func (s *DefaultService) DeleteRead(ctx context.Context, userID uint64) error {
	return s.repository.DeleteRead(ctx, userID)
}

func (s *DefaultService) findOwned(ctx context.Context, notificationID uint64, userID uint64) (*domain.Notification, error) {
	notification, err := s.repository.FindByID(ctx, notificationID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Notification not found", err)
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, errors.Forbidden("Not your notification", nil)
	}
	return notification, nil
}

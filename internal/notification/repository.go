package notification

import (
	"context"
	"time"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	FindByID(ctx context.Context, id uint64) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, id uint64) error
	MarkAllAsRead(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, id uint64) error
	DeleteRead(ctx context.Context, userID uint64) error
	CountUnread(ctx context.Context, userID uint64) (int64, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, notification *domain.Notification) error {
	notification.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.WithContext(ctx).First(&notification, id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return notifications, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *RepositoryImpl) MarkAsRead(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"read": true, "read_at": now}).Error
}

func (r *RepositoryImpl) MarkAllAsRead(ctx context.Context, userID uint64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Updates(map[string]any{"read": true, "read_at": now}).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Notification{}, id).Error
}

func (r *RepositoryImpl) DeleteRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND read = true", userID).
		Delete(&domain.Notification{}).Error
}

func (r *RepositoryImpl) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}

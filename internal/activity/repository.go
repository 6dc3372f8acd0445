package activity

import (
	"context"
	"time"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

// FeedFilter narrows the feed. Filters combine with AND; zero values are
// ignored.
type FeedFilter struct {
	SessionID    string
	ResourceType string
	ResourceID   uint64
	ActorID      uint64
	Limit        int
}

// ActionCount is one row of the analytics aggregation
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type Repository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	Feed(ctx context.Context, filter FeedFilter) ([]domain.Activity, error)
	CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, activity *domain.Activity) error {
	activity.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(activity).Error
}

// Feed returns entries newest-first, default limit 100
func (r *RepositoryImpl) Feed(ctx context.Context, filter FeedFilter) ([]domain.Activity, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.WithContext(ctx).Model(&domain.Activity{})
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.ResourceType != "" && filter.ResourceID != 0 {
		query = query.Where("resource_type = ? AND resource_id = ?", filter.ResourceType, filter.ResourceID)
	}
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}

	var entries []domain.Activity
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error

	return entries, err
}

// CountByAction aggregates entries since the given time, grouped by action
func (r *RepositoryImpl) CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	var counts []ActionCount
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Select("action, count(*) as count").
		Where("created_at >= ?", since).
		Group("action").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

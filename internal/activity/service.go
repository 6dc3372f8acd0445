package activity

import (
	"context"
	"time"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"
)

type Service interface {
	RecordActivity(ctx context.Context, a *domain.Activity) error
	GetActivityFeed(ctx context.Context, filter FeedFilter) ([]domain.Activity, error)
	GetAnalytics(ctx context.Context, window time.Duration) ([]ActionCount, error)
}

type DefaultService struct {
	repository Repository
}

func NewService(repository Repository) Service {
	return &DefaultService{repository: repository}
}

// RecordActivity appends one entry. Entries always name an actor and an
// action, plus either a session or a resource to hang the entry on.
func (s *DefaultService) RecordActivity(ctx context.Context, a *domain.Activity) error {
	if a.ActorID == 0 || a.Action == "" {
		return errors.BadRequest("actor and action are required", nil)
	}
	if a.SessionID == "" && (a.ResourceType == "" || a.ResourceID == nil) {
		return errors.BadRequest("a session or resource reference is required", nil)
	}
	return s.repository.Create(ctx, a)
}

func (s *DefaultService) GetActivityFeed(ctx context.Context, filter FeedFilter) ([]domain.Activity, error) {
	return s.repository.Feed(ctx, filter)
}

func (s *DefaultService) GetAnalytics(ctx context.Context, window time.Duration) ([]ActionCount, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	since := time.Now().UTC().Add(-window)
	return s.repository.CountByAction(ctx, since)
}

package activity

import (
	"context"
	"testing"
	"time"

	"municipal-planning-collab/internal/domain"
	apiError "municipal-planning-collab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, activity *domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockRepository) Feed(ctx context.Context, filter FeedFilter) ([]domain.Activity, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Activity), args.Error(1)
}

func (m *MockRepository) CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]ActionCount), args.Error(1)
}

func TestRecordActivity_SessionScoped(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := service.RecordActivity(context.Background(), &domain.Activity{
		SessionID: "abc",
		ActorID:   1,
		Action:    "session_joined",
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRecordActivity_ResourceScoped(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resourceID := uint64(42)
	err := service.RecordActivity(context.Background(), &domain.Activity{
		ResourceType: "plan",
		ResourceID:   &resourceID,
		ActorID:      1,
		Action:       "comment_added",
	})

	assert.NoError(t, err)
}

func TestRecordActivity_MissingActor(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	err := service.RecordActivity(context.Background(), &domain.Activity{
		SessionID: "abc",
		Action:    "session_joined",
	})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordActivity_NeedsSessionOrResource(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	err := service.RecordActivity(context.Background(), &domain.Activity{
		ActorID: 1,
		Action:  "comment_added",
	})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestGetAnalytics_DefaultWindow(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("CountByAction", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		// zero window falls back to the last 7 days
		expected := time.Now().UTC().Add(-7 * 24 * time.Hour)
		return since.Sub(expected).Abs() < time.Minute
	})).Return([]ActionCount{{Action: "comment_added", Count: 12}}, nil)

	counts, err := service.GetAnalytics(context.Background(), 0)

	assert.NoError(t, err)
	assert.Len(t, counts, 1)
	assert.Equal(t, int64(12), counts[0].Count)
	mockRepo.AssertExpectations(t)
}

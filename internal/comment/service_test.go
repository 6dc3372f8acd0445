package comment

import (
	"context"
	"testing"
	"time"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/engine"
	apiError "municipal-planning-collab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockRepository) ListByResource(ctx context.Context, resourceType string, resourceID uint64, page, pageSize int) ([]domain.Comment, ListMeta, error) {
	args := m.Called(ctx, resourceType, resourceID, page, pageSize)
	return args.Get(0).([]domain.Comment), args.Get(1).(ListMeta), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) HasAccess(ctx context.Context, userID uint64, resourceType string, resourceID uint64) bool {
	args := m.Called(ctx, userID, resourceType, resourceID)
	return args.Bool(0)
}

type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByID(id uint64) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockNotificationCreator struct {
	mock.Mock
}

func (m *MockNotificationCreator) CreateNotification(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockActivityRecorder struct {
	mock.Mock
}

func (m *MockActivityRecorder) RecordActivity(ctx context.Context, a *domain.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type serviceFixture struct {
	repo          *MockRepository
	guard         *MockGuard
	users         *MockUserProvider
	notifications *MockNotificationCreator
	activities    *MockActivityRecorder
	engine        *engine.Engine
	service       Service
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		repo:          new(MockRepository),
		guard:         new(MockGuard),
		users:         new(MockUserProvider),
		notifications: new(MockNotificationCreator),
		activities:    new(MockActivityRecorder),
		engine:        engine.New(time.Minute),
	}
	f.service = NewService(f.repo, f.guard, f.users, f.notifications, f.activities, f.engine)
	return f
}

var author = &domain.User{ID: 1, Name: "Dana", Role: domain.RoleStaff, MunicipalityID: 10, DepartmentID: 100}

// TestCreateComment_MentionFanOut verifies mentions [A, B] produce exactly
// two notifications, one per recipient, type mention and priority high
func TestCreateComment_MentionFanOut(t *testing.T) {
	f := newFixture()

	f.guard.On("HasAccess", mock.Anything, uint64(1), "plan", uint64(42)).Return(true)
	f.users.On("GetUserByID", uint64(1)).Return(author, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Comment).ID = 7
	})
	f.activities.On("RecordActivity", mock.Anything, mock.MatchedBy(func(a *domain.Activity) bool {
		return a.Action == "comment_added" && a.ActorID == 1
	})).Return(nil)

	var recipients []uint64
	f.notifications.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == "mention" && n.Priority == "high"
	})).Return(nil).Run(func(args mock.Arguments) {
		recipients = append(recipients, args.Get(1).(*domain.Notification).UserID)
	})

	notificationEvents := 0
	commentEvents := 0
	f.engine.Subscribe("notification", func(payload any) { notificationEvents++ })
	f.engine.Subscribe("comment", func(payload any) { commentEvents++ })

	comment, err := f.service.CreateComment(context.Background(), 1, CreateCommentInput{
		ResourceType: "plan",
		ResourceID:   42,
		Content:      "please review",
		Mentions:     []uint64{2, 3},
	})

	assert.NoError(t, err)
	assert.Equal(t, uint64(7), comment.ID)
	assert.Equal(t, []uint64{2, 3}, recipients)
	assert.Equal(t, 2, notificationEvents)
	assert.Equal(t, 1, commentEvents)
	f.notifications.AssertNumberOfCalls(t, "CreateNotification", 2)
}

// Duplicate mentions collapse into one notification and self-mentions are
// suppressed entirely
func TestCreateComment_DedupesAndSkipsSelfMention(t *testing.T) {
	f := newFixture()

	f.guard.On("HasAccess", mock.Anything, uint64(1), "plan", uint64(42)).Return(true)
	f.users.On("GetUserByID", uint64(1)).Return(author, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.activities.On("RecordActivity", mock.Anything, mock.Anything).Return(nil)
	f.notifications.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == 2
	})).Return(nil)

	_, err := f.service.CreateComment(context.Background(), 1, CreateCommentInput{
		ResourceType: "plan",
		ResourceID:   42,
		Content:      "ping",
		Mentions:     []uint64{2, 2, 1, 2},
	})

	assert.NoError(t, err)
	f.notifications.AssertNumberOfCalls(t, "CreateNotification", 1)
}

func TestCreateComment_AccessDenied(t *testing.T) {
	f := newFixture()

	f.guard.On("HasAccess", mock.Anything, uint64(1), "plan", uint64(42)).Return(false)

	_, err := f.service.CreateComment(context.Background(), 1, CreateCommentInput{
		ResourceType: "plan",
		ResourceID:   42,
		Content:      "hi",
	})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateComment_MissingFields(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateComment(context.Background(), 1, CreateCommentInput{
		ResourceType: "plan",
		ResourceID:   42,
	})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestCreateComment_ReplyRecordsReplyActivity(t *testing.T) {
	f := newFixture()
	parentID := uint64(5)

	f.guard.On("HasAccess", mock.Anything, uint64(1), "plan", uint64(42)).Return(true)
	f.users.On("GetUserByID", uint64(1)).Return(author, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.activities.On("RecordActivity", mock.Anything, mock.MatchedBy(func(a *domain.Activity) bool {
		return a.Action == "comment_replied"
	})).Return(nil)

	_, err := f.service.CreateComment(context.Background(), 1, CreateCommentInput{
		ResourceType: "plan",
		ResourceID:   42,
		ParentID:     &parentID,
		Content:      "agreed",
	})

	assert.NoError(t, err)
	f.activities.AssertExpectations(t)
}

func TestUpdateComment_OnlyAuthorOrAdmin(t *testing.T) {
	f := newFixture()
	existing := &domain.Comment{ID: 7, ResourceType: "plan", ResourceID: 42, AuthorID: 1, Content: "old"}

	f.repo.On("FindByID", mock.Anything, uint64(7)).Return(existing, nil)
	f.users.On("GetUserByID", uint64(3)).
		Return(&domain.User{ID: 3, Name: "Sam", Role: domain.RoleStaff}, nil)

	_, err := f.service.UpdateComment(context.Background(), 7, 3, "new", nil)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// Editing only notifies users mentioned for the first time
func TestUpdateComment_NotifiesOnlyNewMentions(t *testing.T) {
	f := newFixture()
	existing := &domain.Comment{
		ID: 7, ResourceType: "plan", ResourceID: 42, AuthorID: 1,
		Content: "old", Mentions: []uint64{2},
	}

	f.repo.On("FindByID", mock.Anything, uint64(7)).Return(existing, nil)
	f.users.On("GetUserByID", uint64(1)).Return(author, nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifications.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == 3
	})).Return(nil)

	_, err := f.service.UpdateComment(context.Background(), 7, 1, "new text", []uint64{2, 3})

	assert.NoError(t, err)
	f.notifications.AssertNumberOfCalls(t, "CreateNotification", 1)
}

func TestDeleteComment_NotFound(t *testing.T) {
	f := newFixture()

	f.repo.On("FindByID", mock.Anything, uint64(7)).Return(nil, gorm.ErrRecordNotFound)

	err := f.service.DeleteComment(context.Background(), 7, 1)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestDeleteComment_ElevatedRoleMayDelete(t *testing.T) {
	f := newFixture()
	existing := &domain.Comment{ID: 7, ResourceType: "plan", ResourceID: 42, AuthorID: 1}

	f.repo.On("FindByID", mock.Anything, uint64(7)).Return(existing, nil)
	f.users.On("GetUserByID", uint64(9)).
		Return(&domain.User{ID: 9, Name: "Chris", Role: domain.RoleAdmin}, nil)
	f.repo.On("Delete", mock.Anything, uint64(7)).Return(nil)

	assert.NoError(t, f.service.DeleteComment(context.Background(), 7, 9))
	f.repo.AssertExpectations(t)
}

func TestGetComments_AccessDenied(t *testing.T) {
	f := newFixture()

	f.guard.On("HasAccess", mock.Anything, uint64(1), "plan", uint64(42)).Return(false)

	_, _, err := f.service.GetComments(context.Background(), 1, "plan", 42, 1, 10)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

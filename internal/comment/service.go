package comment

import (
	"context"
	defError "errors"
	"fmt"

	"municipal-planning-collab/internal/access"
	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/engine"
	"municipal-planning-collab/internal/errors"

	"gorm.io/gorm"
)

type Service interface {
	CreateComment(ctx context.Context, authorID uint64, input CreateCommentInput) (*domain.Comment, error)
	GetComments(ctx context.Context, userID uint64, resourceType string, resourceID uint64, page, pageSize int) ([]domain.Comment, ListMeta, error)
	UpdateComment(ctx context.Context, commentID uint64, userID uint64, content string, mentions []uint64) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID uint64, userID uint64) error
}

type CreateCommentInput struct {
	ResourceType string
	ResourceID   uint64
	ParentID     *uint64
	Content      string
	Mentions     []uint64
}

// UserProvider resolves actor display data for notifications
type UserProvider interface {
	GetUserByID(id uint64) (*domain.User, error)
}

// NotificationCreator persists one notification row
type NotificationCreator interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// ActivityRecorder appends one activity entry
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a *domain.Activity) error
}

type DefaultService struct {
	repository    Repository
	guard         access.Guard
	users         UserProvider
	notifications NotificationCreator
	activities    ActivityRecorder
	engine        *engine.Engine
}

func NewService(
	repository Repository,
	guard access.Guard,
	users UserProvider,
	notifications NotificationCreator,
	activities ActivityRecorder,
	eng *engine.Engine,
) Service {
	return &DefaultService{
		repository:    repository,
		guard:         guard,
		users:         users,
		notifications: notifications,
		activities:    activities,
		engine:        eng,
	}
}

func (s *DefaultService) CreateComment(ctx context.Context, authorID uint64, input CreateCommentInput) (*domain.Comment, error) {
	if input.ResourceType == "" || input.ResourceID == 0 || input.Content == "" {
		return nil, errors.BadRequest("resource_type, resource_id and content are required", nil)
	}

	if !s.guard.HasAccess(ctx, authorID, input.ResourceType, input.ResourceID) {
		return nil, errors.Forbidden("You don't have access to this resource", nil)
	}

	author, err := s.users.GetUserByID(authorID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		ParentID:     input.ParentID,
		AuthorID:     authorID,
		Content:      input.Content,
		Mentions:     dedupeMentions(input.Mentions, authorID),
	}

	if err := s.repository.Create(ctx, comment); err != nil {
		return nil, err
	}

	action := "comment_added"
	description := fmt.Sprintf("%s commented on %s %d", author.Name, input.ResourceType, input.ResourceID)
	if input.ParentID != nil {
		action = "comment_replied"
		description = fmt.Sprintf("%s replied to a comment on %s %d", author.Name, input.ResourceType, input.ResourceID)
	}
	if err := s.activities.RecordActivity(ctx, &domain.Activity{
		ResourceType: input.ResourceType,
		ResourceID:   &input.ResourceID,
		ActorID:      authorID,
		Action:       action,
		Description:  description,
		Metadata:     map[string]any{"comment_id": comment.ID},
	}); err != nil {
		return nil, err
	}

	if err := s.notifyMentions(ctx, comment, author, comment.Mentions); err != nil {
		return nil, err
	}

	// one broadcast for the comment itself, so open sessions on the
	// resource see it without polling
	s.engine.Emit("comment", comment)

	return comment, nil
}

func (s *DefaultService) GetComments(ctx context.Context, userID uint64, resourceType string, resourceID uint64, page, pageSize int) ([]domain.Comment, ListMeta, error) {
	if !s.guard.HasAccess(ctx, userID, resourceType, resourceID) {
		return nil, ListMeta{}, errors.Forbidden("You don't have access to this resource", nil)
	}
	return s.repository.ListByResource(ctx, resourceType, resourceID, page, pageSize)
}

func (s *DefaultService) UpdateComment(ctx context.Context, commentID uint64, userID uint64, content string, mentions []uint64) (*domain.Comment, error) {
	if content == "" {
		return nil, errors.BadRequest("content is required", nil)
	}

	comment, err := s.repository.FindByID(ctx, commentID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Comment not found", err)
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID && !domain.IsElevatedRole(user.Role) {
		return nil, errors.Forbidden("Only the author or an admin can edit this comment", nil)
	}

	previous := mentionSet(comment.Mentions)
	comment.Content = content
	comment.Mentions = dedupeMentions(mentions, comment.AuthorID)

	if err := s.repository.Update(ctx, comment); err != nil {
		return nil, err
	}

	// only users mentioned for the first time get notified on edit
	author, err := s.users.GetUserByID(comment.AuthorID)
	if err != nil {
		return nil, err
	}
	fresh := make([]uint64, 0, len(comment.Mentions))
	for _, id := range comment.Mentions {
		if !previous[id] {
			fresh = append(fresh, id)
		}
	}
	if err := s.notifyMentions(ctx, comment, author, fresh); err != nil {
		return nil, err
	}

	s.engine.Emit("comment", comment)

	return comment, nil
}

func (s *DefaultService) DeleteComment(ctx context.Context, commentID uint64, userID uint64) error {
	comment, err := s.repository.FindByID(ctx, commentID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Comment not found", err)
		}
		return err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID && !domain.IsElevatedRole(user.Role) {
		return errors.Forbidden("Only the author or an admin can delete this comment", nil)
	}

	return s.repository.Delete(ctx, commentID)
}

// notifyMentions creates one "mention" notification per recipient and emits
// each one for live delivery
func (s *DefaultService) notifyMentions(ctx context.Context, comment *domain.Comment, author *domain.User, recipients []uint64) error {
	for _, recipientID := range recipients {
		notification := &domain.Notification{
			UserID:       recipientID,
			Type:         "mention",
			Title:        "You were mentioned",
			Message:      fmt.Sprintf("%s mentioned you in a comment", author.Name),
			ResourceType: comment.ResourceType,
			ResourceID:   &comment.ResourceID,
			Priority:     "high",
			Actors: []domain.NotificationActor{
				{UserID: author.ID, Name: author.Name, AvatarURL: author.AvatarURL},
			},
		}
		if err := s.notifications.CreateNotification(ctx, notification); err != nil {
			return err
		}
		s.engine.Emit("notification", notification)
	}
	return nil
}

// dedupeMentions removes duplicate ids and the author's own id, preserving
// order of first occurrence
func dedupeMentions(mentions []uint64, authorID uint64) []uint64 {
	seen := make(map[uint64]bool, len(mentions))
	result := make([]uint64, 0, len(mentions))
	for _, id := range mentions {
		if id == authorID || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

func mentionSet(mentions []uint64) map[uint64]bool {
	set := make(map[uint64]bool, len(mentions))
	for _, id := range mentions {
		set[id] = true
	}
	return set
}

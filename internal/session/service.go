package session

import (
	"context"
	defError "errors"
	"fmt"

	"municipal-planning-collab/internal/access"
	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/engine"
	"municipal-planning-collab/internal/errors"
	"municipal-planning-collab/internal/worker"
)

type Service interface {
	Create(ctx context.Context, userID uint64, resourceType string, resourceID uint64) (*engine.Session, error)
	Join(ctx context.Context, sessionID string, userID uint64) error
	Leave(ctx context.Context, sessionID string, userID uint64) error
	UpdatePresence(ctx context.Context, sessionID string, userID uint64, update engine.PresenceUpdate) error
	Broadcast(ctx context.Context, sessionID string, userID uint64, event string, payload map[string]any) error
	Participants(ctx context.Context, sessionID string, userID uint64) ([]engine.Participant, error)
	End(ctx context.Context, sessionID string, userID uint64) error
}

// UserProvider resolves participant display data
type UserProvider interface {
	GetUserByID(id uint64) (*domain.User, error)
}

// ActivityRecorder appends one activity entry
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a *domain.Activity) error
}

type DefaultService struct {
	engine     *engine.Engine
	guard      access.Guard
	users      UserProvider
	activities ActivityRecorder
	pool       *worker.WorkerPool
}

func NewService(
	eng *engine.Engine,
	guard access.Guard,
	users UserProvider,
	activities ActivityRecorder,
	pool *worker.WorkerPool,
) Service {
	return &DefaultService{
		engine:     eng,
		guard:      guard,
		users:      users,
		activities: activities,
		pool:       pool,
	}
}

// Create returns the active session for the resource, creating one if
// needed. The caller still has to join.
func (s *DefaultService) Create(ctx context.Context, userID uint64, resourceType string, resourceID uint64) (*engine.Session, error) {
	if !s.guard.HasAccess(ctx, userID, resourceType, resourceID) {
		return nil, errors.Forbidden("You don't have access to this resource", nil)
	}

	sessionID := s.engine.CreateSession(resourceID, resourceType, userID)
	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (s *DefaultService) Join(ctx context.Context, sessionID string, userID uint64) error {
	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		return translateEngineError(err)
	}

	if !s.guard.HasAccess(ctx, userID, session.ResourceType, session.ResourceID) {
		return errors.Forbidden("You don't have access to this resource", nil)
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}

	participant := engine.Participant{
		UserID:    user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	}
	if err := s.engine.JoinSession(sessionID, participant); err != nil {
		return translateEngineError(err)
	}

	s.engine.Emit("participant_joined", map[string]any{
		"session_id":  sessionID,
		"participant": participant,
	})
	s.recordAsync(sessionID, session, userID, "session_joined",
		fmt.Sprintf("%s joined the session", user.Name))

	return nil
}

func (s *DefaultService) Leave(ctx context.Context, sessionID string, userID uint64) error {
	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		// leave is tolerant: leaving an unknown session is a no-op
		return nil
	}

	s.engine.LeaveSession(sessionID, userID)

	s.engine.Emit("participant_left", map[string]any{
		"session_id": sessionID,
		"user_id":    userID,
	})
	s.recordAsync(sessionID, session, userID, "session_left", "participant left the session")

	return nil
}

func (s *DefaultService) UpdatePresence(ctx context.Context, sessionID string, userID uint64, update engine.PresenceUpdate) error {
	if err := s.engine.UpdatePresence(sessionID, userID, update); err != nil {
		return translateEngineError(err)
	}

	s.engine.Emit("presence", map[string]any{
		"session_id": sessionID,
		"user_id":    userID,
		"update":     update,
	})

	return nil
}

// Broadcast relays an application-defined event to everyone listening on
// the session. The sender must be a current participant.
func (s *DefaultService) Broadcast(ctx context.Context, sessionID string, userID uint64, event string, payload map[string]any) error {
	participants, err := s.engine.GetSessionParticipants(sessionID)
	if err != nil {
		return translateEngineError(err)
	}

	member := false
	for _, p := range participants {
		if p.UserID == userID {
			member = true
			break
		}
	}
	if !member {
		return errors.Forbidden("Only session participants can broadcast", nil)
	}

	s.engine.Emit(event, map[string]any{
		"session_id": sessionID,
		"user_id":    userID,
		"payload":    payload,
	})

	return nil
}

func (s *DefaultService) Participants(ctx context.Context, sessionID string, userID uint64) ([]engine.Participant, error) {
	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		return nil, translateEngineError(err)
	}

	if !s.guard.HasAccess(ctx, userID, session.ResourceType, session.ResourceID) {
		return nil, errors.Forbidden("You don't have access to this resource", nil)
	}

	participants, err := s.engine.GetSessionParticipants(sessionID)
	if err != nil {
		return nil, translateEngineError(err)
	}
	return participants, nil
}

func (s *DefaultService) End(ctx context.Context, sessionID string, userID uint64) error {
	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		return translateEngineError(err)
	}

	if !s.guard.HasAccess(ctx, userID, session.ResourceType, session.ResourceID) {
		return errors.Forbidden("You don't have access to this resource", nil)
	}

	if err := s.engine.EndSession(sessionID, userID); err != nil {
		return translateEngineError(err)
	}

	s.engine.Emit("session_ended", map[string]any{
		"session_id": sessionID,
		"ended_by":   userID,
	})
	s.recordAsync(sessionID, session, userID, "session_ended", "session ended")

	return nil
}

// recordAsync writes the activity entry off the request path; presence
// churn should not block on the database
func (s *DefaultService) recordAsync(sessionID string, session engine.Session, userID uint64, action, description string) {
	resourceID := session.ResourceID
	entry := &domain.Activity{
		SessionID:    sessionID,
		ResourceType: session.ResourceType,
		ResourceID:   &resourceID,
		ActorID:      userID,
		Action:       action,
		Description:  description,
	}
	s.pool.Submit(func(ctx context.Context) error {
		return s.activities.RecordActivity(ctx, entry)
	})
}

// translateEngineError maps engine sentinels to API errors; the engine's
// raw messages stay internal
func translateEngineError(err error) error {
	switch {
	case defError.Is(err, engine.ErrSessionNotFound), defError.Is(err, engine.ErrSessionEnded):
		return errors.NotFound("Session not found", err)
	case defError.Is(err, engine.ErrNotParticipant):
		return errors.Forbidden("Not a session participant", err)
	default:
		return err
	}
}

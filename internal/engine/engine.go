package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors. Handlers translate these; the raw text never reaches a
// client verbatim.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
	ErrNotParticipant  = errors.New("user is not a participant")
)

// Presence status values
const (
	StatusActive = "active"
	StatusIdle   = "idle"
	StatusAway   = "away"
)

// CursorPosition is an optional pointer location within the resource view
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Presence is the ephemeral state of a participant: what they are doing and
// where. Mutated only through UpdatePresence by the owning user.
type Presence struct {
	Status    string          `json:"status"`   // active, idle, away
	Activity  string          `json:"activity"` // viewing, editing, commenting
	Location  string          `json:"location"` // route or sub-resource
	Cursor    *CursorPosition `json:"cursor,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PresenceUpdate carries only the fields the caller wants to change; nil
// fields keep their current value.
type PresenceUpdate struct {
	Status   *string         `json:"status"`
	Activity *string         `json:"activity"`
	Location *string         `json:"location"`
	Cursor   *CursorPosition `json:"cursor"`
}

// Participant is one user's membership in a session
type Participant struct {
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	Presence  Presence  `json:"presence"`
}

// Session is a live collaborative context bound to one resource
type Session struct {
	ID           string    `json:"id"`
	ResourceID   uint64    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	CreatedByID  uint64    `json:"created_by_id"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

type sessionState struct {
	Session
	participants map[uint64]*Participant
}

type resourceKey struct {
	resourceType string
	resourceID   uint64
}

// Listener receives event payloads. Delivery is synchronous and at-most-once:
// a listener registered after Emit returns never sees that event.
type Listener func(payload any)

type registration struct {
	id uint64
	fn Listener
}

// Engine coordinates live sessions, participants and presence for one server
// process, and fans events out to registered listeners. All state is
// in-memory: a restart drops every session, and nothing here synchronizes
// across processes. Running more than one instance behind a load balancer
// requires an external broker; this engine does not attempt it.
//
// Construct one Engine at startup and inject it where needed.
type Engine struct {
	mu         sync.Mutex
	sessions   map[string]*sessionState
	byResource map[resourceKey]string // active session per resource

	listenerMu sync.Mutex
	listeners  map[string][]registration
	nextSubID  uint64

	idleThreshold time.Duration
	now           func() time.Time
}

func New(idleThreshold time.Duration) *Engine {
	return &Engine{
		sessions:      make(map[string]*sessionState),
		byResource:    make(map[resourceKey]string),
		listeners:     make(map[string][]registration),
		idleThreshold: idleThreshold,
		now:           time.Now,
	}
}

// CreateSession returns the id of the active session for the resource,
// creating one if none exists. The creator is NOT joined automatically;
// callers follow up with JoinSession.
func (e *Engine) CreateSession(resourceID uint64, resourceType string, creatorID uint64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := resourceKey{resourceType: resourceType, resourceID: resourceID}
	if id, ok := e.byResource[key]; ok {
		return id
	}

	id := uuid.NewString()
	e.sessions[id] = &sessionState{
		Session: Session{
			ID:           id,
			ResourceID:   resourceID,
			ResourceType: resourceType,
			CreatedByID:  creatorID,
			CreatedAt:    e.now().UTC(),
			Active:       true,
		},
		participants: make(map[uint64]*Participant),
	}
	e.byResource[key] = id

	return id
}

// GetSession returns a snapshot of the session metadata
func (e *Engine) GetSession(sessionID string) (Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return state.Session, nil
}

// JoinSession inserts or overwrites the participant entry for its user id.
// There is no auto-creation fallback for unknown sessions.
func (e *Engine) JoinSession(sessionID string, p Participant) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !state.Active {
		return ErrSessionEnded
	}

	now := e.now().UTC()
	p.JoinedAt = now
	if p.Presence.Status == "" {
		p.Presence.Status = StatusActive
	}
	p.Presence.UpdatedAt = now
	state.participants[p.UserID] = &p

	return nil
}

// LeaveSession removes the participant entry. Tolerant of double-leave and
// unknown sessions.
func (e *Engine) LeaveSession(sessionID string, userID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return
	}
	delete(state.participants, userID)
}

// UpdatePresence merges the given fields onto the participant's presence.
// Unspecified fields keep their current value.
func (e *Engine) UpdatePresence(sessionID string, userID uint64, update PresenceUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !state.Active {
		return ErrSessionEnded
	}

	p, ok := state.participants[userID]
	if !ok {
		return ErrNotParticipant
	}

	if update.Status != nil {
		p.Presence.Status = *update.Status
	}
	if update.Activity != nil {
		p.Presence.Activity = *update.Activity
	}
	if update.Location != nil {
		p.Presence.Location = *update.Location
	}
	if update.Cursor != nil {
		p.Presence.Cursor = update.Cursor
	}
	p.Presence.UpdatedAt = e.now().UTC()

	return nil
}

// GetSessionParticipants returns a snapshot of the session's participants,
// ordered by join time. A participant whose presence has not been refreshed
// within the idle threshold is reported as away; the stored state is not
// touched, so a late heartbeat restores the real status.
func (e *Engine) GetSessionParticipants(sessionID string) ([]Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := e.now().UTC()
	result := make([]Participant, 0, len(state.participants))
	for _, p := range state.participants {
		snapshot := *p
		if e.idleThreshold > 0 && now.Sub(p.Presence.UpdatedAt) > e.idleThreshold {
			snapshot.Presence.Status = StatusAway
		}
		result = append(result, snapshot)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].UserID < result[j].UserID
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})

	return result, nil
}

// EndSession marks the session inactive and clears its participants. Any
// later join or presence call against the id fails.
func (e *Engine) EndSession(sessionID string, closedByID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	state.Active = false
	state.participants = make(map[uint64]*Participant)

	key := resourceKey{resourceType: state.ResourceType, resourceID: state.ResourceID}
	if e.byResource[key] == sessionID {
		delete(e.byResource, key)
	}

	return nil
}

// Subscribe registers a listener for an event name and returns a handle for
// Unsubscribe
func (e *Engine) Subscribe(event string, fn Listener) uint64 {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	e.nextSubID++
	e.listeners[event] = append(e.listeners[event], registration{id: e.nextSubID, fn: fn})
	return e.nextSubID
}

// Unsubscribe removes a listener registration. No-op for unknown handles.
func (e *Engine) Unsubscribe(event string, id uint64) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	regs := e.listeners[event]
	for i, reg := range regs {
		if reg.id == id {
			e.listeners[event] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Emit calls every listener registered for the event, synchronously and in
// registration order. Fire-and-forget: no buffering, no replay, no error
// when nobody is listening.
func (e *Engine) Emit(event string, payload any) {
	e.listenerMu.Lock()
	regs := make([]registration, len(e.listeners[event]))
	copy(regs, e.listeners[event])
	e.listenerMu.Unlock()

	// Listeners run outside the lock so they may call back into the engine
	for _, reg := range regs {
		reg.fn(payload)
	}
}

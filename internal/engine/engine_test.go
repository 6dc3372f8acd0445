package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return New(60 * time.Second)
}

func participant(userID uint64, name string) Participant {
	return Participant{
		UserID: userID,
		Name:   name,
		Role:   "staff",
	}
}

func strPtr(s string) *string { return &s }

// TestCreateSession_IdempotentByResource verifies two creates for the same
// resource return the same session id until the session ends
func TestCreateSession_IdempotentByResource(t *testing.T) {
	e := newTestEngine()

	first := e.CreateSession(42, "plan", 1)
	second := e.CreateSession(42, "plan", 2)

	assert.Equal(t, first, second)

	// a different resource gets its own session
	other := e.CreateSession(43, "plan", 1)
	assert.NotEqual(t, first, other)

	// same id, different type is a different resource
	goal := e.CreateSession(42, "goal", 1)
	assert.NotEqual(t, first, goal)

	// after the session ends a new create allocates a fresh id
	assert.NoError(t, e.EndSession(first, 1))
	third := e.CreateSession(42, "plan", 1)
	assert.NotEqual(t, first, third)
}

func TestJoinSession_UnknownSession(t *testing.T) {
	e := newTestEngine()

	err := e.JoinSession("nope", participant(1, "Dana"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinLeave_ParticipantLifecycle(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)

	assert.NoError(t, e.JoinSession(id, participant(1, "Dana")))
	assert.NoError(t, e.JoinSession(id, participant(2, "Lee")))

	participants, err := e.GetSessionParticipants(id)
	assert.NoError(t, err)
	assert.Len(t, participants, 2)

	e.LeaveSession(id, 1)

	participants, err = e.GetSessionParticipants(id)
	assert.NoError(t, err)
	assert.Len(t, participants, 1)
	assert.Equal(t, uint64(2), participants[0].UserID)

	// double leave is a no-op, as is leaving an unknown session
	e.LeaveSession(id, 1)
	e.LeaveSession("nope", 1)

	participants, err = e.GetSessionParticipants(id)
	assert.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestJoinSession_RejoinOverwrites(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)

	assert.NoError(t, e.JoinSession(id, participant(1, "Dana")))
	p := participant(1, "Dana")
	p.Role = "department_head"
	assert.NoError(t, e.JoinSession(id, p))

	participants, _ := e.GetSessionParticipants(id)
	assert.Len(t, participants, 1)
	assert.Equal(t, "department_head", participants[0].Role)
}

// TestUpdatePresence_PartialMerge verifies unspecified fields keep their
// current value
func TestUpdatePresence_PartialMerge(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)
	assert.NoError(t, e.JoinSession(id, participant(1, "Dana")))

	err := e.UpdatePresence(id, 1, PresenceUpdate{
		Activity: strPtr("editing"),
		Location: strPtr("/plans/42/goals"),
	})
	assert.NoError(t, err)

	// update only status; activity and location must survive
	err = e.UpdatePresence(id, 1, PresenceUpdate{Status: strPtr(StatusIdle)})
	assert.NoError(t, err)

	participants, _ := e.GetSessionParticipants(id)
	assert.Equal(t, StatusIdle, participants[0].Presence.Status)
	assert.Equal(t, "editing", participants[0].Presence.Activity)
	assert.Equal(t, "/plans/42/goals", participants[0].Presence.Location)
}

func TestUpdatePresence_NonMember(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)

	err := e.UpdatePresence(id, 99, PresenceUpdate{Status: strPtr(StatusActive)})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestEndSession_BlocksLaterCalls(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)
	assert.NoError(t, e.JoinSession(id, participant(1, "Dana")))

	assert.NoError(t, e.EndSession(id, 1))

	err := e.JoinSession(id, participant(2, "Lee"))
	assert.ErrorIs(t, err, ErrSessionEnded)

	err = e.UpdatePresence(id, 1, PresenceUpdate{Status: strPtr(StatusActive)})
	assert.ErrorIs(t, err, ErrSessionEnded)

	assert.ErrorIs(t, e.EndSession("nope", 1), ErrSessionNotFound)
}

// TestPresenceDecay verifies stale participants read as away without their
// stored presence being touched
func TestPresenceDecay(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)
	assert.NoError(t, e.JoinSession(id, participant(1, "Dana")))

	// move the clock past the idle threshold
	base := time.Now()
	e.now = func() time.Time { return base.Add(2 * time.Minute) }

	participants, _ := e.GetSessionParticipants(id)
	assert.Equal(t, StatusAway, participants[0].Presence.Status)

	// a heartbeat restores the real status
	assert.NoError(t, e.UpdatePresence(id, 1, PresenceUpdate{Status: strPtr(StatusActive)}))
	participants, _ = e.GetSessionParticipants(id)
	assert.Equal(t, StatusActive, participants[0].Presence.Status)
}

func TestEmit_NoListeners(t *testing.T) {
	e := newTestEngine()

	// must not panic and has no observable effect
	assert.NotPanics(t, func() {
		e.Emit("comment", map[string]any{"id": 1})
	})
}

func TestEmit_RegistrationOrderAndLateSubscribers(t *testing.T) {
	e := newTestEngine()

	var order []string
	e.Subscribe("comment", func(payload any) {
		order = append(order, "first")
	})
	e.Subscribe("comment", func(payload any) {
		order = append(order, "second")
	})

	e.Emit("comment", nil)
	assert.Equal(t, []string{"first", "second"}, order)

	// a listener registered after Emit never sees that event
	late := 0
	e.Subscribe("comment", func(payload any) { late++ })
	assert.Equal(t, 0, late)

	e.Emit("comment", nil)
	assert.Equal(t, 1, late)
}

func TestUnsubscribe(t *testing.T) {
	e := newTestEngine()

	calls := 0
	id := e.Subscribe("presence", func(payload any) { calls++ })

	e.Emit("presence", nil)
	e.Unsubscribe("presence", id)
	e.Emit("presence", nil)

	assert.Equal(t, 1, calls)

	// unknown handles are ignored
	e.Unsubscribe("presence", 999)
}

// TestConcurrentJoinLeave hammers one session from many goroutines; run
// with -race
func TestConcurrentJoinLeave(t *testing.T) {
	e := newTestEngine()
	id := e.CreateSession(42, "plan", 1)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			p := participant(userID, fmt.Sprintf("user-%d", userID))
			if err := e.JoinSession(id, p); err != nil {
				return
			}
			_ = e.UpdatePresence(id, userID, PresenceUpdate{Status: strPtr(StatusActive)})
			if userID%2 == 0 {
				e.LeaveSession(id, userID)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	participants, err := e.GetSessionParticipants(id)
	assert.NoError(t, err)
	assert.Len(t, participants, 16) // odd user ids stayed
}

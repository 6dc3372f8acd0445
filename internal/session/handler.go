package session

import (
	"net/http"

	"municipal-planning-collab/internal/engine"
	"municipal-planning-collab/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ActionRequest is the envelope for POST /collaboration/sessions. The
// action field selects the operation; the other fields are read as that
// action needs them.
type ActionRequest struct {
	Action       string                `json:"action" binding:"required,oneof=create join leave updatePresence broadcastEvent"`
	ResourceType string                `json:"resource_type"`
	ResourceID   uint64                `json:"resource_id"`
	SessionID    string                `json:"session_id"`
	Presence     engine.PresenceUpdate `json:"presence"`
	Event        string                `json:"event"`
	Payload      map[string]any        `json:"payload"`
}

func (h *Handler) Action(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uint64)

	switch req.Action {
	case "create":
		if req.ResourceType == "" || req.ResourceID == 0 {
			c.Error(errors.BadRequest("resource_type and resource_id are required", nil))
			return
		}
		session, err := h.service.Create(c.Request.Context(), uid, req.ResourceType, req.ResourceID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, session)

	case "join":
		if req.SessionID == "" {
			c.Error(errors.BadRequest("session_id is required", nil))
			return
		}
		if err := h.service.Join(c.Request.Context(), req.SessionID, uid); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "leave":
		if req.SessionID == "" {
			c.Error(errors.BadRequest("session_id is required", nil))
			return
		}
		if err := h.service.Leave(c.Request.Context(), req.SessionID, uid); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "updatePresence":
		if req.SessionID == "" {
			c.Error(errors.BadRequest("session_id is required", nil))
			return
		}
		if err := h.service.UpdatePresence(c.Request.Context(), req.SessionID, uid, req.Presence); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "broadcastEvent":
		if req.SessionID == "" || req.Event == "" {
			c.Error(errors.BadRequest("session_id and event are required", nil))
			return
		}
		if err := h.service.Broadcast(c.Request.Context(), req.SessionID, uid, req.Event, req.Payload); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) Participants(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.Error(errors.BadRequest("sessionId is required", nil))
		return
	}

	userID, _ := c.Get("user_id")

	participants, err := h.service.Participants(c.Request.Context(), sessionID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *Handler) End(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.Error(errors.BadRequest("sessionId is required", nil))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.End(c.Request.Context(), sessionID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

package activity

import (
	"net/http"
	"strconv"
	"time"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Feed(c *gin.Context) {
	filter := FeedFilter{
		SessionID:    c.Query("sessionId"),
		ResourceType: c.Query("resourceType"),
	}
	if v := c.Query("resourceId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.Error(errors.BadRequest("Invalid resourceId", err))
			return
		}
		filter.ResourceID = id
	}
	if v := c.Query("userId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.Error(errors.BadRequest("Invalid userId", err))
			return
		}
		filter.ActorID = id
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.Error(errors.BadRequest("Invalid limit", err))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.service.GetActivityFeed(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

type CreateActivityRequest struct {
	SessionID    string         `json:"session_id"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *uint64        `json:"resource_id"`
	Action       string         `json:"action" binding:"required"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	entry := &domain.Activity{
		SessionID:    req.SessionID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		ActorID:      userID.(uint64),
		Action:       req.Action,
		Description:  req.Description,
		Metadata:     req.Metadata,
	}

	if err := h.service.RecordActivity(c.Request.Context(), entry); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Analytics handles PUT /collaboration/activity: action counts over a
// trailing window (days query param, default 7)
func (h *Handler) Analytics(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.Error(errors.BadRequest("Invalid days", err))
			return
		}
		days = parsed
	}

	counts, err := h.service.GetAnalytics(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"window_days": days, "data": counts})
}

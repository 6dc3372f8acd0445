package notification

import (
	"net/http"
	"strconv"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"
	"municipal-planning-collab/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateNotificationRequest struct {
	UserID       uint64                     `json:"user_id" binding:"required"`
	Type         string                     `json:"type" binding:"required,oneof=mention assignment status_change deadline system"`
	Title        string                     `json:"title"`
	Message      string                     `json:"message" binding:"required"`
	ResourceType string                     `json:"resource_type"`
	ResourceID   *uint64                    `json:"resource_id"`
	Priority     string                     `json:"priority" binding:"omitempty,oneof=low normal high"`
	Actors       []domain.NotificationActor `json:"actors"`
}

// CreateInternal handles POST /internal/notifications. Other services on
// the platform (assignments, deadlines, approvals) deliver through here.
func (h *Handler) CreateInternal(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	notification := &domain.Notification{
		UserID:       req.UserID,
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Priority:     req.Priority,
		Actors:       req.Actors,
	}
	if err := h.service.CreateNotification(c.Request.Context(), notification); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, notification)
}

func (h *Handler) List(c *gin.Context) {
	userID, _ := c.Get("user_id")
	unreadOnly := c.Query("unread") == "true"

	page, pageSize := utils.GetPaginationParams(c)
	notifications, total, err := h.service.GetUserNotifications(
		c.Request.Context(),
		userID.(uint64),
		unreadOnly,
		page,
		pageSize,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications, "total": total})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID, _ := c.Get("user_id")

	count, err := h.service.GetUnreadCount(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead handles PATCH /collaboration/notifications/:id. The id "bulk"
// marks everything read.
func (h *Handler) MarkRead(c *gin.Context) {
	userID, _ := c.Get("user_id")

	idParam := c.Param("id")
	if idParam == "bulk" {
		if err := h.service.MarkAllAsRead(c.Request.Context(), userID.(uint64)); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	notificationID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid notification id", err))
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), notificationID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /collaboration/notifications/:id. The id "bulk"
// removes every already-read notification.
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := c.Get("user_id")

	idParam := c.Param("id")
	if idParam == "bulk" {
		if err := h.service.DeleteRead(c.Request.Context(), userID.(uint64)); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	notificationID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid notification id", err))
		return
	}

	if err := h.service.DeleteNotification(c.Request.Context(), notificationID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

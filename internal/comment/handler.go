package comment

import (
	"net/http"
	"strconv"

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

type CreateCommentRequest struct {
	ResourceType string   `json:"resource_type" binding:"required,oneof=plan goal"`
	ResourceID   uint64   `json:"resource_id" binding:"required"`
	ParentID     *uint64  `json:"parent_id"`
	Content      string   `json:"content" binding:"required,min=1,max=4000"`
	Mentions     []uint64 `json:"mentions"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	comment, err := h.service.CreateComment(c.Request.Context(), userID.(uint64), CreateCommentInput{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		ParentID:     req.ParentID,
		Content:      req.Content,
		Mentions:     req.Mentions,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) List(c *gin.Context) {
	resourceType := c.Query("resourceType")
	resourceID, err := strconv.ParseUint(c.Query("resourceId"), 10, 64)
	if err != nil || resourceType == "" {
		c.Error(errors.BadRequest("resourceType and resourceId are required", err))
		return
	}

	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	comments, meta, err := h.service.GetComments(
		c.Request.Context(),
		userID.(uint64),
		resourceType,
		resourceID,
		page,
		pageSize,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": comments, "meta": meta})
}

type UpdateCommentRequest struct {
	Content  string   `json:"content" binding:"required,min=1,max=4000"`
	Mentions []uint64 `json:"mentions"`
}

func (h *Handler) Update(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid comment id", err))
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	comment, err := h.service.UpdateComment(
		c.Request.Context(),
		commentID,
		userID.(uint64),
		req.Content,
		req.Mentions,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *Handler) Delete(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid comment id", err))
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteComment(c.Request.Context(), commentID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

package plan

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

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Get("user")
	return u.(*domain.User)
}

type CreatePlanRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=4000"`
	FiscalYear  int    `json:"fiscal_year" binding:"required,min=2000,max=2100"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	plan := &domain.Plan{
		Title:       req.Title,
		Description: req.Description,
		FiscalYear:  req.FiscalYear,
	}

	if err := h.service.CreatePlan(c.Request.Context(), currentUser(c), plan); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *Handler) List(c *gin.Context) {
	user := currentUser(c)

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetDepartmentPlans(c.Request.Context(), user.DepartmentID, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Show(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	userID, _ := c.Get("user_id")

	plan, err := h.service.GetPlan(c.Request.Context(), planID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft in_review approved archived"`
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.ChangeStatus(c.Request.Context(), planID, currentUser(c), req.Status); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type CreateGoalRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=4000"`
}

func (h *Handler) CreateGoal(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	goal := &domain.Goal{
		Title:       req.Title,
		Description: req.Description,
	}

	if err := h.service.CreateGoal(c.Request.Context(), planID, currentUser(c), goal); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *Handler) ListGoals(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	userID, _ := c.Get("user_id")

	goals, err := h.service.ListGoals(c.Request.Context(), planID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, goals)
}

type AddCollaboratorRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=editor viewer"`
}

func (h *Handler) AddCollaborator(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.AddCollaborator(c.Request.Context(), planID, currentUser(c), req.UserID, req.Role); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) RemoveCollaborator(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	targetUserID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid user id", err))
		return
	}

	if err := h.service.RemoveCollaborator(c.Request.Context(), planID, currentUser(c), targetUserID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCollaborators(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid plan id", err))
		return
	}

	userID, _ := c.Get("user_id")

	result, err := h.service.ListCollaborators(c.Request.Context(), planID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

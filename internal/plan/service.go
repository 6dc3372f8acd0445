package plan

import (
	"context"
	defError "errors"
	"fmt"
	"time"

	"municipal-planning-collab/internal/access"
	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"
	"municipal-planning-collab/redis"

	"gorm.io/gorm"
)

type Service interface {
	CreatePlan(ctx context.Context, creator *domain.User, plan *domain.Plan) error
	GetPlan(ctx context.Context, planID uint64, userID uint64) (*domain.Plan, error)
	GetDepartmentPlans(ctx context.Context, departmentID uint64, page, pageSize int) (*PaginatedPlans, error)
	ChangeStatus(ctx context.Context, planID uint64, user *domain.User, status string) error
	CreateGoal(ctx context.Context, planID uint64, user *domain.User, goal *domain.Goal) error
	ListGoals(ctx context.Context, planID uint64, userID uint64) ([]domain.Goal, error)
	AddCollaborator(ctx context.Context, planID uint64, requester *domain.User, targetUserID uint64, role string) error
	RemoveCollaborator(ctx context.Context, planID uint64, requester *domain.User, targetUserID uint64) error
	ListCollaborators(ctx context.Context, planID uint64, userID uint64) ([]CollaboratorDTO, error)
}

// UserProvider checks target users exist before inviting them
type UserProvider interface {
	GetUserByID(id uint64) (*domain.User, error)
}

type DefaultService struct {
	repository PlanRepository
	guard      access.Guard
	users      UserProvider
	cache      *redis.Cache
}

func NewService(repository PlanRepository, guard access.Guard, users UserProvider, cache *redis.Cache) Service {
	return &DefaultService{
		repository: repository,
		guard:      guard,
		users:      users,
		cache:      cache,
	}
}

type PaginatedPlans struct {
	Data []domain.Plan `json:"data"`
	Meta PlansMeta     `json:"meta"`
}

func deptPlansVersionKey(departmentID uint64) string {
	return fmt.Sprintf("dept:%d:plans:version", departmentID)
}

func (s *DefaultService) CreatePlan(ctx context.Context, creator *domain.User, plan *domain.Plan) error {
	plan.MunicipalityID = creator.MunicipalityID
	plan.DepartmentID = creator.DepartmentID
	plan.CreatedByID = creator.ID

	if err := s.repository.Create(ctx, plan); err != nil {
		return err
	}
	// bump the version so the next list fetch misses the old cache
	s.cache.IncrementVersion(ctx, deptPlansVersionKey(plan.DepartmentID))
	return nil
}

func (s *DefaultService) GetPlan(ctx context.Context, planID uint64, userID uint64) (*domain.Plan, error) {
	if !s.guard.HasAccess(ctx, userID, domain.ResourcePlan, planID) {
		return nil, errors.Forbidden("You don't have access to this plan", nil)
	}

	plan, err := s.repository.FindByID(ctx, planID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Plan not found", err)
		}
		return nil, err
	}
	return plan, nil
}

func (s *DefaultService) GetDepartmentPlans(ctx context.Context, departmentID uint64, page, pageSize int) (*PaginatedPlans, error) {
	v := s.cache.GetVersion(ctx, deptPlansVersionKey(departmentID))
	cacheKey := fmt.Sprintf("plans:d:%d:v:%d:p:%d:ps:%d", departmentID, v, page, pageSize)

	var result PaginatedPlans
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	plans, meta, err := s.repository.ListByDepartment(ctx, departmentID, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedPlans{Data: plans, Meta: meta}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

var validStatuses = map[string]bool{
	"draft":     true,
	"in_review": true,
	"approved":  true,
	"archived":  true,
}

func (s *DefaultService) ChangeStatus(ctx context.Context, planID uint64, user *domain.User, status string) error {
	if !validStatuses[status] {
		return errors.BadRequest("Unknown status", nil)
	}

	plan, err := s.GetPlan(ctx, planID, user.ID)
	if err != nil {
		return err
	}

	// approval needs an elevated role; other transitions just need access
	if status == "approved" && !domain.IsElevatedRole(user.Role) {
		return errors.Forbidden("Only an elevated role can approve a plan", nil)
	}

	if err := s.repository.UpdateStatus(ctx, planID, status); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, deptPlansVersionKey(plan.DepartmentID))
	return nil
}

func (s *DefaultService) CreateGoal(ctx context.Context, planID uint64, user *domain.User, goal *domain.Goal) error {
	if !s.guard.HasAccess(ctx, user.ID, domain.ResourcePlan, planID) {
		return errors.Forbidden("You don't have access to this plan", nil)
	}

	goal.PlanID = planID
	goal.CreatedByID = user.ID
	return s.repository.CreateGoal(ctx, goal)
}

func (s *DefaultService) ListGoals(ctx context.Context, planID uint64, userID uint64) ([]domain.Goal, error) {
	if !s.guard.HasAccess(ctx, userID, domain.ResourcePlan, planID) {
		return nil, errors.Forbidden("You don't have access to this plan", nil)
	}
	return s.repository.ListGoals(ctx, planID)
}

type CollaboratorDTO struct {
	UserID    uint64 `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

func (s *DefaultService) AddCollaborator(ctx context.Context, planID uint64, requester *domain.User, targetUserID uint64, role string) error {
	if !s.guard.HasAccess(ctx, requester.ID, domain.ResourcePlan, planID) {
		return errors.Forbidden("You don't have access to this plan", nil)
	}

	// Prevent self-add
	if requester.ID == targetUserID {
		return errors.UnprocessableEntity("Can't add yourself!", nil)
	}

	// Ensure target user exists and shares the tenant
	target, err := s.users.GetUserByID(targetUserID)
	if err != nil {
		return errors.UnprocessableEntity("Can't find user!", err)
	}
	if target.MunicipalityID != requester.MunicipalityID {
		return errors.UnprocessableEntity("User belongs to another municipality", nil)
	}

	if err := s.repository.AddCollaborator(ctx, planID, targetUserID, role); err != nil {
		if defError.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("User already added!", err)
		}
		return err
	}
	return nil
}

func (s *DefaultService) RemoveCollaborator(ctx context.Context, planID uint64, requester *domain.User, targetUserID uint64) error {
	if !s.guard.HasAccess(ctx, requester.ID, domain.ResourcePlan, planID) {
		return errors.Forbidden("You don't have access to this plan", nil)
	}
	return s.repository.RemoveCollaborator(ctx, planID, targetUserID)
}

func (s *DefaultService) ListCollaborators(ctx context.Context, planID uint64, userID uint64) ([]CollaboratorDTO, error) {
	if !s.guard.HasAccess(ctx, userID, domain.ResourcePlan, planID) {
		return nil, errors.Forbidden("You don't have access to this plan", nil)
	}

	rows, err := s.repository.ListCollaborators(ctx, planID)
	if err != nil {
		return nil, err
	}

	result := make([]CollaboratorDTO, 0, len(rows))
	for _, r := range rows {
		result = append(result, CollaboratorDTO{
			UserID:    r.UserID,
			Name:      r.Name,
			Email:     r.Email,
			AvatarURL: r.AvatarURL,
			Role:      r.Role,
		})
	}
	return result, nil
}

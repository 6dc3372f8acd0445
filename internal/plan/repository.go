package plan

import (
	"context"
	"time"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

type PlansMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	FindByID(ctx context.Context, id uint64) (*domain.Plan, error)
	ListByDepartment(ctx context.Context, departmentID uint64, page, pageSize int) ([]domain.Plan, PlansMeta, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	Delete(ctx context.Context, id uint64) error
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	ListGoals(ctx context.Context, planID uint64) ([]domain.Goal, error)
	AddCollaborator(ctx context.Context, planID, userID uint64, role string) error
	RemoveCollaborator(ctx context.Context, planID, userID uint64) error
	ListCollaborators(ctx context.Context, planID uint64) ([]CollaboratorRow, error)
}

// CollaboratorRow joins the collaborator record with user display fields
type CollaboratorRow struct {
	UserID    uint64
	Name      string
	Email     string
	AvatarURL string
	Role      string
}

type PlanRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *domain.Plan) error {
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) ListByDepartment(ctx context.Context, departmentID uint64, page, pageSize int) ([]domain.Plan, PlansMeta, error) {
	var plans []domain.Plan
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&domain.Plan{}).Where("department_id = ?", departmentID).Count(&totalRecords).Error; err != nil {
		return plans, PlansMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Where("department_id = ?", departmentID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&plans).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return plans, PlansMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *PlanRepositoryImpl) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return r.db.WithContext(ctx).Model(&domain.Plan{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *PlanRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Plan{}, id).Error
}

func (r *PlanRepositoryImpl) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *PlanRepositoryImpl) ListGoals(ctx context.Context, planID uint64) ([]domain.Goal, error) {
	var goals []domain.Goal
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&goals).Error
	return goals, err
}

func (r *PlanRepositoryImpl) AddCollaborator(ctx context.Context, planID, userID uint64, role string) error {
	return r.db.WithContext(ctx).Create(&domain.PlanCollaborator{
		PlanID:  planID,
		UserID:  userID,
		Role:    role,
		AddedAt: time.Now().UTC(),
	}).Error
}

func (r *PlanRepositoryImpl) RemoveCollaborator(ctx context.Context, planID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Delete(&domain.PlanCollaborator{}).Error
}

func (r *PlanRepositoryImpl) ListCollaborators(ctx context.Context, planID uint64) ([]CollaboratorRow, error) {
	var rows []CollaboratorRow
	err := r.db.WithContext(ctx).
		Table("plan_collaborators").
		Select("plan_collaborators.user_id, users.name, users.email, users.avatar_url, plan_collaborators.role").
		Joins("JOIN users ON users.id = plan_collaborators.user_id").
		Where("plan_collaborators.plan_id = ?", planID).
		Scan(&rows).Error
	return rows, err
}

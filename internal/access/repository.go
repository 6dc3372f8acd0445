package access

import (
	"context"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

// Ownership identifies who owns a resource: the tenant, the department, and
// the plan the resource hangs off
type Ownership struct {
	PlanID         uint64
	MunicipalityID uint64
	DepartmentID   uint64
}

// Repository holds the lookups the guard needs. Every miss is an error;
// the guard turns any error into a denial.
type Repository interface {
	FindUser(ctx context.Context, userID uint64) (*domain.User, error)
	ResolvePlanOwnership(ctx context.Context, planID uint64) (*Ownership, error)
	ResolveGoalOwnership(ctx context.Context, goalID uint64) (*Ownership, error)
	IsPlanCollaborator(ctx context.Context, planID uint64, userID uint64) (bool, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) FindUser(ctx context.Context, userID uint64) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RepositoryImpl) ResolvePlanOwnership(ctx context.Context, planID uint64) (*Ownership, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).First(&plan, planID).Error
	if err != nil {
		return nil, err
	}
	return &Ownership{
		PlanID:         plan.ID,
		MunicipalityID: plan.MunicipalityID,
		DepartmentID:   plan.DepartmentID,
	}, nil
}

func (r *RepositoryImpl) ResolveGoalOwnership(ctx context.Context, goalID uint64) (*Ownership, error) {
	var goal domain.Goal
	err := r.db.WithContext(ctx).First(&goal, goalID).Error
	if err != nil {
		return nil, err
	}
	return r.ResolvePlanOwnership(ctx, goal.PlanID)
}

func (r *RepositoryImpl) IsPlanCollaborator(ctx context.Context, planID uint64, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PlanCollaborator{}).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

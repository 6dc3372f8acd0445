package access

import (
	"context"
	"errors"
	"testing"

	"municipal-planning-collab/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindUser(ctx context.Context, userID uint64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) ResolvePlanOwnership(ctx context.Context, planID uint64) (*Ownership, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ownership), args.Error(1)
}

func (m *MockRepository) ResolveGoalOwnership(ctx context.Context, goalID uint64) (*Ownership, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ownership), args.Error(1)
}

func (m *MockRepository) IsPlanCollaborator(ctx context.Context, planID uint64, userID uint64) (bool, error) {
	args := m.Called(ctx, planID, userID)
	return args.Bool(0), args.Error(1)
}

func staffUser(id, municipalityID, departmentID uint64) *domain.User {
	return &domain.User{
		ID:             id,
		Role:           domain.RoleStaff,
		MunicipalityID: municipalityID,
		DepartmentID:   departmentID,
		IsActive:       true,
	}
}

// TestHasAccess_TenantIsolationBeatsElevatedRole: an admin of municipality X
// requesting a plan owned by municipality Y is denied
func TestHasAccess_TenantIsolationBeatsElevatedRole(t *testing.T) {
	repo := new(MockRepository)
	guard := NewGuard(repo)

	admin := staffUser(1, 10, 100)
	admin.Role = domain.RoleAdmin

	repo.On("FindUser", mock.Anything, uint64(1)).Return(admin, nil)
	repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).
		Return(&Ownership{PlanID: 5, MunicipalityID: 20, DepartmentID: 200}, nil)

	assert.False(t, guard.HasAccess(context.Background(), 1, "plan", 5))
	repo.AssertExpectations(t)
}

// TestHasAccess_DepartmentScenarios: staff in D1 is denied a D2 plan in the
// same municipality and allowed a D1 plan
func TestHasAccess_DepartmentScenarios(t *testing.T) {
	repo := new(MockRepository)
	guard := NewGuard(repo)

	repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)
	repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).
		Return(&Ownership{PlanID: 5, MunicipalityID: 10, DepartmentID: 200}, nil)
	repo.On("ResolvePlanOwnership", mock.Anything, uint64(6)).
		Return(&Ownership{PlanID: 6, MunicipalityID: 10, DepartmentID: 100}, nil)
	repo.On("IsPlanCollaborator", mock.Anything, uint64(5), uint64(1)).Return(false, nil)

	assert.False(t, guard.HasAccess(context.Background(), 1, "plan", 5))
	assert.True(t, guard.HasAccess(context.Background(), 1, "plan", 6))
}

func TestHasAccess_ElevatedRoleCrossesDepartments(t *testing.T) {
	repo := new(MockRepository)
	guard := NewGuard(repo)

	manager := staffUser(1, 10, 100)
	manager.Role = domain.RoleCityManager

	repo.On("FindUser", mock.Anything, uint64(1)).Return(manager, nil)
	repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).
		Return(&Ownership{PlanID: 5, MunicipalityID: 10, DepartmentID: 200}, nil)

	assert.True(t, guard.HasAccess(context.Background(), 1, "plan", 5))
	repo.AssertNotCalled(t, "IsPlanCollaborator", mock.Anything, mock.Anything, mock.Anything)
}

func TestHasAccess_InvitedCollaborator(t *testing.T) {
	repo := new(MockRepository)
	guard := NewGuard(repo)

	repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)
	repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).
		Return(&Ownership{PlanID: 5, MunicipalityID: 10, DepartmentID: 200}, nil)
	repo.On("IsPlanCollaborator", mock.Anything, uint64(5), uint64(1)).Return(true, nil)

	assert.True(t, guard.HasAccess(context.Background(), 1, "plan", 5))
}

func TestHasAccess_GoalResolvesThroughPlan(t *testing.T) {
	repo := new(MockRepository)
	guard := NewGuard(repo)

	repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)
	repo.On("ResolveGoalOwnership", mock.Anything, uint64(7)).
		Return(&Ownership{PlanID: 5, MunicipalityID: 10, DepartmentID: 100}, nil)

	assert.True(t, guard.HasAccess(context.Background(), 1, "goal", 7))
}

// Every lookup miss resolves to denied, never to an error
func TestHasAccess_FailClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockRepository)
		guard := NewGuard(repo)
		repo.On("FindUser", mock.Anything, uint64(1)).Return(nil, gorm.ErrRecordNotFound)

		assert.False(t, guard.HasAccess(ctx, 1, "plan", 5))
	})

	t.Run("unknown resource", func(t *testing.T) {
		repo := new(MockRepository)
		guard := NewGuard(repo)
		repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)
		repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).Return(nil, gorm.ErrRecordNotFound)

		assert.False(t, guard.HasAccess(ctx, 1, "plan", 5))
	})

	t.Run("unknown resource type", func(t *testing.T) {
		repo := new(MockRepository)
		guard := NewGuard(repo)
		repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)

		assert.False(t, guard.HasAccess(ctx, 1, "spreadsheet", 5))
	})

	t.Run("storage failure on collaborator lookup", func(t *testing.T) {
		repo := new(MockRepository)
		guard := NewGuard(repo)
		repo.On("FindUser", mock.Anything, uint64(1)).Return(staffUser(1, 10, 100), nil)
		repo.On("ResolvePlanOwnership", mock.Anything, uint64(5)).
			Return(&Ownership{PlanID: 5, MunicipalityID: 10, DepartmentID: 200}, nil)
		repo.On("IsPlanCollaborator", mock.Anything, uint64(5), uint64(1)).
			Return(false, errors.New("connection reset"))

		assert.False(t, guard.HasAccess(ctx, 1, "plan", 5))
	})

	t.Run("inactive user", func(t *testing.T) {
		repo := new(MockRepository)
		guard := NewGuard(repo)
		inactive := staffUser(1, 10, 100)
		inactive.IsActive = false
		repo.On("FindUser", mock.Anything, uint64(1)).Return(inactive, nil)

		assert.False(t, guard.HasAccess(ctx, 1, "plan", 5))
	})
}

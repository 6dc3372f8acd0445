package access

import (
	"context"

	"municipal-planning-collab/internal/domain"
)

// Guard answers whether a user may view or act on a resource
type Guard interface {
	HasAccess(ctx context.Context, userID uint64, resourceType string, resourceID uint64) bool
}

// DefaultGuard grants access when the caller and the resource share a
// municipality AND the caller either holds an elevated role, belongs to the
// owning department, or is an invited collaborator on the owning plan.
//
// Fail-closed: every lookup miss resolves to denied. The guard never
// returns an error and has no side effects.
type DefaultGuard struct {
	repository Repository
}

func NewGuard(repository Repository) Guard {
	return &DefaultGuard{repository: repository}
}

func (g *DefaultGuard) HasAccess(ctx context.Context, userID uint64, resourceType string, resourceID uint64) bool {
	user, err := g.repository.FindUser(ctx, userID)
	if err != nil || !user.IsActive {
		return false
	}

	ownership, err := g.resolveOwnership(ctx, resourceType, resourceID)
	if err != nil || ownership == nil {
		return false
	}

	// Tenant isolation comes first: an elevated role never crosses
	// municipalities.
	if user.MunicipalityID != ownership.MunicipalityID {
		return false
	}

	if domain.IsElevatedRole(user.Role) {
		return true
	}

	if user.DepartmentID == ownership.DepartmentID {
		return true
	}

	isCollaborator, err := g.repository.IsPlanCollaborator(ctx, ownership.PlanID, userID)
	if err != nil {
		return false
	}
	return isCollaborator
}

func (g *DefaultGuard) resolveOwnership(ctx context.Context, resourceType string, resourceID uint64) (*Ownership, error) {
	switch resourceType {
	case domain.ResourcePlan:
		return g.repository.ResolvePlanOwnership(ctx, resourceID)
	case domain.ResourceGoal:
		return g.repository.ResolveGoalOwnership(ctx, resourceID)
	default:
		// Unknown resource types are denied rather than guessed at
		return nil, nil
	}
}

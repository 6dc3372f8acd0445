package domain

import (
	"time"
)

// Resource types a collaboration session or comment can attach to
const (
	ResourcePlan = "plan"
	ResourceGoal = "goal"
)

// Plan is a department-level strategic plan, the root resource of the system
type Plan struct {
	ID             uint64
	Title          string
	Description    string
	Status         string `gorm:"default:draft"` // draft, in_review, approved, archived
	FiscalYear     int
	MunicipalityID uint64 `gorm:"index"`
	DepartmentID   uint64 `gorm:"index"`
	CreatedByID    uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Goal belongs to a plan; access resolves through the owning plan
type Goal struct {
	ID          uint64
	PlanID      uint64 `gorm:"index"`
	Plan        Plan
	Title       string
	Description string
	Status      string `gorm:"default:open"`
	CreatedByID uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlanCollaborator records a user explicitly invited onto a plan, which
// grants access regardless of department
type PlanCollaborator struct {
	ID      uint64
	PlanID  uint64 `gorm:"index:idx_plan_user,unique"`
	UserID  uint64 `gorm:"index:idx_plan_user,unique"`
	Role    string `gorm:"default:editor"` // editor, viewer
	AddedAt time.Time
}

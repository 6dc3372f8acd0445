package domain

import (
	"time"
)

// Roles carried by municipal staff accounts. Elevated roles bypass the
// department check inside their own municipality, never across tenants.
const (
	RoleStaff          = "staff"
	RoleDepartmentHead = "department_head"
	RoleAdmin          = "admin"
	RoleCityManager    = "city_manager"
	RoleFinance        = "finance"
)

// IsElevatedRole reports whether a role may act across departments
func IsElevatedRole(role string) bool {
	return role == RoleAdmin || role == RoleCityManager || role == RoleFinance
}

type Municipality struct {
	ID        uint64
	Name      string `gorm:"uniqueIndex"`
	State     string
	CreatedAt time.Time
}

type Department struct {
	ID             uint64
	MunicipalityID uint64 `gorm:"index"`
	Municipality   Municipality
	Name           string
	CreatedAt      time.Time
}

// User represents a municipal staff account
type User struct {
	ID             uint64
	Name           string
	Email          string `gorm:"uniqueIndex"`
	Password       string `gorm:"-"` // input only, not stored in db
	PasswordHash   string
	Role           string `gorm:"default:staff"`
	MunicipalityID uint64 `gorm:"index"`
	DepartmentID   uint64 `gorm:"index"`
	AvatarURL      string
	TokenVersion   uint64 `gorm:"default:0"`
	IsActive       bool   `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SafeUser represents a user without sensitive information
type SafeUser struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	MunicipalityID uint64    `json:"municipality_id"`
	DepartmentID   uint64    `json:"department_id"`
	AvatarURL      string    `json:"avatar_url"`
	CreatedAt      time.Time `json:"created_at"`
	IsActive       bool      `json:"is_active"`
}

// ToSafeUser converts a User to a SafeUser
func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		MunicipalityID: u.MunicipalityID,
		DepartmentID:   u.DepartmentID,
		AvatarURL:      u.AvatarURL,
		CreatedAt:      u.CreatedAt,
		IsActive:       u.IsActive,
	}
}

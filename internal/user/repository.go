package user

import (
	"context"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *domain.User) error
	FindByEmail(email string) (*domain.User, error)
	FindByID(id uint64) (*domain.User, error)
	Deactivate(id uint64) error
	IncreaseTokenVersion(id uint64) error
	Search(ctx context.Context, municipalityID uint64, query string) ([]domain.User, error)
}

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

// FindByEmail finds a user by email
func (r *UserRepositoryImpl) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, err
}

// FindByID finds a user by ID
func (r *UserRepositoryImpl) FindByID(id uint64) (*domain.User, error) {
	var user domain.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Deactivate deactivates a user
func (r *UserRepositoryImpl) Deactivate(id uint64) error {
	user, err := r.FindByID(id)
	if err != nil {
		return err
	}

	user.IsActive = false
	return r.db.Save(user).Error
}

// IncreaseTokenVersion invalidates every token issued so far
func (r *UserRepositoryImpl) IncreaseTokenVersion(id uint64) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

// Search finds active users within one municipality by name or email prefix
func (r *UserRepositoryImpl) Search(ctx context.Context, municipalityID uint64, query string) ([]domain.User, error) {
	var users []domain.User
	pattern := query + "%"
	err := r.db.WithContext(ctx).
		Where("municipality_id = ? AND is_active = true", municipalityID).
		Where("name ILIKE ? OR email ILIKE ?", pattern, pattern).
		Limit(20).
		Find(&users).Error
	return users, err
}

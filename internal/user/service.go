package user

import (
	"context"

	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(user *domain.User) error
	Login(email, password string) (*domain.User, error)
	GetUserByID(id uint64) (*domain.User, error)
	DeactivateUser(id uint64) error
	IncreaseTokenVersion(id uint64) error
	SearchUsers(ctx context.Context, municipalityID uint64, query string) ([]domain.SafeUser, error)
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(user *domain.User) error {
	// Check if user with email already exists
	_, err := s.repository.FindByEmail(user.Email)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	if user.Role == "" {
		user.Role = domain.RoleStaff
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true

	// Create user
	return s.repository.Create(user)
}

// Login authenticates a user
func (s *DefaultService) Login(email, password string) (*domain.User, error) {
	// Find user by email
	user, err := s.repository.FindByEmail(email)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	// Check if user is active
	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	// Check password
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errors.UnprocessableEntity("Wrong password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(id uint64) (*domain.User, error) {
	return s.repository.FindByID(id)
}

// DeactivateUser deactivates a user
func (s *DefaultService) DeactivateUser(id uint64) error {
	return s.repository.Deactivate(id)
}

// IncreaseTokenVersion invalidates all outstanding tokens for a user
func (s *DefaultService) IncreaseTokenVersion(id uint64) error {
	return s.repository.IncreaseTokenVersion(id)
}

// SearchUsers searches active users inside the caller's municipality
func (s *DefaultService) SearchUsers(ctx context.Context, municipalityID uint64, query string) ([]domain.SafeUser, error) {
	if len(query) < 2 {
		return []domain.SafeUser{}, nil
	}

	users, err := s.repository.Search(ctx, municipalityID, query)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SafeUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToSafeUser())
	}
	return result, nil
}

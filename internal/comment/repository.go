package comment

import (
	"context"
	"time"

	"municipal-planning-collab/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uint64) (*domain.Comment, error)
	ListByResource(ctx context.Context, resourceType string, resourceID uint64, page, pageSize int) ([]domain.Comment, ListMeta, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id uint64) error
}

type ListMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByResource returns top-level comments and replies together, oldest
// first; the client groups replies under their parent
func (r *RepositoryImpl) ListByResource(ctx context.Context, resourceType string, resourceID uint64, page, pageSize int) ([]domain.Comment, ListMeta, error) {
	var comments []domain.Comment
	var totalRecords int64

	query := r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID)

	if err := query.Count(&totalRecords).Error; err != nil {
		return comments, ListMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&comments).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return comments, ListMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *RepositoryImpl) Update(ctx context.Context, comment *domain.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Comment{}, id).Error
}

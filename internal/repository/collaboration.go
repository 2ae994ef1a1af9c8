package repository

import (
	"context"
	"errors"

	"underground/internal/models"

	"gorm.io/gorm"
)

// CollaborationFilter narrows collaboration listings.
type CollaborationFilter struct {
	Genre  string
	Status string
}

// CollaborationRepository defines the interface for collaboration post data operations
type CollaborationRepository interface {
	Create(ctx context.Context, collab *models.Collaboration) error
	GetByID(ctx context.Context, id uint) (*models.Collaboration, error)
	List(ctx context.Context, filter CollaborationFilter, limit, offset int) ([]*models.Collaboration, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type collaborationRepository struct {
	db *gorm.DB
}

// NewCollaborationRepository creates a new collaboration repository
func NewCollaborationRepository(db *gorm.DB) CollaborationRepository {
	return &collaborationRepository{db: db}
}

func (r *collaborationRepository) Create(ctx context.Context, collab *models.Collaboration) error {
	if err := r.db.WithContext(ctx).Create(collab).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("User").First(collab, collab.ID).Error
}

func (r *collaborationRepository) GetByID(ctx context.Context, id uint) (*models.Collaboration, error) {
	var collab models.Collaboration
	if err := r.db.WithContext(ctx).Preload("User").First(&collab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Collaboration", id)
		}
		return nil, err
	}
	return &collab, nil
}

func (r *collaborationRepository) List(ctx context.Context, filter CollaborationFilter, limit, offset int) ([]*models.Collaboration, error) {
	var collabs []*models.Collaboration
	q := r.db.WithContext(ctx).Preload("User")
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&collabs).Error
	return collabs, err
}

func (r *collaborationRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Collaboration{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *collaborationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Collaboration{}, id).Error
}

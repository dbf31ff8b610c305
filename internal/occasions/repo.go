package occasions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/internal/repo"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
)

// Repository encapsulates occasion persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs an occasion repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, occasion *models.Occasion) error {
	if occasion == nil {
		return gorm.ErrInvalidValue
	}
	if occasion.ID == uuid.Nil {
		occasion.ID = uuid.New()
	}
	return r.DB(ctx).Create(occasion).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Occasion, error) {
	var record models.Occasion
	if err := r.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.Occasion, error) {
	var records []models.Occasion
	err := r.DB(ctx).
		Where("recipient_id = ?", recipientID).
		Order("date ASC").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Occasion{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Occasion{}).Error
}

package recipients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/internal/repo"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
)

// Repository encapsulates recipient persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a recipient repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, recipient *models.Recipient) error {
	if recipient == nil {
		return gorm.ErrInvalidValue
	}
	if recipient.ID == uuid.Nil {
		recipient.ID = uuid.New()
	}
	return r.DB(ctx).Create(recipient).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipient, error) {
	var record models.Recipient
	if err := r.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Recipient, error) {
	var records []models.Recipient
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Recipient{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Recipient{}).Error
}

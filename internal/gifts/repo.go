package gifts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/internal/repo"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
)

// Repository encapsulates gift persistence against the authoritative store.
type Repository struct {
	repo.Base
}

// NewRepository constructs a gift repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a gift record, assigning the server-side ID when the caller
// did not supply one.
func (r *Repository) Create(ctx context.Context, gift *models.Gift) error {
	if gift == nil {
		return gorm.ErrInvalidValue
	}
	if gift.ID == uuid.Nil {
		gift.ID = uuid.New()
	}
	if strings.TrimSpace(gift.Name) == "" {
		return gorm.ErrInvalidValue
	}
	if !gift.Status.IsValid() {
		gift.Status = enums.GiftStatusIdea
	}
	return r.DB(ctx).Create(gift).Error
}

// QueryByRecipient returns every gift for the recipient regardless of status.
// Callers filter by occasion and status.
func (r *Repository) QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error) {
	var records []models.Gift
	err := r.DB(ctx).
		Where("user_id = ? AND recipient_id = ?", userID, recipientID).
		Order("created_at ASC").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByID loads a single gift record.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	var record models.Gift
	if err := r.DB(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Remove deletes a gift by ID. Deleting an absent record is not an error.
func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Gift{}).Error
}

package gifts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
)

// ServiceParams groups dependencies for the gift service.
type ServiceParams struct {
	GiftRepo *Repository
}

// Service exposes the authoritative gift store. Every operation requires an
// authenticated actor; a nil user ID is rejected outright rather than
// retried, since no retry can supply a sign-in.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateGiftInput) (*models.Gift, error)
	QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error)
	Remove(ctx context.Context, userID, giftID uuid.UUID) error
}

type service struct {
	giftRepo *Repository
}

// NewService builds a gift service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.GiftRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift repo is required")
	}
	return &service{giftRepo: params.GiftRepo}, nil
}

// Create mirrors a selection into the store, converting the unit price to
// integer cents at this boundary.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateGiftInput) (*models.Gift, error) {
	if err := requireActor(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift price must be positive")
	}
	if input.RecipientID == uuid.Nil || input.OccasionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient and occasion ids are required")
	}

	gift := &models.Gift{
		UserID:        userID,
		RecipientID:   input.RecipientID,
		OccasionID:    input.OccasionID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Category:      input.Category,
		PriceCents:    ToCents(input.Price),
		ImageURL:      input.ImageURL,
		PurchaseURL:   input.PurchaseURL,
		Status:        enums.GiftStatusIdea,
		IsAIGenerated: input.IsAIGenerated,
		Metadata:      input.Metadata,
	}
	if err := s.giftRepo.Create(ctx, gift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gift")
	}
	return gift, nil
}

// QueryByRecipient returns all of the actor's gifts for a recipient.
func (s *service) QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error) {
	if err := requireActor(userID); err != nil {
		return nil, err
	}
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	records, err := s.giftRepo.QueryByRecipient(ctx, userID, recipientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query gifts")
	}
	return records, nil
}

// Remove deletes one of the actor's gifts. A missing record is treated as
// already removed.
func (s *service) Remove(ctx context.Context, userID, giftID uuid.UUID) error {
	if err := requireActor(userID); err != nil {
		return err
	}
	if giftID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift id is required")
	}

	record, err := s.giftRepo.FindByID(ctx, giftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift")
	}
	if record.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "gift belongs to another user")
	}
	if err := s.giftRepo.Remove(ctx, giftID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove gift")
	}
	return nil
}

func requireActor(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	return nil
}

package recipients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/internal/address"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
)

// ServiceParams groups dependencies for the recipient service.
type ServiceParams struct {
	RecipientRepo *Repository
}

// Service exposes business rules for managing recipients. Addresses pass
// the rule-based validator on the way in; edits never rewrite order
// snapshots.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateRecipientInput) (*models.Recipient, error)
	Get(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Recipient, error)
	Update(ctx context.Context, userID, recipientID uuid.UUID, input UpdateRecipientInput) (*models.Recipient, error)
	Delete(ctx context.Context, userID, recipientID uuid.UUID) error
}

type service struct {
	recipientRepo *Repository
}

// NewService builds a recipient service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.RecipientRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient repo is required")
	}
	return &service{recipientRepo: params.RecipientRepo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateRecipientInput) (*models.Recipient, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient name is required")
	}

	validatedAddress, err := address.ValidateOptional(input.Address)
	if err != nil {
		return nil, err
	}

	recipient := &models.Recipient{
		UserID:       userID,
		Name:         name,
		Relationship: strings.TrimSpace(input.Relationship),
		Interests:    input.Interests,
		Address:      validatedAddress,
		Notes:        input.Notes,
	}
	if err := s.recipientRepo.Create(ctx, recipient); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create recipient")
	}
	return recipient, nil
}

func (s *service) Get(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error) {
	return s.owned(ctx, userID, recipientID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Recipient, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	records, err := s.recipientRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipients")
	}
	return records, nil
}

func (s *service) Update(ctx context.Context, userID, recipientID uuid.UUID, input UpdateRecipientInput) (*models.Recipient, error) {
	if _, err := s.owned(ctx, userID, recipientID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Relationship != nil {
		updates["relationship"] = strings.TrimSpace(*input.Relationship)
	}
	if input.Interests != nil {
		updates["interests"] = input.Interests
	}
	if input.Address != nil {
		validated, err := address.ValidateOptional(input.Address)
		if err != nil {
			return nil, err
		}
		updates["address"] = validated
	}
	if input.Notes != nil {
		updates["notes"] = input.Notes
	}

	if len(updates) > 0 {
		if err := s.recipientRepo.Update(ctx, recipientID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update recipient")
		}
	}
	return s.owned(ctx, userID, recipientID)
}

func (s *service) Delete(ctx context.Context, userID, recipientID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, recipientID); err != nil {
		return err
	}
	if err := s.recipientRepo.Delete(ctx, recipientID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete recipient")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	record, err := s.recipientRepo.FindByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}
	if record.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "recipient belongs to another user")
	}
	return record, nil
}

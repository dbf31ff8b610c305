package occasions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/internal/recipients"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
)

// CreateOccasionInput carries the fields accepted on occasion creation.
type CreateOccasionInput struct {
	RecipientID    uuid.UUID
	Kind           enums.OccasionKind
	Name           string
	Date           time.Time
	Recurring      bool
	BudgetMinCents int
	BudgetMaxCents int
}

// ServiceParams groups dependencies for the occasion service.
type ServiceParams struct {
	OccasionRepo  *Repository
	RecipientRepo *recipients.Repository
}

// Service exposes business rules for managing occasions.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOccasionInput) (*models.Occasion, error)
	Get(ctx context.Context, userID, occasionID uuid.UUID) (*models.Occasion, error)
	ListByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Occasion, error)
	Delete(ctx context.Context, userID, occasionID uuid.UUID) error
}

type service struct {
	occasionRepo  *Repository
	recipientRepo *recipients.Repository
}

// NewService builds an occasion service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OccasionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion repo is required")
	}
	if params.RecipientRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient repo is required")
	}
	return &service{
		occasionRepo:  params.OccasionRepo,
		recipientRepo: params.RecipientRepo,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOccasionInput) (*models.Occasion, error) {
	if err := s.ensureOwnedRecipient(ctx, userID, input.RecipientID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion name is required")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion date is required")
	}
	if !input.Kind.IsValid() {
		input.Kind = enums.OccasionKindOther
	}
	if input.BudgetMinCents < 0 || input.BudgetMaxCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
	}
	if input.BudgetMaxCents > 0 && input.BudgetMinCents > input.BudgetMaxCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget minimum exceeds maximum")
	}

	occasion := &models.Occasion{
		RecipientID:    input.RecipientID,
		Kind:           input.Kind,
		Name:           name,
		Date:           input.Date,
		Recurring:      input.Recurring,
		BudgetMinCents: input.BudgetMinCents,
		BudgetMaxCents: input.BudgetMaxCents,
	}
	if err := s.occasionRepo.Create(ctx, occasion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create occasion")
	}
	return occasion, nil
}

func (s *service) Get(ctx context.Context, userID, occasionID uuid.UUID) (*models.Occasion, error) {
	if occasionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion id is required")
	}
	record, err := s.occasionRepo.FindByID(ctx, occasionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "occasion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load occasion")
	}
	if err := s.ensureOwnedRecipient(ctx, userID, record.RecipientID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) ListByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Occasion, error) {
	if err := s.ensureOwnedRecipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	records, err := s.occasionRepo.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list occasions")
	}
	return records, nil
}

func (s *service) Delete(ctx context.Context, userID, occasionID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, occasionID); err != nil {
		return err
	}
	if err := s.occasionRepo.Delete(ctx, occasionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete occasion")
	}
	return nil
}

func (s *service) ensureOwnedRecipient(ctx context.Context, userID, recipientID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	recipient, err := s.recipientRepo.FindByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipient not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}
	if recipient.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "recipient belongs to another user")
	}
	return nil
}

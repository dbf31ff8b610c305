package gifts

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// CreateGiftInput carries the fields required to mirror a selection into the
// authoritative store. Price is unit currency; the repository converts to
// cents at the boundary.
type CreateGiftInput struct {
	RecipientID   uuid.UUID
	OccasionID    uuid.UUID
	Name          string
	Description   *string
	Category      *string
	Price         decimal.Decimal
	ImageURL      *string
	PurchaseURL   *string
	IsAIGenerated bool
	Metadata      *types.JSONMap
}

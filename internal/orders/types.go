package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// EmitOrderInput is the fully-assembled payload for one fulfillment order.
// All identity and address fields are snapshots taken at selection time.
type EmitOrderInput struct {
	GiftID *uuid.UUID

	PayerUserID      uuid.UUID
	PayerEmail       string
	PayerDisplayName string

	RecipientID           uuid.UUID
	RecipientName         string
	RecipientRelationship string
	ShippingAddress       *types.Address

	OccasionID   uuid.UUID
	OccasionName string
	OccasionDate time.Time

	GiftName        string
	GiftPriceCents  int64
	GiftDescription *string
	GiftImageURL    *string
	GiftPurchaseURL *string

	SourceNote string
}

// EmitResult reports how the order write landed. Fallback means the primary
// path failed and the row went in through the direct SQL path, a degraded
// state worth operational attention.
type EmitResult struct {
	OrderID  uuid.UUID
	Fallback bool
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// GiftOrder is the fulfillment-facing artifact created once a selection is
// confirmed. Everything fulfillment staff need is denormalized onto the row
// at creation time; later recipient or occasion edits never touch it. The
// GiftID foreign key links back to the remote gift record when the remote
// write succeeded; SourceNote keeps a human-readable trace either way.
type GiftOrder struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	GiftID *uuid.UUID `gorm:"column:gift_id;type:uuid;index:gift_orders_gift_id_idx"`

	PayerUserID      uuid.UUID `gorm:"column:payer_user_id;type:uuid;not null;index:gift_orders_payer_idx"`
	PayerEmail       string    `gorm:"column:payer_email;not null"`
	PayerDisplayName string    `gorm:"column:payer_display_name;not null"`

	RecipientID           uuid.UUID      `gorm:"column:recipient_id;type:uuid;not null"`
	RecipientName         string         `gorm:"column:recipient_name;not null"`
	RecipientRelationship string         `gorm:"column:recipient_relationship"`
	ShippingAddress       *types.Address `gorm:"column:shipping_address;serializer:json"`

	OccasionID   uuid.UUID `gorm:"column:occasion_id;type:uuid;not null"`
	OccasionName string    `gorm:"column:occasion_name;not null"`
	OccasionDate time.Time `gorm:"column:occasion_date;not null"`

	GiftName        string  `gorm:"column:gift_name;not null"`
	GiftPriceCents  int64   `gorm:"column:gift_price_cents;not null"`
	GiftDescription *string `gorm:"column:gift_description"`
	GiftImageURL    *string `gorm:"column:gift_image_url"`
	GiftPurchaseURL *string `gorm:"column:gift_purchase_url"`

	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SourceNote string            `gorm:"column:source_note;not null"`

	FulfilledAt *time.Time `gorm:"column:fulfilled_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	BilledAt    *time.Time `gorm:"column:billed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// Gift is the authoritative, multi-device-visible record of a selected or
// saved gift. Price is integer cents; decimal conversion happens at the
// repository boundary, never here.
type Gift struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:gifts_user_id_idx"`
	RecipientID   uuid.UUID        `gorm:"column:recipient_id;type:uuid;not null;index:gifts_recipient_id_idx"`
	OccasionID    uuid.UUID        `gorm:"column:occasion_id;type:uuid;not null;index:gifts_occasion_id_idx"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Category      *string          `gorm:"column:category"`
	PriceCents    int64            `gorm:"column:price_cents;not null"`
	ImageURL      *string          `gorm:"column:image_url"`
	PurchaseURL   *string          `gorm:"column:purchase_url"`
	Status        enums.GiftStatus `gorm:"column:status;type:text;not null;default:'idea'"`
	IsAIGenerated bool             `gorm:"column:is_ai_generated;not null;default:false"`
	Metadata      *types.JSONMap   `gorm:"column:metadata;serializer:json"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

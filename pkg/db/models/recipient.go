package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

// Recipient is a person gifts are planned for. The shipping address here is
// the live value; orders denormalize their own copy.
type Recipient struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index:recipients_user_id_idx"`
	Name         string         `gorm:"column:name;not null"`
	Relationship string         `gorm:"column:relationship"`
	Interests    []string       `gorm:"column:interests;serializer:json"`
	Address      *types.Address `gorm:"column:address;serializer:json"`
	Notes        *string        `gorm:"column:notes"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

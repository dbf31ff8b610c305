package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
)

// Occasion is a dated event tied to one recipient, with a budget window in
// integer cents.
type Occasion struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID    uuid.UUID          `gorm:"column:recipient_id;type:uuid;not null;index:occasions_recipient_id_idx"`
	Kind           enums.OccasionKind `gorm:"column:kind;type:text;not null;default:'other'"`
	Name           string             `gorm:"column:name;not null"`
	Date           time.Time          `gorm:"column:date;not null"`
	Recurring      bool               `gorm:"column:recurring;not null;default:false"`
	BudgetMinCents int                `gorm:"column:budget_min_cents;not null;default:0"`
	BudgetMaxCents int                `gorm:"column:budget_max_cents;not null;default:0"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

package orders

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/metrics"
)

// rawExecer is the lower-level write path used when the primary insert
// fails. pkg/db.Client satisfies it.
type rawExecer interface {
	Exec(ctx context.Context, query string, args ...any) *gorm.DB
}

// EmitterParams groups dependencies for the order emitter.
type EmitterParams struct {
	DB      *gorm.DB
	Raw     rawExecer
	Logger  *logger.Logger
	Metrics *metrics.SelectionMetrics
}

// Emitter persists fulfillment orders. The primary path is an ORM insert;
// on failure exactly one fallback write goes through the direct SQL path,
// and if that also fails the error propagates. Orders are never silently
// dropped.
type Emitter struct {
	db      *gorm.DB
	raw     rawExecer
	log     *logger.Logger
	metrics *metrics.SelectionMetrics
}

// NewEmitter builds an order emitter with the required dependencies.
func NewEmitter(params EmitterParams) (*Emitter, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db handle is required")
	}
	if params.Raw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raw exec handle is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Emitter{
		db:      params.DB,
		raw:     params.Raw,
		log:     params.Logger,
		metrics: params.Metrics,
	}, nil
}

// CreateOrder persists one fulfillment order and reports which write path
// succeeded.
func (e *Emitter) CreateOrder(ctx context.Context, input EmitOrderInput) (EmitResult, error) {
	if err := validateEmitInput(input); err != nil {
		return EmitResult{}, err
	}

	order := buildOrder(input)

	primaryErr := e.db.WithContext(ctx).Create(order).Error
	if primaryErr == nil {
		return EmitResult{OrderID: order.ID}, nil
	}

	ctx = e.log.WithField(ctx, "order_id", order.ID.String())
	e.log.Warn(ctx, "primary order write failed, attempting fallback")

	if err := e.fallbackInsert(ctx, order); err != nil {
		e.log.Error(ctx, "fallback order write failed", err)
		return EmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if e.metrics != nil {
		e.metrics.IncOrderFallback()
	}
	e.log.Warn(ctx, "order created via fallback path")
	return EmitResult{OrderID: order.ID, Fallback: true}, nil
}

// RemoveByGiftID deletes pending orders referencing the given remote gift.
func (e *Emitter) RemoveByGiftID(ctx context.Context, giftID uuid.UUID) error {
	if giftID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift id is required")
	}
	return e.db.WithContext(ctx).
		Where("gift_id = ? AND status = ?", giftID, enums.OrderStatusPending).
		Delete(&models.GiftOrder{}).
		Error
}

// RemoveBySourceNote deletes pending orders whose trace note matches. Used
// when the selection never reached the remote store and carries no gift ID.
func (e *Emitter) RemoveBySourceNote(ctx context.Context, note string) error {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "source note is required")
	}
	return e.db.WithContext(ctx).
		Where("source_note = ? AND status = ?", trimmed, enums.OrderStatusPending).
		Delete(&models.GiftOrder{}).
		Error
}

func validateEmitInput(input EmitOrderInput) error {
	if input.PayerUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "payer identity is required")
	}
	if strings.TrimSpace(input.GiftName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift name is required")
	}
	if input.GiftPriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift price must be positive")
	}
	if input.RecipientID == uuid.Nil || input.OccasionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient and occasion ids are required")
	}
	return nil
}

// buildOrder maps the input onto the row, stripping absent-valued optional
// fields so the storage layer never sees empty sentinels.
func buildOrder(input EmitOrderInput) *models.GiftOrder {
	order := &models.GiftOrder{
		ID:                    uuid.New(),
		GiftID:                input.GiftID,
		PayerUserID:           input.PayerUserID,
		PayerEmail:            strings.TrimSpace(input.PayerEmail),
		PayerDisplayName:      strings.TrimSpace(input.PayerDisplayName),
		RecipientID:           input.RecipientID,
		RecipientName:         strings.TrimSpace(input.RecipientName),
		RecipientRelationship: strings.TrimSpace(input.RecipientRelationship),
		ShippingAddress:       input.ShippingAddress,
		OccasionID:            input.OccasionID,
		OccasionName:          strings.TrimSpace(input.OccasionName),
		OccasionDate:          input.OccasionDate,
		GiftName:              strings.TrimSpace(input.GiftName),
		GiftPriceCents:        input.GiftPriceCents,
		GiftDescription:       stripEmpty(input.GiftDescription),
		GiftImageURL:          stripEmpty(input.GiftImageURL),
		GiftPurchaseURL:       stripEmpty(input.GiftPurchaseURL),
		Status:                enums.OrderStatusPending,
		SourceNote:            strings.TrimSpace(input.SourceNote),
	}
	if order.ShippingAddress != nil && order.ShippingAddress.IsZero() {
		order.ShippingAddress = nil
	}
	return order
}

func stripEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (e *Emitter) fallbackInsert(ctx context.Context, order *models.GiftOrder) error {
	var shippingJSON any
	if order.ShippingAddress != nil {
		data, err := json.Marshal(order.ShippingAddress)
		if err != nil {
			return err
		}
		shippingJSON = string(data)
	}

	now := time.Now().UTC()
	return e.raw.Exec(ctx, `
INSERT INTO gift_orders (
  id, gift_id,
  payer_user_id, payer_email, payer_display_name,
  recipient_id, recipient_name, recipient_relationship, shipping_address,
  occasion_id, occasion_name, occasion_date,
  gift_name, gift_price_cents, gift_description, gift_image_url, gift_purchase_url,
  status, source_note, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.GiftID,
		order.PayerUserID, order.PayerEmail, order.PayerDisplayName,
		order.RecipientID, order.RecipientName, order.RecipientRelationship, shippingJSON,
		order.OccasionID, order.OccasionName, order.OccasionDate,
		order.GiftName, order.GiftPriceCents, order.GiftDescription, order.GiftImageURL, order.GiftPurchaseURL,
		order.Status, order.SourceNote, now, now,
	).Error
}

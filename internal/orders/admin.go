package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/pagination"
)

// AdminServiceParams groups dependencies for the fulfillment dashboard.
type AdminServiceParams struct {
	DB *gorm.DB
}

// AdminService is the read/update surface fulfillment staff work from.
// List calls page with an opaque cursor; an empty next cursor means the
// last page.
type AdminService interface {
	ListPending(ctx context.Context, page pagination.Params) ([]models.GiftOrder, string, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.GiftOrder, string, error)
	MarkFulfilled(ctx context.Context, orderID uuid.UUID) error
	MarkShipped(ctx context.Context, orderID uuid.UUID) error
	MarkBilled(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, orderID uuid.UUID) error
}

type adminService struct {
	db *gorm.DB
}

// NewAdminService builds the fulfillment dashboard service.
func NewAdminService(params AdminServiceParams) (AdminService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db handle is required")
	}
	return &adminService{db: params.DB}, nil
}

func (s *adminService) ListPending(ctx context.Context, page pagination.Params) ([]models.GiftOrder, string, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Order("created_at ASC, id ASC")

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"created_at > ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.GiftOrder
	if err := query.Limit(pagination.LimitWithBuffer(page.Limit)).Find(&records).Error; err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	return trimPage(records, page.Limit)
}

func (s *adminService) ListAll(ctx context.Context, page pagination.Params) ([]models.GiftOrder, string, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.GiftOrder
	if err := query.Limit(pagination.LimitWithBuffer(page.Limit)).Find(&records).Error; err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return trimPage(records, page.Limit)
}

// trimPage drops the lookahead row and derives the next cursor from the
// last row actually returned.
func trimPage(records []models.GiftOrder, limit int) ([]models.GiftOrder, string, error) {
	size := pagination.NormalizeLimit(limit)
	if len(records) <= size {
		return records, "", nil
	}
	records = records[:size]
	last := records[len(records)-1]
	next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	return records, next, nil
}

func (s *adminService) MarkFulfilled(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, enums.OrderStatusFulfilled, "fulfilled_at")
}

func (s *adminService) MarkShipped(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, enums.OrderStatusShipped, "shipped_at")
}

func (s *adminService) MarkBilled(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, enums.OrderStatusBilled, "billed_at")
}

func (s *adminService) Cancel(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, enums.OrderStatusCanceled, "")
}

func (s *adminService) transition(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, stampColumn string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var record models.GiftOrder
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if record.Status == enums.OrderStatusCanceled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is canceled")
	}

	updates := map[string]any{"status": status, "updated_at": time.Now().UTC()}
	if stampColumn != "" {
		updates[stampColumn] = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Model(&models.GiftOrder{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return nil
}

package selection

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ktrudeau/giftnest-backend/internal/gifts"
	"github.com/ktrudeau/giftnest-backend/internal/localcache"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
)

// Actor is the authenticated user driving an engine operation. Payer
// identity on emitted orders is snapshotted from it.
type Actor struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// LocalStore is the synchronous, always-available selection cache.
// *localcache.Store satisfies it.
type LocalStore interface {
	Put(record localcache.StoredGift) (localcache.StoredGift, error)
	Remove(localID uuid.UUID, bucket enums.GiftBucket) error
	QueryByRecipientOccasion(recipientID, occasionID uuid.UUID) []localcache.StoredGift
	SetRemoteRef(localID, remoteID uuid.UUID) error
}

// RemoteStore is the authoritative gift store. gifts.Service satisfies it.
type RemoteStore interface {
	Create(ctx context.Context, userID uuid.UUID, input gifts.CreateGiftInput) (*models.Gift, error)
	QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error)
	Remove(ctx context.Context, userID, giftID uuid.UUID) error
}

// OrderEmitter persists fulfillment orders. *orders.Emitter satisfies it.
type OrderEmitter interface {
	CreateOrder(ctx context.Context, input orders.EmitOrderInput) (orders.EmitResult, error)
	RemoveByGiftID(ctx context.Context, giftID uuid.UUID) error
	RemoveBySourceNote(ctx context.Context, note string) error
}

// RecipientReader supplies the fresh recipient snapshot read at selection
// time. recipients.Service satisfies it.
type RecipientReader interface {
	Get(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error)
}

// OccasionReader supplies the fresh occasion snapshot read at selection
// time. occasions.Service satisfies it.
type OccasionReader interface {
	Get(ctx context.Context, userID, occasionID uuid.UUID) (*models.Occasion, error)
}

// SelectionView is one entry of the unified local/remote view. Origin
// reports which store this instance came from and is never persisted.
type SelectionView struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
	ImageURL    string
	PurchaseURL string
	Origin      enums.GiftOrigin
	LocalID     uuid.UUID
	RemoteID    *uuid.UUID
	SelectedAt  time.Time
	Metadata    map[string]any
}

// SelectInput is a candidate the user chose for a recipient/occasion pair.
type SelectInput struct {
	RecipientID uuid.UUID
	OccasionID  uuid.UUID
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
	ImageURL    string
	PurchaseURL string
	Metadata    map[string]any
}

// Outcome reports each pipeline step independently. LocalOK true with
// RemoteOK or OrderOK false is a partial success the caller must be able
// to message, not a failure of the whole call.
type Outcome struct {
	AlreadySelected bool
	LocalOK         bool
	RemoteOK        bool
	OrderOK         bool
	OrderFallback   bool
	RemoteErr       error
	OrderErr        error
	LocalID         uuid.UUID
	RemoteID        *uuid.UUID
	OrderID         *uuid.UUID
}

// SyncResult summarizes one divergence-repair pass.
type SyncResult struct {
	Skipped  bool
	Uploaded int
	Failed   int
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

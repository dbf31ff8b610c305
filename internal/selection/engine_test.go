package selection

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktrudeau/giftnest-backend/internal/gifts"
	"github.com/ktrudeau/giftnest-backend/internal/localcache"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
)

type stubRemote struct {
	mu         sync.Mutex
	records    []models.Gift
	failCreate error
	failQuery  error
	creates    int
}

func (s *stubRemote) Create(ctx context.Context, userID uuid.UUID, input gifts.CreateGiftInput) (*models.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user is required")
	}
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	s.creates++
	gift := models.Gift{
		ID:            uuid.New(),
		UserID:        userID,
		RecipientID:   input.RecipientID,
		OccasionID:    input.OccasionID,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		PriceCents:    gifts.ToCents(input.Price),
		Status:        enums.GiftStatusIdea,
		IsAIGenerated: input.IsAIGenerated,
		Metadata:      input.Metadata,
		CreatedAt:     time.Now().UTC(),
	}
	s.records = append(s.records, gift)
	return &gift, nil
}

func (s *stubRemote) QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failQuery != nil {
		return nil, s.failQuery
	}
	var out []models.Gift
	for _, record := range s.records {
		if record.RecipientID == recipientID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubRemote) Remove(ctx context.Context, userID, giftID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.records[:0]
	for _, record := range s.records {
		if record.ID != giftID {
			filtered = append(filtered, record)
		}
	}
	s.records = filtered
	return nil
}

func (s *stubRemote) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type stubOrders struct {
	mu         sync.Mutex
	created    []orders.EmitOrderInput
	removed    []string
	failCreate error
	fallback   bool
}

func (s *stubOrders) CreateOrder(ctx context.Context, input orders.EmitOrderInput) (orders.EmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return orders.EmitResult{}, s.failCreate
	}
	s.created = append(s.created, input)
	return orders.EmitResult{OrderID: uuid.New(), Fallback: s.fallback}, nil
}

func (s *stubOrders) RemoveByGiftID(ctx context.Context, giftID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, "gift:"+giftID.String())
	return nil
}

func (s *stubOrders) RemoveBySourceNote(ctx context.Context, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, "note:"+note)
	return nil
}

type stubRecipients struct {
	recipient *models.Recipient
}

func (s *stubRecipients) Get(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error) {
	return s.recipient, nil
}

type stubOccasions struct {
	occasion *models.Occasion
}

func (s *stubOccasions) Get(ctx context.Context, userID, occasionID uuid.UUID) (*models.Occasion, error) {
	return s.occasion, nil
}

type fixture struct {
	engine     *Engine
	local      *localcache.Store
	remote     *stubRemote
	orders     *stubOrders
	actor      Actor
	recipient  uuid.UUID
	occasion   uuid.UUID
	cacheDir   string
	actorID    uuid.UUID
	recipients *stubRecipients
	occasions  *stubOccasions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	actorID := uuid.New()
	recipientID := uuid.New()
	occasionID := uuid.New()
	dir := t.TempDir()

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	local, err := localcache.Open(context.Background(), dir, actorID, log)
	require.NoError(t, err)

	remote := &stubRemote{}
	orderSink := &stubOrders{}
	recipientReader := &stubRecipients{recipient: &models.Recipient{
		ID:           recipientID,
		UserID:       actorID,
		Name:         "Dana",
		Relationship: "sister",
	}}
	occasionReader := &stubOccasions{occasion: &models.Occasion{
		ID:          occasionID,
		RecipientID: recipientID,
		Name:        "Birthday",
		Date:        time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
	}}

	engine, err := NewEngine(Params{
		Local:      local,
		Remote:     remote,
		Orders:     orderSink,
		Recipients: recipientReader,
		Occasions:  occasionReader,
		Logger:     log,
	})
	require.NoError(t, err)

	return &fixture{
		engine:     engine,
		local:      local,
		remote:     remote,
		orders:     orderSink,
		actor:      Actor{UserID: actorID, Email: "dana@example.com", DisplayName: "Dana P"},
		recipient:  recipientID,
		occasion:   occasionID,
		cacheDir:   dir,
		actorID:    actorID,
		recipients: recipientReader,
		occasions:  occasionReader,
	}
}

func (f *fixture) selectGift(t *testing.T, name string, price float64) Outcome {
	t.Helper()
	outcome, err := f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        name,
		Price:       decimal.NewFromFloat(price),
	})
	require.NoError(t, err)
	return outcome
}

func TestSelectHappyPath(t *testing.T) {
	f := newFixture(t)

	outcome := f.selectGift(t, "Bluetooth Speaker", 45.00)
	assert.True(t, outcome.LocalOK)
	assert.True(t, outcome.RemoteOK)
	assert.True(t, outcome.OrderOK)
	assert.False(t, outcome.OrderFallback)
	require.NotNil(t, outcome.RemoteID)

	views := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, views, 1)
	assert.Equal(t, "Bluetooth Speaker", views[0].Name)
	assert.Equal(t, enums.GiftOriginRemote, views[0].Origin)
	assert.Equal(t, "45", views[0].Price.String())

	// The order snapshot carries the freshly-read recipient and occasion.
	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, "Dana", order.RecipientName)
	assert.Equal(t, "Birthday", order.OccasionName)
	assert.Equal(t, int64(4500), order.GiftPriceCents)
	require.NotNil(t, order.GiftID)
	assert.Equal(t, *outcome.RemoteID, *order.GiftID)
	assert.Equal(t, f.actor.Email, order.PayerEmail)
}

func TestSelectCarriesMetadataToRemote(t *testing.T) {
	f := newFixture(t)

	meta := map[string]any{
		"oracle_id":  "mkt_881",
		"confidence": 0.92,
		"reasoning":  "Matches the chess interest",
		"tags":       []string{"strategy", "handmade"},
	}
	outcome, err := f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "Chess Set",
		Price:       decimal.NewFromFloat(45.00),
		Metadata:    meta,
	})
	require.NoError(t, err)
	assert.True(t, outcome.RemoteOK)

	require.Len(t, f.remote.records, 1)
	stored := f.remote.records[0].Metadata
	require.NotNil(t, stored)
	assert.Equal(t, "mkt_881", (*stored)["oracle_id"])
	assert.Equal(t, 0.92, (*stored)["confidence"])
	assert.Equal(t, "Matches the chess interest", (*stored)["reasoning"])
	assert.Equal(t, []string{"strategy", "handmade"}, (*stored)["tags"])

	// The unified view surfaces the same bag.
	views := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Metadata)
	assert.Equal(t, "mkt_881", views[0].Metadata["oracle_id"])

	// The locally cached record keeps the bag too, for offline reads.
	cached := f.local.QueryByRecipientOccasion(f.recipient, f.occasion)
	require.Len(t, cached, 1)
	assert.Equal(t, "mkt_881", cached[0].Metadata["oracle_id"])
}

func TestSelectValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "   ",
		Price:       decimal.NewFromInt(10),
	})
	require.Error(t, err)

	_, err = f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "Free Gift",
		Price:       decimal.Zero,
	})
	require.Error(t, err)

	// Nothing touched either store.
	assert.Zero(t, f.remote.count())
	assert.Empty(t, f.local.QueryByRecipientOccasion(f.recipient, f.occasion))
}

func TestSelectLocalDurabilityUnderRemoteFailure(t *testing.T) {
	f := newFixture(t)
	f.remote.failCreate = pkgerrors.New(pkgerrors.CodeDependency, "remote unavailable")

	outcome := f.selectGift(t, "Bluetooth Speaker", 45.00)
	assert.True(t, outcome.LocalOK)
	assert.False(t, outcome.RemoteOK)
	require.Error(t, outcome.RemoteErr)

	// The selection is observable immediately despite the failed mirror.
	assert.True(t, f.engine.IsSelected(context.Background(), f.actor, f.recipient, f.occasion, "bluetooth speaker"))

	// An order still goes out, without a gift foreign key.
	require.Len(t, f.orders.created, 1)
	assert.Nil(t, f.orders.created[0].GiftID)
}

func TestSelectAuthPreconditionSurfacesImmediately(t *testing.T) {
	f := newFixture(t)
	f.actor.UserID = uuid.Nil

	outcome, err := f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "Scarf",
		Price:       decimal.NewFromInt(20),
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())

	// The fast local path still completed; no order was emitted.
	assert.True(t, outcome.LocalOK)
	assert.False(t, outcome.OrderOK)
	assert.Empty(t, f.orders.created)
}

func TestSelectOrderFailureIsPartialOutcome(t *testing.T) {
	f := newFixture(t)
	f.orders.failCreate = pkgerrors.New(pkgerrors.CodeDependency, "orders down")

	outcome := f.selectGift(t, "Scarf", 20)
	assert.True(t, outcome.LocalOK)
	assert.True(t, outcome.RemoteOK)
	assert.False(t, outcome.OrderOK)
	require.Error(t, outcome.OrderErr)

	// The gift stays selected even though the order step failed.
	assert.True(t, f.engine.IsSelected(context.Background(), f.actor, f.recipient, f.occasion, "Scarf"))
}

func TestSelectOrderFallbackFlagPropagates(t *testing.T) {
	f := newFixture(t)
	f.orders.fallback = true

	outcome := f.selectGift(t, "Scarf", 20)
	assert.True(t, outcome.OrderOK)
	assert.True(t, outcome.OrderFallback)
}

func TestSelectIsIdempotentByName(t *testing.T) {
	f := newFixture(t)

	first := f.selectGift(t, "Bluetooth Speaker", 45)
	assert.False(t, first.AlreadySelected)

	second := f.selectGift(t, "bluetooth SPEAKER", 45)
	assert.True(t, second.AlreadySelected)
	assert.False(t, second.LocalOK)

	assert.Equal(t, 1, f.remote.count())
	require.Len(t, f.orders.created, 1)
}

func TestDedupRemoteWins(t *testing.T) {
	f := newFixture(t)

	// Seed a remote record and a same-name local record directly.
	_, err := f.remote.Create(context.Background(), f.actorID, gifts.CreateGiftInput{
		RecipientID:   f.recipient,
		OccasionID:    f.occasion,
		Name:          "Chess Set",
		Price:         decimal.NewFromInt(30),
		IsAIGenerated: true,
	})
	require.NoError(t, err)
	_, err = f.local.Put(localcache.StoredGift{
		Name:        "chess set",
		Price:       decimal.NewFromInt(30),
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Status:      enums.GiftStatusSelected,
	})
	require.NoError(t, err)

	views := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, views, 1)
	assert.Equal(t, enums.GiftOriginRemote, views[0].Origin)

	// The suppressed local duplicate is not deleted.
	assert.Len(t, f.local.QueryByRecipientOccasion(f.recipient, f.occasion), 1)
}

func TestCrossOccasionIsolation(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Bluetooth Speaker", 45)

	otherOccasion := uuid.New()
	assert.Empty(t, f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, otherOccasion))
	assert.Empty(t, f.engine.UnifiedSelections(context.Background(), f.actor, uuid.New(), f.occasion))
	assert.False(t, f.engine.IsSelected(context.Background(), f.actor, f.recipient, otherOccasion, "Bluetooth Speaker"))
}

func TestUnselectRemovesBothStores(t *testing.T) {
	f := newFixture(t)

	outcome := f.selectGift(t, "Bluetooth Speaker", 45)
	require.True(t, outcome.RemoteOK)

	require.NoError(t, f.engine.Unselect(context.Background(), f.actor, f.recipient, f.occasion, "Bluetooth Speaker"))

	assert.Zero(t, f.remote.count())
	assert.Empty(t, f.local.QueryByRecipientOccasion(f.recipient, f.occasion))
	assert.False(t, f.engine.IsSelected(context.Background(), f.actor, f.recipient, f.occasion, "Bluetooth Speaker"))

	// Pending orders for the gift were swept.
	require.NotEmpty(t, f.orders.removed)
}

func TestUnselectIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Scarf", 20)
	require.NoError(t, f.engine.Unselect(context.Background(), f.actor, f.recipient, f.occasion, "Scarf"))
	require.NoError(t, f.engine.Unselect(context.Background(), f.actor, f.recipient, f.occasion, "Scarf"))
}

func TestUnselectUnknownNameIsVacuous(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Unselect(context.Background(), f.actor, f.recipient, f.occasion, "never selected"))
}

func TestSyncRepairsLocalOnlyRecords(t *testing.T) {
	f := newFixture(t)

	// A remote failure leaves a local-only record behind.
	f.remote.failCreate = pkgerrors.New(pkgerrors.CodeDependency, "remote unavailable")
	f.selectGift(t, "Bluetooth Speaker", 45)
	f.remote.failCreate = nil

	result, err := f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Uploaded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, f.remote.count())

	// The repaired record is tagged so operators can tell it apart.
	require.NotNil(t, f.remote.records[0].Metadata)
	assert.Equal(t, "restored_from_local", (*f.remote.records[0].Metadata)["source"])

	// A second pass uploads nothing.
	result, err = f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.Zero(t, result.Uploaded)
	assert.Equal(t, 1, f.remote.count())
}

func TestSyncDoesNotDuplicateExistingRemote(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Bluetooth Speaker", 45)
	require.Equal(t, 1, f.remote.count())

	result, err := f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.Zero(t, result.Uploaded)
	assert.Equal(t, 1, f.remote.count())
}

func TestSyncPartialFailureContinues(t *testing.T) {
	f := newFixture(t)

	// Two local-only records.
	f.remote.failCreate = pkgerrors.New(pkgerrors.CodeDependency, "remote unavailable")
	f.selectGift(t, "Speaker", 45)
	f.selectGift(t, "Scarf", 20)
	f.remote.failCreate = nil

	// Keep failing: both repairs fail but neither aborts the other.
	f.remote.failCreate = pkgerrors.New(pkgerrors.CodeDependency, "still down")
	result, err := f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.Error(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Uploaded)
}

func TestSyncReentrancyGuard(t *testing.T) {
	f := newFixture(t)

	// Mark a sync in flight by hand, then verify the overlapping call no-ops.
	key := viewKey{recipientID: f.recipient, occasionID: f.occasion}
	f.engine.mu.Lock()
	f.engine.syncing[key] = struct{}{}
	f.engine.mu.Unlock()

	result, err := f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	f.engine.mu.Lock()
	delete(f.engine.syncing, key)
	f.engine.mu.Unlock()

	result, err = f.engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestInFlightGuardBlocksConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)

	key := opKey{
		viewKey: viewKey{recipientID: f.recipient, occasionID: f.occasion},
		name:    "bluetooth speaker",
	}
	f.engine.mu.Lock()
	f.engine.inflight[key] = struct{}{}
	f.engine.mu.Unlock()

	outcome, err := f.engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "Bluetooth Speaker",
		Price:       decimal.NewFromInt(45),
	})
	require.NoError(t, err)
	assert.True(t, outcome.AlreadySelected)
	assert.Zero(t, f.remote.count())
}

func TestLocalOnlyModeWithoutRemote(t *testing.T) {
	f := newFixture(t)

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	engine, err := NewEngine(Params{
		Local:      f.local,
		Remote:     nil,
		Orders:     f.orders,
		Recipients: f.recipients,
		Occasions:  f.occasions,
		Logger:     log,
	})
	require.NoError(t, err)

	outcome, err := engine.Select(context.Background(), f.actor, SelectInput{
		RecipientID: f.recipient,
		OccasionID:  f.occasion,
		Name:        "Mug",
		Price:       decimal.NewFromInt(8),
	})
	require.NoError(t, err)
	assert.True(t, outcome.LocalOK)
	assert.False(t, outcome.RemoteOK)
	assert.Nil(t, outcome.RemoteErr)
	assert.True(t, outcome.OrderOK)

	result, err := engine.Sync(context.Background(), f.actor, f.recipient, f.occasion)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

// Restart scenario: select, rebuild the engine over the same persisted
// stores, confirm the view survives, then unselect with different casing.
func TestRestartPreservesViewAndCaseInsensitiveUnselect(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Bluetooth Speaker", 45)

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reopenedLocal, err := localcache.Open(context.Background(), f.cacheDir, f.actorID, log)
	require.NoError(t, err)

	restarted, err := NewEngine(Params{
		Local:      reopenedLocal,
		Remote:     f.remote,
		Orders:     f.orders,
		Recipients: f.recipients,
		Occasions:  f.occasions,
		Logger:     log,
	})
	require.NoError(t, err)

	views := restarted.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, views, 1)
	assert.Equal(t, "Bluetooth Speaker", views[0].Name)

	require.NoError(t, restarted.Unselect(context.Background(), f.actor, f.recipient, f.occasion, "bluetooth speaker"))
	assert.Empty(t, restarted.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion))
	assert.Zero(t, f.remote.count())
}

func TestUnifiedViewMemoizationInvalidation(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Speaker", 45)
	first := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, first, 1)

	// A mutation invalidates the memoized view.
	f.selectGift(t, "Scarf", 20)
	second := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, second, 2)
}

func TestDegradedViewIsNotMemoized(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Speaker", 45)

	// With the remote unreachable the view degrades to local records only.
	f.remote.failQuery = pkgerrors.New(pkgerrors.CodeDependency, "remote unavailable")
	f.engine.invalidate(viewKey{recipientID: f.recipient, occasionID: f.occasion})
	degraded := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, degraded, 1)
	assert.Equal(t, enums.GiftOriginLocal, degraded[0].Origin)

	// Once the remote recovers the next read sees the authoritative copy.
	f.remote.failQuery = nil
	recovered := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, recovered, 1)
	assert.Equal(t, enums.GiftOriginRemote, recovered[0].Origin)
}

func TestPriceRoundTripThroughView(t *testing.T) {
	f := newFixture(t)

	f.selectGift(t, "Bluetooth Speaker", 45.00)

	// Remote stored integer cents.
	require.Equal(t, 1, f.remote.count())
	assert.Equal(t, int64(4500), f.remote.records[0].PriceCents)

	// The unified view reports the unit price again.
	views := f.engine.UnifiedSelections(context.Background(), f.actor, f.recipient, f.occasion)
	require.Len(t, views, 1)
	assert.True(t, views[0].Price.Equal(decimal.NewFromFloat(45.00)))
}

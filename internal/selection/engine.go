package selection

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/ktrudeau/giftnest-backend/internal/gifts"
	"github.com/ktrudeau/giftnest-backend/internal/localcache"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/metrics"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

type viewKey struct {
	recipientID uuid.UUID
	occasionID  uuid.UUID
}

type opKey struct {
	viewKey
	name string
}

// Params groups the injected store handles for the engine. Remote may be
// nil when no remote backend is configured; the engine then runs in
// local-only mode.
type Params struct {
	Local      LocalStore
	Remote     RemoteStore
	Orders     OrderEmitter
	Recipients RecipientReader
	Occasions  OccasionReader
	Logger     *logger.Logger
	Metrics    *metrics.SelectionMetrics
	Now        func() time.Time
}

// Engine unifies the local cache and the remote gift store into one logical
// set of selected gifts per recipient/occasion pair. Writes go local first,
// then remote, then order emission; divergence heals through Sync. Identity
// inside the unified view is the normalized gift name, with remote records
// authoritative on conflict.
type Engine struct {
	local      LocalStore
	remote     RemoteStore
	orders     OrderEmitter
	recipients RecipientReader
	occasions  OccasionReader
	log        *logger.Logger
	metrics    *metrics.SelectionMetrics
	now        func() time.Time

	mu       sync.Mutex
	views    map[viewKey][]SelectionView
	inflight map[opKey]struct{}
	syncing  map[viewKey]struct{}
}

// NewEngine builds the reconciliation engine with injected dependencies.
func NewEngine(params Params) (*Engine, error) {
	if params.Local == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local store is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order emitter is required")
	}
	if params.Recipients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient reader is required")
	}
	if params.Occasions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion reader is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{
		local:      params.Local,
		remote:     params.Remote,
		orders:     params.Orders,
		recipients: params.Recipients,
		occasions:  params.Occasions,
		log:        params.Logger,
		metrics:    params.Metrics,
		now:        params.Now,
		views:      map[viewKey][]SelectionView{},
		inflight:   map[opKey]struct{}{},
		syncing:    map[viewKey]struct{}{},
	}, nil
}

// UnifiedSelections merges both stores into the deduplicated view for one
// recipient/occasion pair. Remote records win on a name conflict; local
// duplicates are suppressed from the view, never deleted. A remote fetch
// failure degrades to the local-only view.
func (e *Engine) UnifiedSelections(ctx context.Context, actor Actor, recipientID, occasionID uuid.UUID) []SelectionView {
	key := viewKey{recipientID: recipientID, occasionID: occasionID}

	e.mu.Lock()
	if cached, ok := e.views[key]; ok {
		e.mu.Unlock()
		return append([]SelectionView(nil), cached...)
	}
	e.mu.Unlock()

	remoteViews, remoteOk := e.fetchRemoteViews(ctx, actor, recipientID, occasionID)

	byName := make(map[string]SelectionView, len(remoteViews))
	order := make([]string, 0, len(remoteViews))
	for _, view := range remoteViews {
		norm := normalizeName(view.Name)
		if _, exists := byName[norm]; exists {
			continue
		}
		byName[norm] = view
		order = append(order, norm)
	}

	for _, record := range e.local.QueryByRecipientOccasion(recipientID, occasionID) {
		norm := normalizeName(record.Name)
		if _, exists := byName[norm]; exists {
			continue
		}
		byName[norm] = localView(record)
		order = append(order, norm)
	}

	merged := make([]SelectionView, 0, len(order))
	for _, norm := range order {
		merged = append(merged, byName[norm])
	}

	// Memoize only complete views; a degraded local-only view must be
	// recomputed once the remote store is reachable again.
	if remoteOk {
		e.mu.Lock()
		e.views[key] = append([]SelectionView(nil), merged...)
		e.mu.Unlock()
	}
	return merged
}

// IsSelected reports case-insensitive membership in the unified view.
func (e *Engine) IsSelected(ctx context.Context, actor Actor, recipientID, occasionID uuid.UUID, name string) bool {
	norm := normalizeName(name)
	if norm == "" {
		return false
	}
	for _, view := range e.UnifiedSelections(ctx, actor, recipientID, occasionID) {
		if normalizeName(view.Name) == norm {
			return true
		}
	}
	return false
}

// Select runs the critical write path: local cache first, then the remote
// mirror, then order emission. The local write is never rolled back; each
// later step reports independently through the outcome.
func (e *Engine) Select(ctx context.Context, actor Actor, input SelectInput) (Outcome, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "gift name is required")
	}
	if !input.Price.IsPositive() {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "gift price must be positive")
	}
	if input.RecipientID == uuid.Nil || input.OccasionID == uuid.Nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient and occasion ids are required")
	}

	if e.IsSelected(ctx, actor, input.RecipientID, input.OccasionID, name) {
		return Outcome{AlreadySelected: true}, nil
	}

	key := opKey{
		viewKey: viewKey{recipientID: input.RecipientID, occasionID: input.OccasionID},
		name:    normalizeName(name),
	}
	e.mu.Lock()
	if _, busy := e.inflight[key]; busy {
		e.mu.Unlock()
		return Outcome{AlreadySelected: true}, nil
	}
	e.inflight[key] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.inflight, key)
		e.mu.Unlock()
	}()

	ctx = e.log.WithRecipientID(ctx, input.RecipientID.String())
	ctx = e.log.WithOccasionID(ctx, input.OccasionID.String())

	var outcome Outcome

	stored, err := e.local.Put(localcache.StoredGift{
		Name:        name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		RecipientID: input.RecipientID,
		OccasionID:  input.OccasionID,
		SelectedAt:  e.now().UTC(),
		Status:      enums.GiftStatusSelected,
		Metadata:    input.Metadata,
	})
	if err != nil {
		e.observeStep("local", false)
		return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "local selection write")
	}
	outcome.LocalOK = true
	outcome.LocalID = stored.ID
	e.invalidate(key.viewKey)
	e.observeStep("local", true)

	sourceNote := sourceNoteFor(stored.ID)

	var giftID *uuid.UUID
	if e.remote != nil {
		gift, remoteErr := e.remote.Create(ctx, actor.UserID, gifts.CreateGiftInput{
			RecipientID:   input.RecipientID,
			OccasionID:    input.OccasionID,
			Name:          name,
			Description:   optional(input.Description),
			Category:      optional(input.Category),
			Price:         input.Price,
			ImageURL:      optional(input.ImageURL),
			PurchaseURL:   optional(input.PurchaseURL),
			IsAIGenerated: true,
			Metadata:      metadataMap(input.Metadata),
		})
		if remoteErr != nil {
			outcome.RemoteErr = remoteErr
			e.observeStep("remote", false)
			if coded := pkgerrors.As(remoteErr); coded != nil && coded.Code() == pkgerrors.CodeUnauthorized {
				// No retry fixes a missing sign-in; surface immediately.
				return outcome, remoteErr
			}
			e.log.Warn(ctx, "remote selection write failed, gift remains local until sync")
		} else {
			outcome.RemoteOK = true
			id := gift.ID
			outcome.RemoteID = &id
			giftID = &id
			e.observeStep("remote", true)
			if refErr := e.local.SetRemoteRef(stored.ID, gift.ID); refErr != nil {
				e.log.Warn(ctx, "remote id backfill failed")
			}
			e.invalidate(key.viewKey)
		}
	}

	orderInput, err := e.buildOrderInput(ctx, actor, input, giftID, sourceNote)
	if err != nil {
		outcome.OrderErr = err
		e.observeStep("order", false)
		return outcome, nil
	}
	result, err := e.orders.CreateOrder(ctx, orderInput)
	if err != nil {
		outcome.OrderErr = err
		e.observeStep("order", false)
		e.log.Error(ctx, "order emission failed", err)
		return outcome, nil
	}
	outcome.OrderOK = true
	outcome.OrderFallback = result.Fallback
	orderID := result.OrderID
	outcome.OrderID = &orderID
	e.observeStep("order", true)

	return outcome, nil
}

// Unselect removes a gift from both stores. Removing a name neither store
// holds is vacuously successful.
func (e *Engine) Unselect(ctx context.Context, actor Actor, recipientID, occasionID uuid.UUID, name string) error {
	norm := normalizeName(name)
	if norm == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift name is required")
	}
	key := viewKey{recipientID: recipientID, occasionID: occasionID}
	ctx = e.log.WithRecipientID(ctx, recipientID.String())

	var resolved *SelectionView
	for _, view := range e.UnifiedSelections(ctx, actor, recipientID, occasionID) {
		if normalizeName(view.Name) == norm {
			v := view
			resolved = &v
			break
		}
	}

	if resolved != nil && resolved.Origin == enums.GiftOriginRemote && resolved.RemoteID != nil && e.remote != nil {
		if err := e.remote.Remove(ctx, actor.UserID, *resolved.RemoteID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove remote gift")
		}
		if err := e.orders.RemoveByGiftID(ctx, *resolved.RemoteID); err != nil {
			// Best effort; a missed cascade degrades to an orphan order.
			e.log.Warn(ctx, "order cascade removal by gift id failed")
		}
		e.invalidate(key)
	}

	// A local duplicate may coexist regardless of the resolved origin.
	for _, record := range e.local.QueryByRecipientOccasion(recipientID, occasionID) {
		if normalizeName(record.Name) != norm {
			continue
		}
		if err := e.local.Remove(record.ID, enums.GiftBucketSelected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove local selection")
		}
		if record.RemoteID != nil && e.remote != nil && (resolved == nil || resolved.RemoteID == nil || *resolved.RemoteID != *record.RemoteID) {
			if err := e.remote.Remove(ctx, actor.UserID, *record.RemoteID); err != nil {
				e.log.Warn(ctx, "remote removal via backfilled reference failed")
			}
		}
		if err := e.orders.RemoveBySourceNote(ctx, sourceNoteFor(record.ID)); err != nil {
			e.log.Warn(ctx, "order cascade removal by source note failed")
		}
		e.invalidate(key)
	}

	return nil
}

// Sync uploads local-only records to the remote store. Re-entrant calls
// for the same pair are no-ops; individual upload failures are aggregated
// and never abort the pass.
func (e *Engine) Sync(ctx context.Context, actor Actor, recipientID, occasionID uuid.UUID) (SyncResult, error) {
	if e.remote == nil {
		return SyncResult{Skipped: true}, nil
	}
	key := viewKey{recipientID: recipientID, occasionID: occasionID}

	e.mu.Lock()
	if _, active := e.syncing[key]; active {
		e.mu.Unlock()
		return SyncResult{Skipped: true}, nil
	}
	e.syncing[key] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.syncing, key)
		e.mu.Unlock()
	}()

	ctx = e.log.WithRecipientID(ctx, recipientID.String())
	ctx = e.log.WithOccasionID(ctx, occasionID.String())
	start := e.now()

	remoteRecords, err := e.remote.QueryByRecipient(ctx, actor.UserID, recipientID)
	if err != nil {
		return SyncResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh remote gifts")
	}

	remoteNames := map[string]struct{}{}
	for _, record := range remoteRecords {
		if record.OccasionID != occasionID || !record.IsAIGenerated || record.Status != enums.GiftStatusIdea {
			continue
		}
		remoteNames[normalizeName(record.Name)] = struct{}{}
	}

	var result SyncResult
	var aggregated error
	for _, record := range e.local.QueryByRecipientOccasion(recipientID, occasionID) {
		norm := normalizeName(record.Name)
		if _, exists := remoteNames[norm]; exists {
			continue
		}

		meta := map[string]any{}
		for k, v := range record.Metadata {
			meta[k] = v
		}
		meta["source"] = enums.MetadataSourceRestoredFromLocal.String()

		gift, uploadErr := e.remote.Create(ctx, actor.UserID, gifts.CreateGiftInput{
			RecipientID:   recipientID,
			OccasionID:    occasionID,
			Name:          record.Name,
			Description:   optional(record.Description),
			Category:      optional(record.Category),
			Price:         record.Price,
			IsAIGenerated: true,
			Metadata:      metadataMap(meta),
		})
		if uploadErr != nil {
			result.Failed++
			if e.metrics != nil {
				e.metrics.IncSyncFailure()
			}
			e.log.Warn(e.log.WithField(ctx, "gift_name", record.Name), "sync repair upload failed")
			aggregated = multierr.Append(aggregated, uploadErr)
			continue
		}

		result.Uploaded++
		remoteNames[norm] = struct{}{}
		if e.metrics != nil {
			e.metrics.IncSyncRepair()
		}
		if refErr := e.local.SetRemoteRef(record.ID, gift.ID); refErr != nil {
			e.log.Warn(ctx, "remote id backfill failed during sync")
		}
	}

	e.invalidate(key)
	if e.metrics != nil {
		e.metrics.ObserveSyncDuration(e.now().Sub(start))
	}
	return result, aggregated
}

func (e *Engine) fetchRemoteViews(ctx context.Context, actor Actor, recipientID, occasionID uuid.UUID) ([]SelectionView, bool) {
	if e.remote == nil {
		return nil, true
	}
	records, err := e.remote.QueryByRecipient(ctx, actor.UserID, recipientID)
	if err != nil {
		e.log.Warn(e.log.WithRecipientID(ctx, recipientID.String()), "remote fetch failed, serving local-only view")
		return nil, false
	}

	var views []SelectionView
	for _, record := range records {
		if record.OccasionID != occasionID || !record.IsAIGenerated || record.Status != enums.GiftStatusIdea {
			continue
		}
		views = append(views, remoteView(record))
	}
	return views, true
}

func (e *Engine) buildOrderInput(ctx context.Context, actor Actor, input SelectInput, giftID *uuid.UUID, sourceNote string) (orders.EmitOrderInput, error) {
	recipient, err := e.recipients.Get(ctx, actor.UserID, input.RecipientID)
	if err != nil {
		return orders.EmitOrderInput{}, err
	}
	occasion, err := e.occasions.Get(ctx, actor.UserID, input.OccasionID)
	if err != nil {
		return orders.EmitOrderInput{}, err
	}

	return orders.EmitOrderInput{
		GiftID:                giftID,
		PayerUserID:           actor.UserID,
		PayerEmail:            actor.Email,
		PayerDisplayName:      actor.DisplayName,
		RecipientID:           recipient.ID,
		RecipientName:         recipient.Name,
		RecipientRelationship: recipient.Relationship,
		ShippingAddress:       recipient.Address,
		OccasionID:            occasion.ID,
		OccasionName:          occasion.Name,
		OccasionDate:          occasion.Date,
		GiftName:              strings.TrimSpace(input.Name),
		GiftPriceCents:        gifts.ToCents(input.Price),
		GiftDescription:       optional(input.Description),
		GiftImageURL:          optional(input.ImageURL),
		GiftPurchaseURL:       optional(input.PurchaseURL),
		SourceNote:            sourceNote,
	}, nil
}

func (e *Engine) invalidate(key viewKey) {
	e.mu.Lock()
	delete(e.views, key)
	e.mu.Unlock()
}

func (e *Engine) observeStep(step string, ok bool) {
	if e.metrics != nil {
		e.metrics.ObserveSelectStep(step, ok)
	}
}

func localView(record localcache.StoredGift) SelectionView {
	return SelectionView{
		Name:        record.Name,
		Price:       record.Price,
		Description: record.Description,
		Category:    record.Category,
		Origin:      enums.GiftOriginLocal,
		LocalID:     record.ID,
		RemoteID:    record.RemoteID,
		SelectedAt:  record.SelectedAt,
		Metadata:    record.Metadata,
	}
}

func remoteView(record models.Gift) SelectionView {
	id := record.ID
	view := SelectionView{
		Name:       record.Name,
		Price:      gifts.FromCents(record.PriceCents),
		Origin:     enums.GiftOriginRemote,
		RemoteID:   &id,
		SelectedAt: record.CreatedAt,
	}
	if record.Description != nil {
		view.Description = *record.Description
	}
	if record.Category != nil {
		view.Category = *record.Category
	}
	if record.ImageURL != nil {
		view.ImageURL = *record.ImageURL
	}
	if record.PurchaseURL != nil {
		view.PurchaseURL = *record.PurchaseURL
	}
	if record.Metadata != nil {
		view.Metadata = map[string]any(*record.Metadata)
	}
	return view
}

func sourceNoteFor(localID uuid.UUID) string {
	return "selection " + localID.String()
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func metadataMap(meta map[string]any) *types.JSONMap {
	if len(meta) == 0 {
		return nil
	}
	m := types.JSONMap(meta)
	return &m
}

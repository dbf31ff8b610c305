package selection

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/internal/localcache"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/metrics"
)

// ManagerParams carries the shared dependencies every per-user engine uses.
type ManagerParams struct {
	CacheDir   string
	Remote     RemoteStore
	Orders     OrderEmitter
	Recipients RecipientReader
	Occasions  OccasionReader
	Logger     *logger.Logger
	Metrics    *metrics.SelectionMetrics
}

// Manager hands out one Engine per user. The local cache file is opened
// lazily on first use and the engine is reused for the process lifetime.
type Manager struct {
	params ManagerParams

	mu      sync.Mutex
	engines map[uuid.UUID]*Engine
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.CacheDir == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cache dir is required")
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
	return &Manager{
		params:  params,
		engines: map[uuid.UUID]*Engine{},
	}, nil
}

// Engine returns the reconciliation engine bound to the user's local cache.
func (m *Manager) Engine(ctx context.Context, userID uuid.UUID) (*Engine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if engine, ok := m.engines[userID]; ok {
		return engine, nil
	}

	store, err := localcache.Open(ctx, m.params.CacheDir, userID, m.params.Logger)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open local selection cache")
	}

	engine, err := NewEngine(Params{
		Local:      store,
		Remote:     m.params.Remote,
		Orders:     m.params.Orders,
		Recipients: m.params.Recipients,
		Occasions:  m.params.Occasions,
		Logger:     m.params.Logger,
		Metrics:    m.params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	m.engines[userID] = engine
	return engine, nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	accessID := NewAccessID()
	token, err := manager.Generate(context.Background(), accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, err := manager.HasSession(context.Background(), accessID)
	if err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}

	newID, newToken, err := manager.Rotate(context.Background(), accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newID == accessID {
		t.Fatal("expected a new access id after rotation")
	}
	if newToken == token {
		t.Fatal("expected a new refresh token after rotation")
	}

	ok, err = manager.HasSession(context.Background(), accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("old session should be revoked after rotation")
	}
}

func TestManagerRotateRejectsWrongToken(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	accessID := NewAccessID()
	if _, err := manager.Generate(context.Background(), accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, _, err := manager.Rotate(context.Background(), accessID, "not-the-token")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	accessID := NewAccessID()
	if _, err := manager.Generate(context.Background(), accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := manager.Revoke(context.Background(), accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err := manager.HasSession(context.Background(), accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected session gone after revoke")
	}
}

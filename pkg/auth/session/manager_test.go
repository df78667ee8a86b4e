package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	redisclient "github.com/angelmondragon/sweetshop-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	} else {
		m.data[key] = fmt.Sprint(value)
	}
	m.ttls[key] = ttl
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

func (m *mockStore) SessionKey(sessionID string) string {
	return "sess:" + sessionID
}

func TestManagerCreateGetRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	ctx := context.Background()

	rec, err := manager.Create(ctx, Record{UserID: "2", Username: "staff", Role: enums.RoleStaff})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated session id")
	}
	if ttl := store.ttls[store.SessionKey(rec.ID)]; ttl != time.Hour {
		t.Fatalf("expected session ttl of 1h, got %s", ttl)
	}
	if raw := store.data[store.SessionKey(rec.ID)]; raw != fmt.Sprintf(`{"id":"%s","userId":"2","username":"staff","role":"staff"}`, rec.ID) {
		t.Fatalf("unexpected stored payload %s", raw)
	}

	loaded, err := manager.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded != rec {
		t.Fatalf("expected %+v, got %+v", rec, loaded)
	}

	ok, err := manager.HasSession(ctx, rec.ID)
	if err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, rec.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, rec.ID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
	if _, err := manager.Get(ctx, rec.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerCreateValidates(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	ctx := context.Background()

	if _, err := manager.Create(ctx, Record{Role: enums.RoleAdmin}); err == nil {
		t.Fatal("expected user id error")
	}
	if _, err := manager.Create(ctx, Record{UserID: "1", Role: "owner"}); err == nil {
		t.Fatal("expected role error")
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected error for blank session id")
	}
}

func TestNewManagerWithMemoryClient(t *testing.T) {
	if _, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 10}); err == nil {
		t.Fatal("expected error without client")
	}
	if _, err := NewManager(redisclient.NewMemory(), config.JWTConfig{}); err == nil {
		t.Fatal("expected error without ttl")
	}

	manager, err := NewManager(redisclient.NewMemory(), config.JWTConfig{ExpirationMinutes: 10})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if manager.TTL() != 10*time.Minute {
		t.Fatalf("unexpected ttl %s", manager.TTL())
	}

	ctx := context.Background()
	rec, err := manager.Create(ctx, Record{UserID: "1", Username: "admin", Role: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := manager.Get(ctx, rec.ID)
	if err != nil || got.Username != "admin" {
		t.Fatalf("unexpected record %+v err=%v", got, err)
	}
}

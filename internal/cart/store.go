package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	redisclient "github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store persists one cart per session in the key-value store and serialises
// read-modify-write cycles per session within the process.
type Store struct {
	kv    kvStore
	ttl   time.Duration
	locks sync.Map // sessionID -> *sessionLock
}

// sessionLock serialises one session's cart writes. ended is set, under mu,
// once the session has been logged out; holders that queued behind the logout
// see it and must not write the cart back.
type sessionLock struct {
	mu    sync.Mutex
	ended bool
}

// NewStore builds a cart store whose entries expire after ttl.
func NewStore(kv kvStore, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Lock acquires the session's mutex and returns its release func.
func (s *Store) Lock(sessionID string) func() {
	return s.acquire(sessionID).mu.Unlock
}

func (s *Store) acquire(sessionID string) *sessionLock {
	value, _ := s.locks.LoadOrStore(sessionID, &sessionLock{})
	l := value.(*sessionLock)
	l.mu.Lock()
	return l
}

// Load returns the session's cart, or an empty cart when none is stored.
func (s *Store) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if err != nil {
		if redisclient.IsMissing(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var stored Cart
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c := New()
	for _, line := range stored.Lines {
		if line.Quantity <= 0 || c.Quantity(line.ItemID) > 0 {
			continue
		}
		c.Lines = append(c.Lines, line)
	}
	return c, nil
}

// Save writes the cart. An empty cart deletes the stored entry.
func (s *Store) Save(ctx context.Context, sessionID string, c *Cart) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if c == nil || c.IsEmpty() {
		return s.Delete(ctx, sessionID)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the session's cart.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// end marks l's session as logged out and drops it from the lock table.
// The caller must hold l.
func (s *Store) end(sessionID string, l *sessionLock) {
	l.ended = true
	s.locks.CompareAndDelete(sessionID, l)
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	redisclient "github.com/angelmondragon/sweetshop-backend/pkg/redis"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned once a session expired or was revoked.
var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted login session. ID doubles as the JWT jti.
type Record struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager handles session record creation, lookup and revocation.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// NewManager constructs a session manager whose records live as long as the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// TTL reports how long a session record lives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create stores rec under a fresh session id and returns the stored record.
func (m *Manager) Create(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.UserID) == "" {
		return Record{}, fmt.Errorf("user id is required")
	}
	if !rec.Role.IsValid() {
		return Record{}, fmt.Errorf("invalid role %q", rec.Role)
	}
	rec.ID = NewSessionID()

	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(rec.ID), payload, m.ttl); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get loads the record for sessionID.
func (m *Manager) Get(ctx context.Context, sessionID string) (Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Record{}, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if redisclient.IsMissing(err) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

// Revoke deletes the session record. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// HasSession reports whether the session is still active.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}
	if _, err := m.Get(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSessionID produces the identifier used as the JWT jti and KV key.
func NewSessionID() string {
	return uuid.NewString()
}

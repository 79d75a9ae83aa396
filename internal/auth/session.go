package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

// Session is a login marker. The dashboard is reachable while its marker
// exists.
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
}

// SessionStore persists session markers.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	// Get returns ErrSessionNotFound for unknown, expired or removed sessions.
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps markers in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemorySessionStore(now func() time.Time) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{sessions: make(map[string]Session), now: now}
}

// Save stores s and drops every marker that has already expired.
func (m *MemorySessionStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, existing := range m.sessions {
		if !now.Before(existing.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// RedisSessionStore keeps markers in Redis with a TTL matching the session.
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return fmt.Sprintf("clinic:session:%s", id)
}

func (r *RedisSessionStore) Save(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("auth: session %s already expired", s.ID)
	}
	payload, err := json.Marshal(s.Identity)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	key := sessionKey(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: load session: %w", err)
	}
	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return Session{}, fmt.Errorf("auth: decode session: %w", err)
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("auth: session ttl: %w", err)
	}
	return Session{ID: id, Identity: identity, ExpiresAt: r.now().Add(ttl)}, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// GormSessionStore keeps markers as staff_sessions rows. Logout revokes the
// row rather than deleting it.
type GormSessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db, now: time.Now}
}

func (g *GormSessionStore) Save(ctx context.Context, s Session) error {
	payload, err := json.Marshal(s.Identity)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	row := models.StaffSession{
		BaseModel: models.BaseModel{ID: s.ID},
		StaffID:   s.Identity.ID,
		Payload:   string(payload),
		ExpiresAt: s.ExpiresAt,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

func (g *GormSessionStore) Get(ctx context.Context, id string) (Session, error) {
	var row models.StaffSession
	err := g.db.WithContext(ctx).
		Where("id = ? AND is_revoked = ? AND expires_at > ?", id, false, g.now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: load session: %w", err)
	}
	var identity Identity
	if err := json.Unmarshal([]byte(row.Payload), &identity); err != nil {
		return Session{}, fmt.Errorf("auth: decode session: %w", err)
	}
	return Session{ID: row.ID, Identity: identity, ExpiresAt: row.ExpiresAt}, nil
}

func (g *GormSessionStore) Delete(ctx context.Context, id string) error {
	err := g.db.WithContext(ctx).
		Model(&models.StaffSession{}).
		Where("id = ?", id).
		Update("is_revoked", true).Error
	if err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
	_ SessionStore = (*GormSessionStore)(nil)
)

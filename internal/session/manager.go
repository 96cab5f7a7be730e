// Package session replaces the original ambient auth flags with one explicit
// source of truth. Sessions persist in Redis and every change is fanned out
// on a subscription channel, so consumers react to events instead of polling.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"checkout-service/internal/redisclient"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired session tokens.
var ErrNotFound = errors.New("session not found")

// Session identifies an authenticated user for the lifetime of a token.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Change event kinds.
const (
	ChangeStarted = "STARTED"
	ChangeEnded   = "ENDED"
)

// Change is a session lifecycle notification.
type Change struct {
	Kind    string
	Session Session
}

// Backend is the persistence surface the manager needs.
type Backend interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, out interface{}) error
	Delete(ctx context.Context, key string) error
}

// Manager owns session state and the change channel.
type Manager struct {
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	subscribers map[int]chan Change
	nextSub     int
}

// NewManager creates a session manager.
func NewManager(backend Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		backend:     backend,
		ttl:         ttl,
		logger:      util.GetLogger(),
		subscribers: make(map[int]chan Change),
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Start opens a session for an authenticated user and returns its token.
func (m *Manager) Start(ctx context.Context, userID int64, email, role string) (*Session, error) {
	session := &Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}

	if err := m.backend.SetJSON(ctx, sessionKey(session.Token), session, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.notify(Change{Kind: ChangeStarted, Session: *session})
	return session, nil
}

// Get resolves a token to its session.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var session Session
	err := m.backend.GetJSON(ctx, sessionKey(token), &session)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// End invalidates a session and notifies subscribers.
func (m *Manager) End(ctx context.Context, token string) error {
	session, err := m.Get(ctx, token)
	if err != nil {
		return err
	}
	if err := m.backend.Delete(ctx, sessionKey(token)); err != nil {
		return err
	}
	m.notify(Change{Kind: ChangeEnded, Session: *session})
	return nil
}

// Subscribe returns a channel of session changes and an id for Unsubscribe.
func (m *Manager) Subscribe() (<-chan Change, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Change, 16)
	m.subscribers[id] = ch
	return ch, id
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.subscribers[id]; ok {
		delete(m.subscribers, id)
		close(ch)
	}
}

func (m *Manager) notify(change Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ch := range m.subscribers {
		select {
		case ch <- change:
		default:
			m.logger.Warn("Dropping session change for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("kind", change.Kind))
		}
	}
}

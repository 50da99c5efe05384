// Package session tracks which players are attached to which tables and
// expires abandoned sessions on a lease period.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one player's attachment to a table.
type Session struct {
	ID         string
	TableID    string
	PlayerID   string
	PlayerName string
	CreatedAt  time.Time
	LastSeen   time.Time
}

// Manager is the session registry.
type Manager struct {
	logger      *zap.Logger
	leasePeriod time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager with the given lease period.
func NewManager(leasePeriod time.Duration, logger *zap.Logger) *Manager {
	if leasePeriod <= 0 {
		leasePeriod = 2 * time.Hour
	}
	return &Manager{
		logger:      logger,
		leasePeriod: leasePeriod,
		sessions:    make(map[string]*Session),
	}
}

// CreateSession registers a player on a table and returns the new session.
func (m *Manager) CreateSession(tableID, playerID, playerName string) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		TableID:    tableID,
		PlayerID:   playerID,
		PlayerName: playerName,
		CreatedAt:  now,
		LastSeen:   now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("table_id", tableID),
		zap.String("player_id", playerID),
	)
	return sess
}

// GetSession looks up a session by id.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Touch refreshes a session's lease.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		sess.LastSeen = time.Now()
	}
}

// RemoveSession drops a session.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// SessionsForTable returns all sessions attached to a table.
func (m *Manager) SessionsForTable(tableID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, sess := range m.sessions {
		if sess.TableID == tableID {
			out = append(out, sess)
		}
	}
	return out
}

// CleanupExpiredSessions removes sessions whose lease has lapsed. Runs until
// the context is cancelled.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(m.leasePeriod / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.expire(time.Now())
		}
	}
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if now.Sub(sess.LastSeen) > m.leasePeriod {
			delete(m.sessions, id)
			m.logger.Info("session expired",
				zap.String("session_id", id),
				zap.String("player_id", sess.PlayerID),
			)
		}
	}
}

// CloseAll drops every session; used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.sessions)
	m.sessions = make(map[string]*Session)
	m.logger.Info("closed all sessions", zap.Int("count", n))
}

package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// sessionIDBytes is the entropy of a generated ID; 2 bytes give 4 hex characters
const sessionIDBytes = 2

// Manager keeps puzzle sessions in memory, keyed by lowercased ID, and
// mirrors them to an optional SessionPersistence.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*service.Session
	persistence SessionPersistence
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a session manager that saves every change
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
	}
}

func key(id string) string {
	return strings.ToLower(id)
}

// Create starts a session on a fresh board for the level. An empty id asks
// for a generated one.
func (m *Manager) Create(id string, level *engine.LevelConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.newID()
	} else if _, taken := m.sessions[key(id)]; taken {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         level,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = sess
	m.persist(sess, "creation")

	return sess, nil
}

// Get returns the session with the given ID, ignoring case. Sessions only
// present in storage are loaded and cached.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have loaded it meanwhile
	if sess, ok := m.sessions[key(id)]; ok {
		return sess, nil
	}
	m.sessions[key(id)] = loaded
	return loaded, nil
}

// GetOrCreate returns the session, creating it on the level when missing
func (m *Manager) GetOrCreate(id string, level *engine.LevelConfig) (*service.Session, error) {
	sess, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, level)
	}
	return sess, err
}

// List returns all sessions held in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[key(id)]
	delete(m.sessions, key(id))

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory drops a session from memory, leaving storage untouched
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	return nil
}

// UpdateLastAccessed marks the session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	m.persist(sess, "access update")
	return nil
}

// Save writes one session to storage
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	return m.persistence.Save(sess)
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge and
// reports how many were removed. Stored copies are kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// newID draws random hex IDs until one is unused in memory and storage.
// Caller holds the lock.
func (m *Manager) newID() string {
	buf := make([]byte, sessionIDBytes)
	for {
		rand.Read(buf)
		id := hex.EncodeToString(buf)
		if _, taken := m.sessions[id]; taken {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id
	}
}

// persist saves a session, logging instead of failing. Caller holds the lock.
func (m *Manager) persist(sess *service.Session, what string) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(sess); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sess.ID, what, err)
	}
}

// LoadPersistedSessions loads every stored session not already in memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, ok := m.sessions[key(id)]; ok {
			continue
		}

		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted session %s: %v", id, err)
			continue
		}

		m.sessions[key(id)] = sess
		loaded++
	}

	if loaded > 0 {
		log.Printf("Loaded %d persisted sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions writes every in-memory session to storage
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessions := m.List()

	failed := 0
	for _, sess := range sessions {
		if err := m.persistence.Save(sess); err != nil {
			log.Printf("Warning: Failed to save session %s: %v", sess.ID, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}

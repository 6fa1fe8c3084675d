package session

import (
	"time"

	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Level holds a copy of the level so a session survives its file being
// edited or removed.
type PersistedSessionData struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Level          *engine.LevelConfig `json:"level,omitempty"`
	GameState      *engine.GameState   `json:"game_state"`
}

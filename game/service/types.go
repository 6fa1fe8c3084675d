package service

import (
	"time"

	"github.com/wricardo/klotski/game/engine"
)

// Event types emitted by the service
const (
	EventReset  = "reset"
	EventMove   = "move"
	EventSolved = "solved"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	Level          *engine.LevelConfig `json:"level"`
}

// SlideRequest asks for a discrete move of one piece
type SlideRequest struct {
	PieceID   engine.PieceID `json:"piece_id"`
	Direction string         `json:"direction"`
	Steps     int            `json:"steps"`
	Reset     bool           `json:"reset,omitempty"`
}

// MoveResult contains the result of a committed gesture or slide
type MoveResult struct {
	Success   bool               `json:"success"`
	Solved    bool               `json:"solved"`
	GameState *engine.GameState  `json:"game_state"`
	Message   string             `json:"message"`
	Pieces    []engine.PieceMove `json:"pieces,omitempty"`
	Events    []GameEvent        `json:"events,omitempty"`
}

// GestureResult reports the gesture state after a pointer event
type GestureResult struct {
	Accepted bool                    `json:"accepted"`
	Gesture  *engine.GestureSnapshot `json:"gesture,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string           `json:"type"` // "reset", "move" or "solved"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	PieceID   engine.PieceID   `json:"piece_id,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Pieces      int    `json:"pieces"`
}

package service

import (
	"context"
	"time"

	"github.com/wricardo/klotski/game/engine"
)

// GameService defines all puzzle-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Layout and pointer input
	Resize(ctx context.Context, sessionID string, viewport engine.Viewport) (*engine.GameState, error)
	BeginGesture(ctx context.Context, sessionID string, x, y float64) (*GestureResult, error)
	UpdateGesture(ctx context.Context, sessionID string, x, y float64) (*GestureResult, error)
	EndGesture(ctx context.Context, sessionID string) (*MoveResult, error)
	CancelGesture(ctx context.Context, sessionID string) (*MoveResult, error)
	GetPieceRect(ctx context.Context, sessionID string, pieceID engine.PieceID) (engine.Rect, error)

	// Discrete moves
	Slide(ctx context.Context, sessionID string, req SlideRequest) (*MoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetPossibleMoves(ctx context.Context, sessionID string) ([]engine.MoveOption, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.LevelConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles level configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.LevelConfig
	SaveConfig(name string, config *engine.LevelConfig) error
}

// Session represents an active puzzle session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

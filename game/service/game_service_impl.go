package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/klotski/game/engine"
)

// configNotFoundText matches config.ErrConfigNotFound, which cannot be
// imported here without a cycle
const configNotFoundText = "configuration not found"

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		Level:          sess.Config,
	}
}

// CreateSession creates a new puzzle session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.LevelConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), configNotFoundText) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// session looks up a session for a mutating call. Callers hold s.mu.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after %s: %v\n", sessionID, after, err)
	}
}

// Resize fits the session's board into a new viewport
func (s *gameServiceImpl) Resize(ctx context.Context, sessionID string, viewport engine.Viewport) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Engine.Resize(viewport); err != nil {
		return nil, err
	}
	s.persist(sessionID, "resize")
	return sess.Engine.GetState(), nil
}

// BeginGesture presses the pointer at (x, y)
func (s *gameServiceImpl) BeginGesture(ctx context.Context, sessionID string, x, y float64) (*GestureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	accepted := sess.Engine.BeginGesture(x, y)
	return &GestureResult{Accepted: accepted, Gesture: sess.Engine.GetState().Gesture}, nil
}

// UpdateGesture moves the pointer to (x, y)
func (s *gameServiceImpl) UpdateGesture(ctx context.Context, sessionID string, x, y float64) (*GestureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.UpdateGesture(x, y); err != nil {
		return nil, err
	}
	gesture := sess.Engine.GetState().Gesture
	return &GestureResult{Accepted: gesture != nil, Gesture: gesture}, nil
}

// EndGesture releases the pointer and commits the drag
func (s *gameServiceImpl) EndGesture(ctx context.Context, sessionID string) (*MoveResult, error) {
	return s.commit(sessionID, "gesture end", func(e *engine.GameEngine) (engine.CommitResult, error) {
		return e.EndGesture()
	})
}

// CancelGesture aborts the pointer interaction; the drag is still committed
func (s *gameServiceImpl) CancelGesture(ctx context.Context, sessionID string) (*MoveResult, error) {
	return s.commit(sessionID, "gesture cancel", func(e *engine.GameEngine) (engine.CommitResult, error) {
		return e.CancelGesture()
	})
}

// Slide executes a discrete move, optionally resetting the board first
func (s *gameServiceImpl) Slide(ctx context.Context, sessionID string, req SlideRequest) (*MoveResult, error) {
	if req.Steps == 0 {
		req.Steps = 1
	}

	var events []GameEvent
	result, err := s.commit(sessionID, "slide", func(e *engine.GameEngine) (engine.CommitResult, error) {
		if req.Reset {
			e.Reset()
			events = append(events, GameEvent{
				Type:      EventReset,
				Message:   "Puzzle reset to initial layout",
				Timestamp: time.Now(),
			})
		}
		return e.Slide(req.PieceID, req.Direction, req.Steps)
	})
	if result != nil {
		result.Events = append(events, result.Events...)
	}
	return result, err
}

// commit runs one committing engine call and turns its outcome into events.
// Illegal moves are reported as an unsuccessful result rather than an error.
func (s *gameServiceImpl) commit(sessionID, what string, fn func(*engine.GameEngine) (engine.CommitResult, error)) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	commit, err := fn(sess.Engine)
	if err != nil {
		if errors.Is(err, engine.ErrIllegalMove) || errors.Is(err, engine.ErrPuzzleSolved) || errors.Is(err, engine.ErrGestureActive) {
			// fn may have reset the board before failing
			s.persist(sessionID, what)
			state := sess.Engine.GetState()
			return &MoveResult{
				Success:   false,
				Solved:    state.Solved,
				GameState: state,
				Message:   err.Error(),
			}, nil
		}
		return nil, err
	}

	state := sess.Engine.GetState()
	result := &MoveResult{
		Success:   commit.Moved,
		Solved:    commit.Solved,
		GameState: state,
		Message:   state.Message,
		Pieces:    commit.Pieces,
		Events:    commitEvents(commit),
	}

	s.persist(sessionID, what)
	return result, nil
}

// commitEvents emits one move event per relocated piece, plus a solved event
// on the commit that first solved the puzzle
func commitEvents(commit engine.CommitResult) []GameEvent {
	now := time.Now()
	events := make([]GameEvent, 0, len(commit.Pieces)+1)
	for _, m := range commit.Pieces {
		to := m.To
		events = append(events, GameEvent{
			Type:      EventMove,
			Message:   fmt.Sprintf("Piece %d moved from (%d,%d) to (%d,%d)", m.ID, m.From.Col, m.From.Row, m.To.Col, m.To.Row),
			Timestamp: now,
			PieceID:   m.ID,
			Position:  &to,
		})
	}
	if commit.NewlySolved {
		events = append(events, GameEvent{
			Type:      EventSolved,
			Message:   "Puzzle solved!",
			Timestamp: now,
		})
	}
	return events
}

// Reset restores the starting layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.Reset()
	s.persist(sessionID, "reset")
	return state, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return sess.Engine.GetState(), nil
}

// GetPossibleMoves lists every legal slide from the current layout
func (s *gameServiceImpl) GetPossibleMoves(ctx context.Context, sessionID string) ([]engine.MoveOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	moves := sess.Engine.GetPossibleMoves()
	if moves == nil {
		moves = []engine.MoveOption{}
	}
	return moves, nil
}

// GetPieceRect returns the rectangle a renderer should draw for a piece
func (s *gameServiceImpl) GetPieceRect(ctx context.Context, sessionID string, pieceID engine.PieceID) (engine.Rect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return engine.Rect{}, fmt.Errorf("session not found: %w", err)
	}
	return sess.Engine.CurrentRectangle(pieceID)
}

// GetMoveHistory returns a page of the move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns all available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, config)
}

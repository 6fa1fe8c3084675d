package engine

import (
	"fmt"
	"time"
)

// Move sources recorded in the history
const (
	SourceGesture = "gesture"
	SourceSlide   = "slide"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsSolved() bool

	// Layout
	Resize(vp Viewport) (Layout, error)
	CurrentRectangle(id PieceID) (Rect, error)

	// Pointer input
	BeginGesture(x, y float64) bool
	UpdateGesture(x, y float64) error
	EndGesture() (CommitResult, error)
	CancelGesture() (CommitResult, error)

	// Discrete moves
	Slide(id PieceID, direction string, steps int) (CommitResult, error)
	GetPossibleMoves() []MoveOption

	// Configuration
	GetConfig() *LevelConfig
	SetConfig(config *LevelConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	SetSolvedHandler(fn func())
}

// GameEngine implements the Engine interface on top of a Board and its
// gesture Controller. It is not safe for concurrent use.
type GameEngine struct {
	config     *LevelConfig
	board      *Board
	controller *Controller
	viewport   *Viewport

	message     string
	totalMoves  int
	moveHistory []MoveHistoryEntry
	onSolved    func()
}

// NewEngine creates a new game engine with the provided level
func NewEngine(config *LevelConfig) (*GameEngine, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config, moveHistory: []MoveHistoryEntry{}}
	if err := e.rebuild(config.Pieces, config.Width, config.Height, config.Exit); err != nil {
		return nil, err
	}
	e.message = config.Messages.Welcome
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in level
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultLevelConfig())
	if err != nil {
		panic(fmt.Sprintf("default level is invalid: %v", err))
	}
	return e
}

// rebuild replaces the board and controller, keeping the current viewport
func (e *GameEngine) rebuild(pieces []Piece, width, height int, exit Position) error {
	board, err := NewBoard(width, height, exit, pieces)
	if err != nil {
		return err
	}
	if e.viewport != nil {
		if _, err := board.Resize(*e.viewport); err != nil {
			return err
		}
	}
	e.board = board
	e.controller = NewController(board,
		WithPush(e.config.PushEnabled()),
		WithSolvedHandler(e.handleSolved),
	)
	return nil
}

func (e *GameEngine) handleSolved() {
	e.message = e.config.Messages.Solved
	if e.onSolved != nil {
		e.onSolved()
	}
}

// Board exposes the underlying board for read-only inspection
func (e *GameEngine) Board() *Board {
	return e.board
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	history := make([]MoveHistoryEntry, len(e.moveHistory))
	copy(history, e.moveHistory)

	state := &GameState{
		ConfigName:  e.config.Name,
		Width:       e.board.Width(),
		Height:      e.board.Height(),
		Exit:        e.board.Exit(),
		Pieces:      e.board.Pieces(),
		Solved:      e.board.IsSolved(),
		Message:     e.message,
		TotalMoves:  e.totalMoves,
		MoveHistory: history,
		Gesture:     e.controller.Snapshot(),
		Rows:        e.board.grid.Rows(),
	}
	if layout, ok := e.board.Layout(); ok {
		state.Layout = &layout
		state.Positions = e.board.Positions()
	}
	return state
}

// SetState restores a game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := e.rebuild(state.Pieces, state.Width, state.Height, state.Exit); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	e.message = state.Message
	e.totalMoves = state.TotalMoves
	e.moveHistory = append([]MoveHistoryEntry{}, state.MoveHistory...)
	return nil
}

// Reset puts every piece back at its starting cell. The move history and
// counters are cumulative and survive a reset.
func (e *GameEngine) Reset() *GameState {
	if err := e.rebuild(e.config.Pieces, e.config.Width, e.config.Height, e.config.Exit); err != nil {
		// config was validated when it was set
		panic(fmt.Sprintf("reset failed: %v", err))
	}
	e.message = e.config.Messages.Welcome
	return e.GetState()
}

// IsSolved returns whether the goal piece sits on the exit
func (e *GameEngine) IsSolved() bool {
	return e.board.IsSolved()
}

// Resize fits the board into a new viewport. An active gesture is committed
// first so its drag limits never outlive the layout they were computed for.
func (e *GameEngine) Resize(vp Viewport) (Layout, error) {
	if e.controller.State() != GestureIdle {
		if _, err := e.EndGesture(); err != nil {
			return Layout{}, err
		}
	}
	layout, err := e.board.Resize(vp)
	if err != nil {
		return Layout{}, err
	}
	e.viewport = &vp
	return layout, nil
}

// CurrentRectangle returns the rectangle a renderer should draw for the
// piece, following the drag while a gesture moves it.
func (e *GameEngine) CurrentRectangle(id PieceID) (Rect, error) {
	return e.controller.MovingRectangle(id)
}

func (e *GameEngine) BeginGesture(x, y float64) bool {
	return e.controller.Begin(x, y)
}

func (e *GameEngine) UpdateGesture(x, y float64) error {
	return e.controller.Update(x, y)
}

// EndGesture commits the active gesture
func (e *GameEngine) EndGesture() (CommitResult, error) {
	result, err := e.controller.End()
	if err != nil {
		return result, err
	}
	e.record(SourceGesture, result)
	return result, nil
}

// CancelGesture commits the active gesture exactly like EndGesture
func (e *GameEngine) CancelGesture() (CommitResult, error) {
	result, err := e.controller.Cancel()
	if err != nil {
		return result, err
	}
	e.record(SourceGesture, result)
	return result, nil
}

// Slide moves a piece by whole steps, pushing other pieces when the level allows it
func (e *GameEngine) Slide(id PieceID, direction string, steps int) (CommitResult, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return CommitResult{}, err
	}
	result, err := e.controller.Slide(id, dir, steps)
	if err != nil {
		if e.config.Messages.Blocked != "" {
			e.message = e.config.Messages.Blocked
		}
		return result, err
	}
	e.record(SourceSlide, result)
	return result, nil
}

func (e *GameEngine) record(source string, result CommitResult) {
	if !result.Moved {
		return
	}
	e.totalMoves++
	e.moveHistory = append(e.moveHistory, MoveHistoryEntry{
		MoveNumber: e.totalMoves,
		Source:     source,
		Pieces:     result.Pieces,
		Solved:     result.Solved,
		Timestamp:  time.Now().Unix(),
	})
	if !result.Solved {
		e.message = fmt.Sprintf("Move %d", e.totalMoves)
	}
}

// GetPossibleMoves returns every piece and direction that can slide at least one step
func (e *GameEngine) GetPossibleMoves() []MoveOption {
	if e.board.IsSolved() {
		return nil
	}
	return e.board.PossibleMoves(e.config.PushEnabled())
}

// GetConfig returns the current level
func (e *GameEngine) GetConfig() *LevelConfig {
	return e.config
}

// SetConfig switches to a new level and starts it from scratch
func (e *GameEngine) SetConfig(config *LevelConfig) error {
	if err := ValidateLevelConfig(config); err != nil {
		return err
	}
	prev := e.config
	e.config = config
	if err := e.rebuild(config.Pieces, config.Width, config.Height, config.Exit); err != nil {
		e.config = prev
		return err
	}
	e.message = config.Messages.Welcome
	e.totalMoves = 0
	e.moveHistory = []MoveHistoryEntry{}
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.moveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.moveHistory) == 0 {
		return nil
	}
	return &e.moveHistory[len(e.moveHistory)-1]
}

// SetSolvedHandler registers a callback fired when a commit first solves the puzzle
func (e *GameEngine) SetSolvedHandler(fn func()) {
	e.onSolved = fn
}

package engine

import (
	"fmt"
	"strings"
)

// PieceID identifies a piece for the lifetime of a board. Zero marks an empty cell.
type PieceID int

// NoPiece is the occupancy value of an empty cell
const NoPiece PieceID = 0

const (
	// Validation constants
	MinBoardSize = 2
	MaxBoardSize = 20

	// Shipped board dimensions
	DefaultBoardWidth  = 4
	DefaultBoardHeight = 5

	// DragThreshold is the pointer displacement in pixels that locks a drag axis
	DragThreshold = 10.0

	WebSocketBufferSize = 256
)

// Direction is one of the four cardinal slide directions
type Direction int

const (
	Left Direction = iota + 1
	Right
	Up
	Down
)

// Directions lists every cardinal direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// String returns the lowercase name used by the API
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Delta returns the column and row change of one step in this direction
func (d Direction) Delta() (dc, dr int) {
	switch d {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	}
	return 0, 0
}

// Axis returns the axis the direction moves along
func (d Direction) Axis() Axis {
	if d == Left || d == Right {
		return Horizontal
	}
	return Vertical
}

// ParseDirection converts an API direction name into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "up", "top":
		return Up, nil
	case "down", "bottom":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Axis is the locked movement axis of a gesture
type Axis int

const (
	AxisNone Axis = iota
	Horizontal
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return "none"
}

// Position is a grid cell address
type Position struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Piece is a rectangular block on the board
type Piece struct {
	ID     PieceID `json:"id"`
	Col    int     `json:"col"`
	Row    int     `json:"row"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Goal   bool    `json:"goal,omitempty"`
}

// Position returns the top-left cell of the piece
func (p Piece) Position() Position {
	return Position{Col: p.Col, Row: p.Row}
}

// Shape returns the footprint size as "WxH"
func (p Piece) Shape() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Covers reports whether the piece footprint includes the cell
func (p Piece) Covers(col, row int) bool {
	return col >= p.Col && col < p.Col+p.Width && row >= p.Row && row < p.Row+p.Height
}

// PieceMove records a single piece relocation inside a commit
type PieceMove struct {
	ID   PieceID  `json:"id"`
	From Position `json:"from"`
	To   Position `json:"to"`
}

// CommitResult describes what a gesture or slide commit changed
type CommitResult struct {
	Moved  bool        `json:"moved"`
	Pieces []PieceMove `json:"pieces,omitempty"`
	Solved bool        `json:"solved"`
	// NewlySolved is true only on the commit that first satisfied the win predicate
	NewlySolved bool `json:"newly_solved,omitempty"`
}

// MoveOption is a legal slide available from the current position
type MoveOption struct {
	PieceID   PieceID   `json:"piece_id"`
	Direction string    `json:"direction"`
	MaxSteps  int       `json:"max_steps"`
	Pushes    []PieceID `json:"pushes,omitempty"`
}

// MoveHistoryEntry represents a single committed move in the game history
type MoveHistoryEntry struct {
	MoveNumber int         `json:"move_number"`
	Source     string      `json:"source"` // "gesture" or "slide"
	Pieces     []PieceMove `json:"pieces"`
	Solved     bool        `json:"solved"`
	Timestamp  int64       `json:"timestamp"`
}

// GameState represents the complete, serializable state of a puzzle session
type GameState struct {
	ConfigName  string             `json:"config_name"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Exit        Position           `json:"exit"`
	Pieces      []Piece            `json:"pieces"`
	Solved      bool               `json:"solved"`
	Message     string             `json:"message"`
	TotalMoves  int                `json:"total_moves"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`

	// Derived views, omitted until the board has been sized
	Layout    *Layout          `json:"layout,omitempty"`
	Positions map[PieceID]Rect `json:"positions,omitempty"`
	Gesture   *GestureSnapshot `json:"gesture,omitempty"`
	Rows      []string         `json:"rows,omitempty"`
}

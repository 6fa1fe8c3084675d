package engine

import (
	"errors"
	"fmt"

	"github.com/kamstrup/intmap"
)

var (
	ErrPieceNotFound      = errors.New("piece not found")
	ErrNoGoalPiece        = errors.New("board has no goal piece")
	ErrMultipleGoalPieces = errors.New("board has more than one goal piece")
	ErrDuplicatePiece     = errors.New("duplicate piece id")
	ErrInvalidPiece       = errors.New("invalid piece")
	ErrPieceOutOfBounds   = errors.New("piece out of bounds")
	ErrPieceOverlap       = errors.New("pieces overlap")
	ErrInvalidBoardSize   = errors.New("invalid board size")
	ErrNotSized           = errors.New("board has no layout yet")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrIllegalMove        = errors.New("illegal move")
)

// Board owns the pieces, the occupancy grid and the derived pixel positions.
// Pieces never reference the board.
type Board struct {
	width  int
	height int
	exit   Position

	pieces []*Piece // construction order
	index  *intmap.Map[PieceID, *Piece]
	goal   *Piece
	grid   *Grid

	layout    *Layout
	positions map[PieceID]Rect
}

// NewBoard validates the pieces and places them on a fresh grid. The slice is
// copied; later changes to it do not affect the board.
func NewBoard(width, height int, exit Position, pieces []Piece) (*Board, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, width, height)
	}

	b := &Board{
		width:     width,
		height:    height,
		exit:      exit,
		pieces:    make([]*Piece, 0, len(pieces)),
		index:     intmap.New[PieceID, *Piece](len(pieces)),
		grid:      NewGrid(width, height),
		positions: make(map[PieceID]Rect, len(pieces)),
	}

	for i := range pieces {
		p := pieces[i]
		if p.ID <= NoPiece {
			return nil, fmt.Errorf("%w: piece #%d has id %d, ids must be positive", ErrInvalidPiece, i+1, p.ID)
		}
		if p.Width < 1 || p.Height < 1 {
			return nil, fmt.Errorf("%w: piece %d has size %s", ErrInvalidPiece, p.ID, p.Shape())
		}
		if _, dup := b.index.Get(p.ID); dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePiece, p.ID)
		}
		if p.Col < 0 || p.Row < 0 || p.Col+p.Width > width || p.Row+p.Height > height {
			return nil, fmt.Errorf("%w: piece %d at (%d,%d) size %s", ErrPieceOutOfBounds, p.ID, p.Col, p.Row, p.Shape())
		}
		for r := p.Row; r < p.Row+p.Height; r++ {
			for c := p.Col; c < p.Col+p.Width; c++ {
				if other := b.grid.At(c, r); other != NoPiece {
					return nil, fmt.Errorf("%w: pieces %d and %d at (%d,%d)", ErrPieceOverlap, other, p.ID, c, r)
				}
			}
		}
		if p.Goal {
			if b.goal != nil {
				return nil, fmt.Errorf("%w: %d and %d", ErrMultipleGoalPieces, b.goal.ID, p.ID)
			}
		}

		piece := &p
		b.pieces = append(b.pieces, piece)
		b.index.Put(p.ID, piece)
		b.grid.fill(piece, true)
		if p.Goal {
			b.goal = piece
		}
	}

	if b.goal == nil {
		return nil, ErrNoGoalPiece
	}

	return b, nil
}

func (b *Board) Width() int     { return b.width }
func (b *Board) Height() int    { return b.height }
func (b *Board) Exit() Position { return b.exit }

// Grid returns a copy of the occupancy grid
func (b *Board) Grid() *Grid {
	return b.grid.Clone()
}

// Piece returns a copy of the piece with the given id
func (b *Board) Piece(id PieceID) (Piece, error) {
	p, err := b.lookup(id)
	if err != nil {
		return Piece{}, err
	}
	return *p, nil
}

// Pieces returns copies of all pieces in construction order
func (b *Board) Pieces() []Piece {
	result := make([]Piece, len(b.pieces))
	for i, p := range b.pieces {
		result[i] = *p
	}
	return result
}

// GoalPiece returns a copy of the goal piece
func (b *Board) GoalPiece() Piece {
	return *b.mustGoal()
}

func (b *Board) lookup(id PieceID) (*Piece, error) {
	p, ok := b.index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPieceNotFound, id)
	}
	return p, nil
}

// Place marks every cell of the piece footprint with its id. Must be paired
// with a preceding Clear around any position change.
func (b *Board) Place(id PieceID) error {
	p, err := b.lookup(id)
	if err != nil {
		return err
	}
	b.place(p)
	return nil
}

// Clear empties every cell of the piece footprint
func (b *Board) Clear(id PieceID) error {
	p, err := b.lookup(id)
	if err != nil {
		return err
	}
	b.grid.fill(p, false)
	return nil
}

func (b *Board) place(p *Piece) {
	b.grid.fill(p, true)
	if b.layout != nil {
		b.positions[p.ID] = b.layout.PieceRect(*p)
	}
}

// Move relocates a piece. Legality is the caller's responsibility: no
// collision check happens here and a misuse silently overwrites other cells.
func (b *Board) Move(id PieceID, row, col int) error {
	p, err := b.lookup(id)
	if err != nil {
		return err
	}
	b.grid.fill(p, false)
	p.Col = col
	p.Row = row
	b.place(p)
	return nil
}

// commit applies a set of relative moves atomically: every footprint is
// cleared before any piece is re-placed, so chains never claim a cell twice.
func (b *Board) commit(deltas map[PieceID]Position) ([]PieceMove, error) {
	touched := make([]*Piece, 0, len(deltas))
	for _, p := range b.pieces {
		if _, ok := deltas[p.ID]; ok {
			touched = append(touched, p)
		}
	}
	if len(touched) != len(deltas) {
		for id := range deltas {
			if _, err := b.lookup(id); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range touched {
		b.grid.fill(p, false)
	}

	var moves []PieceMove
	for _, p := range touched {
		d := deltas[p.ID]
		from := p.Position()
		p.Col += d.Col
		p.Row += d.Row
		if d.Col != 0 || d.Row != 0 {
			moves = append(moves, PieceMove{ID: p.ID, From: from, To: p.Position()})
		}
	}

	for _, p := range touched {
		b.place(p)
	}
	return moves, nil
}

// IsSolved reports whether the goal piece sits on the exit cell. A board
// without a goal piece is a construction bug and panics with ErrNoGoalPiece.
func (b *Board) IsSolved() bool {
	g := b.mustGoal()
	return g.Row == b.exit.Row && g.Col == b.exit.Col
}

func (b *Board) mustGoal() *Piece {
	if b.goal == nil {
		panic(ErrNoGoalPiece)
	}
	return b.goal
}

// Resize recomputes the layout transform and every piece rectangle
func (b *Board) Resize(vp Viewport) (Layout, error) {
	layout, err := ComputeLayout(b.width, b.height, vp)
	if err != nil {
		return Layout{}, err
	}
	b.layout = &layout
	for _, p := range b.pieces {
		b.positions[p.ID] = layout.PieceRect(*p)
	}
	return layout, nil
}

// Layout returns the current layout transform, if the board has been sized
func (b *Board) Layout() (Layout, bool) {
	if b.layout == nil {
		return Layout{}, false
	}
	return *b.layout, true
}

// CurrentRectangle returns the cached pixel rectangle of a piece
func (b *Board) CurrentRectangle(id PieceID) (Rect, error) {
	if _, err := b.lookup(id); err != nil {
		return Rect{}, err
	}
	if b.layout == nil {
		return Rect{}, ErrNotSized
	}
	return b.positions[id], nil
}

// Positions returns a copy of the pixel rectangle cache
func (b *Board) Positions() map[PieceID]Rect {
	if b.layout == nil {
		return nil
	}
	result := make(map[PieceID]Rect, len(b.positions))
	for id, r := range b.positions {
		result[id] = r
	}
	return result
}

// PieceAt returns the first piece, in construction order, whose current
// rectangle contains the point.
func (b *Board) PieceAt(x, y float64) (PieceID, bool) {
	if b.layout == nil {
		return NoPiece, false
	}
	for _, p := range b.pieces {
		if b.positions[p.ID].Contains(x, y) {
			return p.ID, true
		}
	}
	return NoPiece, false
}

// CheckConsistency verifies the occupancy invariants: every footprint cell
// holds its piece id and no cell is claimed by an id whose piece does not cover it.
func (b *Board) CheckConsistency() error {
	claimed := 0
	for _, p := range b.pieces {
		if p.Col < 0 || p.Row < 0 || p.Col+p.Width > b.width || p.Row+p.Height > b.height {
			return fmt.Errorf("%w: piece %d", ErrPieceOutOfBounds, p.ID)
		}
		for r := p.Row; r < p.Row+p.Height; r++ {
			for c := p.Col; c < p.Col+p.Width; c++ {
				if got := b.grid.At(c, r); got != p.ID {
					return fmt.Errorf("%w: cell (%d,%d) holds %d, expected %d", ErrPieceOverlap, c, r, got, p.ID)
				}
				claimed++
			}
		}
	}
	occupied := 0
	for _, id := range b.grid.cells {
		if id != NoPiece {
			occupied++
		}
	}
	if occupied != claimed {
		return fmt.Errorf("%w: %d occupied cells for %d footprint cells", ErrPieceOverlap, occupied, claimed)
	}
	return nil
}

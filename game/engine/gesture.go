package engine

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrGestureActive = errors.New("a gesture is already in progress")
	ErrPuzzleSolved  = errors.New("puzzle already solved")
)

// GestureState is the phase of the pointer interaction
type GestureState int

const (
	GestureIdle GestureState = iota
	// GestureUndetermined: pointer is down on a piece but no axis is locked yet
	GestureUndetermined
	GestureDragging
)

func (s GestureState) String() string {
	switch s {
	case GestureUndetermined:
		return "undetermined"
	case GestureDragging:
		return "dragging"
	}
	return "idle"
}

// GestureSnapshot is a read-only view of the active gesture
type GestureSnapshot struct {
	State   string     `json:"state"`
	PieceID PieceID    `json:"piece_id"`
	Axis    string     `json:"axis"`
	Limits  DragLimits `json:"limits,omitempty"`
}

// Controller turns pointer events into atomic grid updates. It is not safe
// for concurrent use; callers serialize input events.
type Controller struct {
	board     *Board
	threshold float64
	push      bool
	onSolved  func()
	fired     bool

	state  GestureState
	piece  PieceID
	startX float64
	startY float64
	axis   Axis
	limits DragLimits
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithThreshold overrides the axis-lock distance in pixels
func WithThreshold(px float64) ControllerOption {
	return func(c *Controller) { c.threshold = px }
}

// WithPush enables or disables pushing chains of pieces
func WithPush(enabled bool) ControllerOption {
	return func(c *Controller) { c.push = enabled }
}

// WithSolvedHandler registers the callback fired on the first commit that solves the puzzle
func WithSolvedHandler(fn func()) ControllerOption {
	return func(c *Controller) { c.onSolved = fn }
}

// NewController creates an idle gesture controller for the board
func NewController(board *Board, opts ...ControllerOption) *Controller {
	c := &Controller{
		board:     board,
		threshold: DragThreshold,
		push:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSolvedHandler replaces the solved callback
func (c *Controller) SetSolvedHandler(fn func()) {
	c.onSolved = fn
}

// State returns the current gesture phase
func (c *Controller) State() GestureState {
	return c.state
}

// Begin starts a gesture at the pointer position. It returns false when no
// piece is under the pointer, the puzzle is already solved, or another
// gesture is still active.
func (c *Controller) Begin(x, y float64) bool {
	if c.state != GestureIdle || c.board.IsSolved() {
		return false
	}
	id, ok := c.board.PieceAt(x, y)
	if !ok {
		return false
	}
	c.state = GestureUndetermined
	c.piece = id
	c.startX, c.startY = x, y
	c.axis = AxisNone
	c.limits = nil
	return true
}

// Update feeds a pointer move. The first move beyond the threshold locks the
// axis and computes the drag limits; every move while dragging clamps the
// displacement into them. The grid is never touched here.
func (c *Controller) Update(x, y float64) error {
	if c.state == GestureIdle {
		return nil
	}
	dx, dy := x-c.startX, y-c.startY

	if c.state == GestureUndetermined {
		var axis Axis
		if math.Abs(dx) > math.Abs(dy) {
			if math.Abs(dx) <= c.threshold {
				return nil
			}
			axis = Horizontal
		} else {
			if math.Abs(dy) <= c.threshold {
				return nil
			}
			axis = Vertical
		}

		limits, err := c.board.DragLimits(c.piece, axis, c.push)
		if err != nil {
			c.reset()
			return fmt.Errorf("failed to compute drag limits: %w", err)
		}
		c.axis = axis
		c.limits = limits
		c.state = GestureDragging
	}

	for _, l := range c.limits {
		l.Apply(dx, dy)
	}
	return nil
}

// End releases the pointer and commits the quantized positions
func (c *Controller) End() (CommitResult, error) {
	return c.commitGesture()
}

// Cancel behaves exactly like End: the best-effort position is committed
func (c *Controller) Cancel() (CommitResult, error) {
	return c.commitGesture()
}

func (c *Controller) commitGesture() (CommitResult, error) {
	defer c.reset()

	if c.state != GestureDragging || len(c.limits) == 0 {
		return CommitResult{Solved: c.board.IsSolved()}, nil
	}

	layout, ok := c.board.Layout()
	if !ok {
		return CommitResult{}, ErrNotSized
	}

	deltas := make(map[PieceID]Position, len(c.limits))
	for id, l := range c.limits {
		dx, dy := l.Displacement()
		deltas[id] = Position{Col: layout.StepsFor(dx), Row: layout.StepsFor(dy)}
	}
	return c.finish(deltas)
}

// Slide moves a piece, and every piece it pushes, a whole number of steps
// without pointer input. The move must be within the chain step count.
func (c *Controller) Slide(id PieceID, dir Direction, steps int) (CommitResult, error) {
	if c.state != GestureIdle {
		return CommitResult{}, ErrGestureActive
	}
	if c.board.IsSolved() {
		return CommitResult{}, ErrPuzzleSolved
	}
	if steps < 1 {
		return CommitResult{}, fmt.Errorf("%w: steps must be positive, got %d", ErrIllegalMove, steps)
	}

	limit, touched, err := c.board.ChainStepCount([]PieceID{id}, dir, c.push)
	if err != nil {
		return CommitResult{}, err
	}
	if steps > limit {
		return CommitResult{}, fmt.Errorf("%w: piece %d can move at most %d step(s) %s, requested %d",
			ErrIllegalMove, id, limit, dir, steps)
	}

	dc, dr := dir.Delta()
	deltas := make(map[PieceID]Position, len(touched))
	for pid := range touched {
		deltas[pid] = Position{Col: dc * steps, Row: dr * steps}
	}
	return c.finish(deltas)
}

// finish commits the deltas and fires the solved handler on the first
// commit that moves the goal piece onto the exit.
func (c *Controller) finish(deltas map[PieceID]Position) (CommitResult, error) {
	moves, err := c.board.commit(deltas)
	if err != nil {
		return CommitResult{}, err
	}

	result := CommitResult{
		Moved:  len(moves) > 0,
		Pieces: moves,
		Solved: c.board.IsSolved(),
	}
	if result.Moved && result.Solved && !c.fired {
		c.fired = true
		result.NewlySolved = true
		if c.onSolved != nil {
			c.onSolved()
		}
	}
	return result, nil
}

// MovingRectangle returns the live rectangle of a piece: its drag position
// while a gesture moves it, its committed position otherwise.
func (c *Controller) MovingRectangle(id PieceID) (Rect, error) {
	if l, ok := c.limits[id]; ok {
		return l.Moving, nil
	}
	return c.board.CurrentRectangle(id)
}

// Snapshot returns the active gesture, or nil when idle
func (c *Controller) Snapshot() *GestureSnapshot {
	if c.state == GestureIdle {
		return nil
	}
	var limits DragLimits
	if c.limits != nil {
		limits = make(DragLimits, len(c.limits))
		for id, l := range c.limits {
			copied := *l
			limits[id] = &copied
		}
	}
	return &GestureSnapshot{
		State:   c.state.String(),
		PieceID: c.piece,
		Axis:    c.axis.String(),
		Limits:  limits,
	}
}

// reset drops all transient drag state
func (c *Controller) reset() {
	c.state = GestureIdle
	c.piece = NoPiece
	c.startX, c.startY = 0, 0
	c.axis = AxisNone
	c.limits = nil
}

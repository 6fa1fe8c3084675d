package engine

import "fmt"

// DragLimit is the per-piece drag context of a gesture: the piece rectangle
// at gesture start, the live moving rectangle and the allowed pixel offset
// on each axis.
type DragLimit struct {
	Start  Rect    `json:"start"`
	Moving Rect    `json:"moving"`
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
	MinY   float64 `json:"min_y"`
	MaxY   float64 `json:"max_y"`
}

// Apply clamps a raw pointer displacement into the limits and moves the
// live rectangle accordingly.
func (d *DragLimit) Apply(dx, dy float64) {
	d.Moving = d.Start.Offset(clamp(dx, d.MinX, d.MaxX), clamp(dy, d.MinY, d.MaxY))
}

// Displacement returns how far the moving rectangle is from its start
func (d *DragLimit) Displacement() (dx, dy float64) {
	return d.Moving.Left - d.Start.Left, d.Moving.Top - d.Start.Top
}

// DragLimits maps every piece that may move during a gesture to its limits
type DragLimits map[PieceID]*DragLimit

// DragLimits runs the chain engine, with pushing, in both directions of the
// axis and turns the step counts into pixel bounds. Pieces that cannot move
// either way are absent from the result.
func (b *Board) DragLimits(id PieceID, axis Axis, push bool) (DragLimits, error) {
	if _, err := b.lookup(id); err != nil {
		return nil, err
	}
	if b.layout == nil {
		return nil, ErrNotSized
	}

	var toOrigin, awayFromOrigin Direction
	switch axis {
	case Horizontal:
		toOrigin, awayFromOrigin = Left, Right
	case Vertical:
		toOrigin, awayFromOrigin = Up, Down
	default:
		return nil, fmt.Errorf("%w: axis %s", ErrInvalidDirection, axis)
	}

	limits := make(DragLimits)
	pitch := b.layout.Pitch()

	_, negative, err := b.ChainStepCount([]PieceID{id}, toOrigin, push)
	if err != nil {
		return nil, err
	}
	b.foldLimits(limits, negative, func(l *DragLimit, offset float64) {
		if axis == Horizontal {
			l.MinX -= offset
		} else {
			l.MinY -= offset
		}
	}, pitch)

	_, positive, err := b.ChainStepCount([]PieceID{id}, awayFromOrigin, push)
	if err != nil {
		return nil, err
	}
	b.foldLimits(limits, positive, func(l *DragLimit, offset float64) {
		if axis == Horizontal {
			l.MaxX += offset
		} else {
			l.MaxY += offset
		}
	}, pitch)

	return limits, nil
}

func (b *Board) foldLimits(limits DragLimits, steps StepMap, op func(*DragLimit, float64), pitch float64) {
	for id, n := range steps {
		if n == 0 {
			continue
		}
		l, ok := limits[id]
		if !ok {
			start := b.positions[id]
			l = &DragLimit{Start: start, Moving: start}
			limits[id] = l
		}
		op(l, float64(n)*pitch)
	}
}

package engine

import (
	"errors"
	"fmt"
	"math"
)

// Default viewport decorations: the exit marker (50px) plus its spacing (20px)
// is reserved below the board, the title area above it.
const (
	DefaultPadding        = 20.0
	DefaultSpacing        = 10.0
	DefaultReservedBottom = 70.0
	DefaultReservedTop    = 120.0
)

var ErrViewportTooSmall = errors.New("viewport too small for board")

// Viewport describes the drawing surface the board is fitted into
type Viewport struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Padding        float64 `json:"padding"`
	Spacing        float64 `json:"spacing"`
	ReservedBottom float64 `json:"reserved_bottom"`
	ReservedTop    float64 `json:"reserved_top"`
}

// DefaultViewport returns a viewport of the given size with the stock decorations
func DefaultViewport(width, height float64) Viewport {
	return Viewport{
		Width:          width,
		Height:         height,
		Padding:        DefaultPadding,
		Spacing:        DefaultSpacing,
		ReservedBottom: DefaultReservedBottom,
		ReservedTop:    DefaultReservedTop,
	}
}

// Layout maps grid coordinates to pixel rectangles
type Layout struct {
	Viewport    Viewport `json:"viewport"`
	Cols        int      `json:"cols"`
	Rows        int      `json:"rows"`
	CellSize    float64  `json:"cell_size"`
	OffsetX     float64  `json:"offset_x"`
	OffsetY     float64  `json:"offset_y"`
	BoardWidth  float64  `json:"board_width"`
	BoardHeight float64  `json:"board_height"`
	Bounds      Rect     `json:"bounds"`
}

// ComputeLayout fits a cols x rows board into the viewport with the largest
// uniform cell size and centers it in the available space.
func ComputeLayout(cols, rows int, vp Viewport) (Layout, error) {
	if cols < 1 || rows < 1 {
		return Layout{}, fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, cols, rows)
	}

	spaceWidth := vp.Width - vp.Padding*2
	spaceHeight := vp.Height - vp.ReservedBottom - vp.ReservedTop - vp.Spacing - vp.Padding*2

	maxCellWidth := (spaceWidth - float64(cols-1)*vp.Spacing) / float64(cols)
	maxCellHeight := (spaceHeight - float64(rows-1)*vp.Spacing) / float64(rows)
	cellSize := math.Min(maxCellWidth, maxCellHeight)
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return Layout{}, fmt.Errorf("%w: %.0fx%.0f", ErrViewportTooSmall, vp.Width, vp.Height)
	}

	boardWidth := float64(cols)*cellSize + float64(cols-1)*vp.Spacing
	boardHeight := float64(rows)*cellSize + float64(rows-1)*vp.Spacing
	offsetX := (spaceWidth-boardWidth)/2 + vp.Padding
	offsetY := (spaceHeight-boardHeight)/2 + vp.Padding + vp.ReservedTop

	return Layout{
		Viewport:    vp,
		Cols:        cols,
		Rows:        rows,
		CellSize:    cellSize,
		OffsetX:     offsetX,
		OffsetY:     offsetY,
		BoardWidth:  boardWidth,
		BoardHeight: boardHeight,
		Bounds:      NewRect(offsetX, offsetY, boardWidth, boardHeight),
	}, nil
}

// Pitch is the pixel distance between the origins of two adjacent cells
func (l Layout) Pitch() float64 {
	return l.CellSize + l.Viewport.Spacing
}

// CellRect returns the pixel rectangle covering a block of cells
func (l Layout) CellRect(col, row, cols, rows int) Rect {
	x := l.OffsetX + float64(col)*l.Pitch()
	y := l.OffsetY + float64(row)*l.Pitch()
	w := l.CellSize*float64(cols) + float64(cols-1)*l.Viewport.Spacing
	h := l.CellSize*float64(rows) + float64(rows-1)*l.Viewport.Spacing
	return NewRect(x, y, w, h)
}

// PieceRect returns the pixel rectangle of a piece at its current cell
func (l Layout) PieceRect(p Piece) Rect {
	return l.CellRect(p.Col, p.Row, p.Width, p.Height)
}

// StepsFor quantizes a pixel displacement into whole grid steps. The
// magnitude is rounded half-up (math.Round on a non-negative value) and the
// sign of the displacement is re-applied.
func (l Layout) StepsFor(displacement float64) int {
	steps := int(math.Round(math.Abs(displacement) / l.Pitch()))
	if displacement < 0 {
		return -steps
	}
	return steps
}

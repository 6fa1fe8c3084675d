package engine

import "strings"

// Grid is the cell -> piece occupancy array of a board, stored row-major
type Grid struct {
	width  int
	height int
	cells  []PieceID
}

// NewGrid creates an empty grid of the given size
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]PieceID, width*height),
	}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether the cell lies on the grid
func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && col < g.width && row >= 0 && row < g.height
}

// At returns the piece occupying a cell, or NoPiece for empty and out-of-range cells
func (g *Grid) At(col, row int) PieceID {
	if !g.InBounds(col, row) {
		return NoPiece
	}
	return g.cells[row*g.width+col]
}

func (g *Grid) set(col, row int, id PieceID) {
	g.cells[row*g.width+col] = id
}

// fill marks (or unmarks) every cell under the piece footprint
func (g *Grid) fill(p *Piece, on bool) {
	id := NoPiece
	if on {
		id = p.ID
	}
	for r := p.Row; r < p.Row+p.Height; r++ {
		for c := p.Col; c < p.Col+p.Width; c++ {
			g.set(c, r, id)
		}
	}
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([]PieceID, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// Equal reports whether two grids hold identical occupancy
func (g *Grid) Equal(other *Grid) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Rows renders the grid as one string per row, '.' for empty cells and a
// base-36 digit per piece (ids above 35 render as '#').
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	for r := 0; r < g.height; r++ {
		var sb strings.Builder
		for c := 0; c < g.width; c++ {
			sb.WriteByte(cellChar(g.At(c, r)))
		}
		rows[r] = sb.String()
	}
	return rows
}

func cellChar(id PieceID) byte {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	switch {
	case id == NoPiece:
		return '.'
	case id > 0 && int(id) < len(digits):
		return digits[id]
	}
	return '#'
}

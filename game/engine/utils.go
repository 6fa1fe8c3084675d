package engine

import "sort"

// Recognized piece footprints
const (
	ShapeSmall      = "1x1"
	ShapeVertical   = "1x2"
	ShapeHorizontal = "2x1"
	ShapeLarge      = "2x2"
)

// IsStandardShape reports whether a footprint is one of the four classic shapes
func IsStandardShape(p Piece) bool {
	switch p.Shape() {
	case ShapeSmall, ShapeVertical, ShapeHorizontal, ShapeLarge:
		return true
	}
	return false
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Position) int {
	return abs(from.Col-to.Col) + abs(from.Row-to.Row)
}

// ExitDistance returns how many cells separate the goal piece from the exit
func ExitDistance(b *Board) int {
	return ManhattanDistance(b.GoalPiece().Position(), b.Exit())
}

// CountShapes counts pieces per footprint, keyed by "WxH"
func CountShapes(pieces []Piece) map[string]int {
	counts := make(map[string]int)
	for _, p := range pieces {
		counts[p.Shape()]++
	}
	return counts
}

// FreeCells counts the empty cells of the board
func FreeCells(b *Board) int {
	count := 0
	for _, id := range b.grid.cells {
		if id == NoPiece {
			count++
		}
	}
	return count
}

// MovablePieces returns the ids of pieces with at least one legal move, ascending
func MovablePieces(b *Board, push bool) []PieceID {
	seen := make(map[PieceID]bool)
	for _, option := range b.PossibleMoves(push) {
		seen[option.PieceID] = true
	}
	ids := make([]PieceID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

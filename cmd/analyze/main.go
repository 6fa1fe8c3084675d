// Command analyze prints quick, human-readable heuristics about the level
// files in the project's configs directory. It summarizes dimensions, piece
// shapes, free cells, how far the goal piece sits from the exit, and the
// opening moves available from the starting layout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/klotski/game/engine"
)

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeConfig(os.Stdout, file); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func analyzeConfig(w io.Writer, path string) error {
	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	board, err := engine.NewBoardFromConfig(level)
	if err != nil {
		return fmt.Errorf("building board: %w", err)
	}

	fmt.Fprintf(w, "Name: %s\n", level.Name)
	fmt.Fprintf(w, "Board: %d x %d\n", level.Width, level.Height)
	fmt.Fprintf(w, "Pushing: %v\n", level.PushEnabled())

	counts := engine.CountShapes(level.Pieces)
	shapes := make([]string, 0, len(counts))
	for shape := range counts {
		shapes = append(shapes, shape)
	}
	sort.Strings(shapes)
	fmt.Fprintf(w, "Pieces: %d\n", len(level.Pieces))
	for _, shape := range shapes {
		fmt.Fprintf(w, "  %s: %d\n", shape, counts[shape])
	}

	fmt.Fprintf(w, "Free Cells: %d\n", engine.FreeCells(board))

	goal := board.GoalPiece()
	fmt.Fprintf(w, "Goal: piece %d at (%d, %d), exit at (%d, %d), distance %d\n",
		goal.ID, goal.Col, goal.Row, level.Exit.Col, level.Exit.Row, engine.ExitDistance(board))

	for _, row := range board.Grid().Rows() {
		fmt.Fprintf(w, "  %s\n", row)
	}

	moves := board.PossibleMoves(level.PushEnabled())
	if len(moves) == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: no piece can move from the starting layout!\n")
		return nil
	}

	fmt.Fprintf(w, "Opening Moves: %d\n", len(moves))
	for _, m := range moves {
		fmt.Fprintf(w, "  piece %d %s x%d", m.PieceID, m.Direction, m.MaxSteps)
		if len(m.Pushes) > 0 {
			fmt.Fprintf(w, " (pushes %v)", m.Pushes)
		}
		fmt.Fprintln(w)
	}

	movable := engine.MovablePieces(board, level.PushEnabled())
	fmt.Fprintf(w, "Movable Pieces: %v\n", movable)

	if board.IsSolved() {
		fmt.Fprintf(w, "⚠️  WARNING: level starts solved\n")
	} else {
		fmt.Fprintf(w, "✅ Goal piece needs to travel %d cells\n", engine.ExitDistance(board))
	}
	return nil
}

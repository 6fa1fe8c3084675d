// Command validate provides a small CLI that validates level JSON files in the
// ../configs directory (or the directory given as the first argument). It checks:
//   - JSON structure and required fields
//   - Board construction: bounds, overlaps and a single goal piece
//   - Exit placement and that the level does not start solved
//   - That at least one piece can move from the starting layout
//   - Required message keys (welcome, solved)
//
// Pieces with footprints other than 1x1, 1x2, 2x1 and 2x2 are reported as
// warnings; they are legal but unusual.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/klotski/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single level JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var level engine.LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateLevelConfig(&level); err != nil {
		result.fail("%v", err)
		return result
	}

	if level.Messages.Blocked == "" {
		result.Warnings = append(result.Warnings, "No blocked message: illegal moves keep the previous message")
	}

	result.Warnings = append(result.Warnings, shapeWarnings(level.Pieces)...)

	board, err := engine.NewBoardFromConfig(&level)
	if err != nil {
		result.fail("Board construction failed: %v", err)
		return result
	}

	if board.IsSolved() {
		result.fail("Level starts solved: goal piece already rests on the exit (%d,%d)", level.Exit.Col, level.Exit.Row)
	}

	movable := engine.MovablePieces(board, level.PushEnabled())
	if len(movable) == 0 {
		result.fail("No piece can move from the starting layout")
	}

	// Add informational data
	if result.Valid {
		goal := board.GoalPiece()
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", level.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %dx%d", level.Width, level.Height))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Pieces: %d", len(level.Pieces)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Goal: piece %d (%s) at (%d,%d)", goal.ID, goal.Shape(), goal.Col, goal.Row))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Exit: (%d,%d), %d cells away", level.Exit.Col, level.Exit.Row, engine.ExitDistance(board)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Free cells: %d", engine.FreeCells(board)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Movable pieces: %d", len(movable)))
	}

	return result
}

// shapeWarnings lists pieces whose footprint is not one of the classic four
func shapeWarnings(pieces []engine.Piece) []string {
	var warnings []string
	for _, p := range pieces {
		if !engine.IsStandardShape(p) {
			warnings = append(warnings, fmt.Sprintf("Piece %d has unusual shape %s", p.ID, p.Shape()))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// main scans the configs directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No level files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}

// Package config provides level management for the sliding-block puzzle.
//
// The config package handles:
//   - Loading levels from JSON files
//   - Level validation
//   - Default level selection
//   - Level discovery and listing
//
// Level Format:
//
// Levels are stored as JSON files in the configs directory. Each level
// defines:
//   - Board width and height in cells
//   - The exit cell where the goal piece's top-left corner must land
//   - Every piece with its id, top-left cell, size, and the goal flag
//   - Whether pieces may push their neighbours (allow_push, default true)
//   - Messages for welcome, solved, and blocked moves
//
// Available Levels:
//   - classic: the stock 4x5 opening
//   - easy: a short warm-up with few pieces
//   - hengdao: a harder layout played without pushing
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("easy")
//	defaultLevel := manager.GetDefault()
//	levels, err := manager.ListConfigs()
//
// Validation:
//
// Every level is checked with engine.ValidateLevelConfig before it is cached
// or saved: dimensions, piece bounds and overlap, exactly one goal piece, and
// an exit the goal piece fits on.
package config

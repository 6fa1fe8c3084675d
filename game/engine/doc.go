// Package engine provides the core logic of the sliding-block puzzle.
//
// The engine package implements:
//   - The occupancy grid and piece placement
//   - Single-piece and chained (pushing) movement legality
//   - Pixel layout of the board inside a viewport
//   - The pointer gesture state machine that turns drags into grid moves
//   - Level configuration loading and validation
//
// Core Types:
//
// Board owns the pieces and the occupancy grid. Controller drives a single
// gesture at a time against a Board. The Engine interface, implemented by
// GameEngine, bundles both with a LevelConfig, a move history and the
// serializable GameState.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Resize(engine.DefaultViewport(800, 1000))
//	if gameEngine.BeginGesture(x, y) {
//		gameEngine.UpdateGesture(x, y+120)
//		result, _ := gameEngine.EndGesture()
//		fmt.Println(result.Solved)
//	}
//
// Rules:
//
// Pieces slide along one axis at a time and never overlap. A piece blocked by
// others pushes them along when the level allows it. The puzzle is solved
// once the goal piece's top-left cell reaches the exit cell.
package engine

// Package mcp provides a Model Context Protocol server for the sliding-block puzzle.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for puzzle operations
//   - A thin proxy onto the REST API
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - board_state: Get the board drawn one row per line
//   - slide: Slide one piece by whole cells
//   - possible_moves: List every legal slide
//   - reset_game: Reset the puzzle to its starting layout
//   - move_history: Retrieve move history with pagination
//   - create_session: Create a new session with level selection
//   - get_session: Get specific session details
//   - list_sessions: List all active sessions
//   - list_levels: List available levels
//   - game_instructions: Get the rules
//   - describe_cell: Explain what covers a single cell
//
// Every tool call becomes one HTTP request against the API server, so the
// MCP process holds no puzzle state of its own. Pointer gestures are not
// exposed; agents move pieces with discrete slides.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

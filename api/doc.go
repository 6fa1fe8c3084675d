// Package api provides HTTP REST API handlers for the sliding-block puzzle.
//
// The api package implements:
//   - Session management endpoints
//   - Pointer gesture and discrete slide endpoints
//   - Level listing, loading and saving
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Layout and Gestures:
//   - POST /api/sessions/{id}/resize - Fit the board into a viewport
//   - POST /api/sessions/{id}/gesture/begin - Press at {"x", "y"}
//   - POST /api/sessions/{id}/gesture/move - Drag to {"x", "y"}
//   - POST /api/sessions/{id}/gesture/end - Release and commit
//   - POST /api/sessions/{id}/gesture/cancel - Abort; commits like end
//   - GET /api/sessions/{id}/pieces/{piece}/rect - Live rectangle of a piece
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/slide - {"piece_id": 3, "direction": "left", "steps": 1, "reset": false}
//   - POST /api/sessions/{id}/reset - Restore the starting layout
//   - GET /api/sessions/{id}/history - Paginated move history (?page&limit&order)
//   - GET /api/sessions/{id}/moves - Every legal slide from here
//
// Configuration:
//   - GET /api/configs - List levels
//   - GET /api/configs/{name} - Load a level
//   - POST /api/configs - Validate and save a level
//
// WebSocket:
//   - GET /ws?session={id} - Live state, gesture and solved events
//
// Error Handling:
//
// Errors are returned as {"error": "message"} with a status derived from
// the error: 404 for unknown sessions, pieces and levels, 400 for bad
// directions, viewports and levels, 409 when the board is not sized or a
// gesture is active. A blocked slide is not an error; it answers 200 with
// "success": false.
package api

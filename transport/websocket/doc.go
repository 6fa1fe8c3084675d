// Package websocket provides WebSocket transport for the sliding-block puzzle.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every committed move
//   - Live gesture broadcasting while a piece is dragged
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns every connection. Registration, removal and broadcasts
// all pass through the Hub's Run loop; each client has a read goroutine that
// keeps the connection alive and a write goroutine that drains its queue.
//
// Message Protocol:
//
// Clients only listen. Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "gesture", "data": {...}}
//	{"session_id": "ab12", "event": "solved", "data": [...]}
//
// Several queued messages may arrive in one frame separated by newlines.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//	hub.BroadcastToSession(sessionID, state)
package websocket

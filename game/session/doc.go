// Package session provides session management for the sliding-block puzzle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Optional JSON file persistence of boards, history, and layout
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine, so moves in one session never
// affect another.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand and are retried until
// unused. Lookups are case-insensitive.
//
// Persistence:
//
// FilePersistence writes one JSON file per session holding the level, the
// full game state and the last viewport. Loading rebuilds the engine from
// the stored pieces and re-applies the viewport, so a restored session
// accepts pointer input without another resize.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", level)
//	sess, err = manager.Get(sess.ID)
package session

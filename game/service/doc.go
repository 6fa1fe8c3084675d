// Package service provides the business logic layer for the sliding-block puzzle.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Configuration management and loading
//   - Gesture and slide processing
//   - Move history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. It serializes all input for a session behind one lock, since the
// engine itself is single-threaded, and persists the session after every
// state change.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Slide(ctx, info.ID, service.SlideRequest{
//		PieceID: 3, Direction: "left", Steps: 1,
//	})
package service

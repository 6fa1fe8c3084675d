package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/klotski/game/config"
	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
	"github.com/wricardo/klotski/game/session"
	"github.com/wricardo/klotski/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Layout and pointer input
	api.HandleFunc("/sessions/{id}/resize", s.handleResize).Methods("POST")
	api.HandleFunc("/sessions/{id}/gesture/begin", s.handleGestureBegin).Methods("POST")
	api.HandleFunc("/sessions/{id}/gesture/move", s.handleGestureMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/gesture/end", s.handleGestureEnd).Methods("POST")
	api.HandleFunc("/sessions/{id}/gesture/cancel", s.handleGestureCancel).Methods("POST")
	api.HandleFunc("/sessions/{id}/pieces/{piece}/rect", s.handleGetPieceRect).Methods("GET")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/slide", s.handleSlide).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handleGetPossibleMoves).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and engine errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, engine.ErrPieceNotFound),
		strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, engine.ErrViewportTooSmall),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotSized),
		errors.Is(err, engine.ErrGestureActive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// broadcastResult pushes the new state, and the solved event when there is
// one, to every client watching the session
func (s *Server) broadcastResult(sessionID string, result *service.MoveResult) {
	if s.hub == nil || result == nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, result.GameState)
	for _, ev := range result.Events {
		if ev.Type == service.EventSolved {
			s.hub.BroadcastEvent(sessionID, service.EventSolved, result.Events)
			break
		}
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

// listQuery holds the sort, order, level filter and limit of GET /api/sessions
type listQuery struct {
	sortBy string // "accessed" or "created"
	order  string // "desc" or "asc"
	level  string
	limit  int
}

func parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()
	lq := listQuery{sortBy: "accessed", order: "desc", level: q.Get("config")}
	if q.Get("sort") == "created" {
		lq.sortBy = "created"
	}
	if q.Get("order") == "asc" {
		lq.order = "asc"
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		lq.limit = l
	}
	return lq
}

func (lq listQuery) apply(sessions []*service.SessionInfo) []*service.SessionInfo {
	if lq.level != "" {
		kept := sessions[:0]
		for _, info := range sessions {
			if info.ConfigName == lq.level {
				kept = append(kept, info)
			}
		}
		sessions = kept
	}

	stamp := func(info *service.SessionInfo) time.Time {
		if lq.sortBy == "created" {
			return info.CreatedAt
		}
		return info.LastAccessedAt
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if lq.order == "asc" {
			return stamp(sessions[i]).Before(stamp(sessions[j]))
		}
		return stamp(sessions[i]).After(stamp(sessions[j]))
	})
	return sessions
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lq := parseListQuery(r)
	sessions = lq.apply(sessions)
	total := len(sessions)
	if lq.limit > 0 && lq.limit < total {
		sessions = sessions[:lq.limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     lq.sortBy,
		"order":    lq.order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Layout and Gesture Handlers

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var viewport engine.Viewport
	if err := json.NewDecoder(r.Body).Decode(&viewport); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.Resize(r.Context(), sessionID, viewport)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
	respondJSON(w, http.StatusOK, state)
}

type pointerRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func decodePointer(r *http.Request) (float64, float64, error) {
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, 0, err
	}
	if req.X == nil || req.Y == nil {
		return 0, 0, fmt.Errorf("x and y are required")
	}
	return *req.X, *req.Y, nil
}

func (s *Server) handleGestureBegin(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	x, y, err := decodePointer(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.service.BeginGesture(r.Context(), sessionID, x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGestureMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	x, y, err := decodePointer(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.service.UpdateGesture(r.Context(), sessionID, x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil && result.Gesture != nil && len(result.Gesture.Limits) > 0 {
		s.hub.BroadcastEvent(sessionID, websocket.EventGesture, result.Gesture)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGestureEnd(w http.ResponseWriter, r *http.Request) {
	s.finishGesture(w, r, "end", s.service.EndGesture)
}

func (s *Server) handleGestureCancel(w http.ResponseWriter, r *http.Request) {
	s.finishGesture(w, r, "cancel", s.service.CancelGesture)
}

func (s *Server) finishGesture(w http.ResponseWriter, r *http.Request, how string,
	fn func(ctx context.Context, sessionID string) (*service.MoveResult, error)) {
	sessionID := mux.Vars(r)["id"]

	result, err := fn(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)

	// Compact server log for observability
	fmt.Printf("[GESTURE] session=%s %s moved=%d solved=%v\n",
		sessionID, how, len(result.Pieces), result.Solved)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPieceRect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	pieceID, err := strconv.Atoi(vars["piece"])
	if err != nil || pieceID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid piece id")
		return
	}

	rect, err := s.service.GetPieceRect(r.Context(), sessionID, engine.PieceID(pieceID))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rect)
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.SlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PieceID <= 0 {
		respondError(w, http.StatusBadRequest, "piece_id is required")
		return
	}

	result, err := s.service.Slide(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)

	// Compact server log for observability
	status := "FAIL"
	if result.Success {
		status = "OK"
	}
	fmt.Printf("[SLIDE] session=%s piece=%d %s x%d moved=%d solved=%v status=%s\n",
		sessionID, req.PieceID, req.Direction, req.Steps, len(result.Pieces), result.Solved, status)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Puzzle reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetPossibleMoves(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	moves, err := s.service.GetPossibleMoves(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(moves),
		"moves": moves,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	level, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		engine.LevelConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.Name), " ", "_"))
	}

	level := req.LevelConfig
	if err := s.service.SaveConfig(r.Context(), configID, &level); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		respondError(w, status, fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

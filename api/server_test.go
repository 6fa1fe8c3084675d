package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gws "github.com/gorilla/websocket"
	"github.com/wricardo/klotski/game/config"
	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
	"github.com/wricardo/klotski/game/session"
	"github.com/wricardo/klotski/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Layout and pointer input
	ResizeFunc        func(ctx context.Context, sessionID string, viewport engine.Viewport) (*engine.GameState, error)
	BeginGestureFunc  func(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error)
	UpdateGestureFunc func(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error)
	EndGestureFunc    func(ctx context.Context, sessionID string) (*service.MoveResult, error)
	CancelGestureFunc func(ctx context.Context, sessionID string) (*service.MoveResult, error)
	GetPieceRectFunc  func(ctx context.Context, sessionID string, pieceID engine.PieceID) (engine.Rect, error)

	// Game Operations
	SlideFunc func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error)
	ResetFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc     func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetPossibleMovesFunc func(ctx context.Context, sessionID string) ([]engine.MoveOption, error)
	GetMoveHistoryFunc   func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, level *engine.LevelConfig) error
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Layout and pointer input
func (m *MockGameService) Resize(ctx context.Context, sessionID string, viewport engine.Viewport) (*engine.GameState, error) {
	if m.ResizeFunc != nil {
		return m.ResizeFunc(ctx, sessionID, viewport)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) BeginGesture(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error) {
	if m.BeginGestureFunc != nil {
		return m.BeginGestureFunc(ctx, sessionID, x, y)
	}
	return &service.GestureResult{}, nil
}

func (m *MockGameService) UpdateGesture(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error) {
	if m.UpdateGestureFunc != nil {
		return m.UpdateGestureFunc(ctx, sessionID, x, y)
	}
	return &service.GestureResult{}, nil
}

func (m *MockGameService) EndGesture(ctx context.Context, sessionID string) (*service.MoveResult, error) {
	if m.EndGestureFunc != nil {
		return m.EndGestureFunc(ctx, sessionID)
	}
	return &service.MoveResult{GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) CancelGesture(ctx context.Context, sessionID string) (*service.MoveResult, error) {
	if m.CancelGestureFunc != nil {
		return m.CancelGestureFunc(ctx, sessionID)
	}
	return &service.MoveResult{GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) GetPieceRect(ctx context.Context, sessionID string, pieceID engine.PieceID) (engine.Rect, error) {
	if m.GetPieceRectFunc != nil {
		return m.GetPieceRectFunc(ctx, sessionID, pieceID)
	}
	return engine.Rect{}, nil
}

// Game Operations
func (m *MockGameService) Slide(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
	if m.SlideFunc != nil {
		return m.SlideFunc(ctx, sessionID, req)
	}
	return &service.MoveResult{
		Success:   true,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetPossibleMoves(ctx context.Context, sessionID string) ([]engine.MoveOption, error) {
	if m.GetPossibleMovesFunc != nil {
		return m.GetPossibleMovesFunc(ctx, sessionID)
	}
	return []engine.MoveOption{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		TotalMoves: 0,
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.LevelConfig{
		Name:        configName,
		Description: "Test config",
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, level *engine.LevelConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, level)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

// routeCase drives one request through the full router
type routeCase struct {
	name   string
	method string
	path   string
	body   interface{}
	mock   func(*MockGameService)
	status int
	check  func(*testing.T, *httptest.ResponseRecorder)
}

func runRoutes(t *testing.T, cases []routeCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &MockGameService{}
			if tc.mock != nil {
				tc.mock(mock)
			}

			w := httptest.NewRecorder()
			setupTestServer(mock).ServeHTTP(w, makeRequest(tc.method, tc.path, tc.body))

			if w.Code != tc.status {
				t.Fatalf("%s %s: expected status %d, got %d (%s)", tc.method, tc.path, tc.status, w.Code, w.Body.String())
			}
			if tc.check != nil {
				tc.check(t, w)
			}
		})
	}
}

// expectError checks the {"error": ...} body
func expectError(want string) func(*testing.T, *httptest.ResponseRecorder) {
	return func(t *testing.T, w *httptest.ResponseRecorder) {
		var resp map[string]string
		parseResponse(t, w, &resp)
		if resp["error"] != want {
			t.Errorf("Expected error %q, got %q", want, resp["error"])
		}
	}
}

func notFoundSession(m *MockGameService) {
	m.GetSessionFunc = func(ctx context.Context, id string) (*service.SessionInfo, error) {
		return nil, session.ErrSessionNotFound
	}
	m.DeleteSessionFunc = func(ctx context.Context, id string) error {
		return session.ErrSessionNotFound
	}
	m.ResetFunc = func(ctx context.Context, id string) (*engine.GameState, error) {
		return nil, session.ErrSessionNotFound
	}
	m.GetGameStateFunc = func(ctx context.Context, id string) (*engine.GameState, error) {
		return nil, session.ErrSessionNotFound
	}
	m.GetMoveHistoryFunc = func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
		return nil, session.ErrSessionNotFound
	}
}

func TestSessionRoutes(t *testing.T) {
	now := time.Now()

	runRoutes(t, []routeCase{
		{
			name:   "create with the default level",
			method: "POST", path: "/api/sessions",
			mock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, level string) (*service.SessionInfo, error) {
					if level != "" {
						t.Errorf("Expected empty level id, got %q", level)
					}
					return &service.SessionInfo{ID: "a1b2", ConfigName: "classic", CreatedAt: now}, nil
				}
			},
			status: http.StatusCreated,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				if info.ID != "a1b2" || info.ConfigName != "classic" {
					t.Errorf("Unexpected session %+v", info)
				}
			},
		},
		{
			name:   "create by config_id",
			method: "POST", path: "/api/sessions",
			body: map[string]string{"config_id": "hengdao"},
			mock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, level string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "c3d4", ConfigName: level}, nil
				}
			},
			status: http.StatusCreated,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				if info.ConfigName != "hengdao" {
					t.Errorf("Expected hengdao, got %s", info.ConfigName)
				}
			},
		},
		{
			name:   "create by legacy config_name",
			method: "POST", path: "/api/sessions",
			body: map[string]string{"config_name": "easy"},
			mock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, level string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "e5f6", ConfigName: level}, nil
				}
			},
			status: http.StatusCreated,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				if info.ConfigName != "easy" {
					t.Errorf("Expected easy, got %s", info.ConfigName)
				}
			},
		},
		{
			name:   "create fails",
			method: "POST", path: "/api/sessions",
			mock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, level string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("disk full")
				}
			},
			status: http.StatusInternalServerError,
			check:  expectError("disk full"),
		},
		{
			name:   "list newest first, filtered and limited",
			method: "GET", path: "/api/sessions?config=classic&limit=1",
			mock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return []*service.SessionInfo{
						{ID: "old", ConfigName: "classic", LastAccessedAt: now.Add(-time.Hour)},
						{ID: "new", ConfigName: "classic", LastAccessedAt: now},
						{ID: "other", ConfigName: "easy", LastAccessedAt: now},
					}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp struct {
					Count    int                    `json:"count"`
					Total    int                    `json:"total"`
					Sessions []*service.SessionInfo `json:"sessions"`
				}
				parseResponse(t, w, &resp)
				if resp.Count != 1 || resp.Total != 2 {
					t.Fatalf("Expected 1 of 2 classic sessions, got %d of %d", resp.Count, resp.Total)
				}
				if resp.Sessions[0].ID != "new" {
					t.Errorf("Expected most recently used first, got %s", resp.Sessions[0].ID)
				}
			},
		},
		{
			name:   "list empty",
			method: "GET", path: "/api/sessions",
			mock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return nil, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["count"].(float64) != 0 {
					t.Errorf("Expected count 0, got %v", resp["count"])
				}
			},
		},
		{
			name:   "list fails",
			method: "GET", path: "/api/sessions",
			mock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return nil, fmt.Errorf("storage offline")
				}
			},
			status: http.StatusInternalServerError,
			check:  expectError("storage offline"),
		},
		{
			name:   "get",
			method: "GET", path: "/api/sessions/a1b2",
			mock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, id string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: id, ConfigName: "classic"}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				if info.ID != "a1b2" {
					t.Errorf("Expected a1b2, got %s", info.ID)
				}
			},
		},
		{
			name:   "get unknown",
			method: "GET", path: "/api/sessions/zzzz",
			mock:   notFoundSession,
			status: http.StatusNotFound,
			check:  expectError(session.ErrSessionNotFound.Error()),
		},
		{
			name:   "delete",
			method: "DELETE", path: "/api/sessions/a1b2",
			mock: func(m *MockGameService) {
				m.DeleteSessionFunc = func(ctx context.Context, id string) error { return nil }
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["message"] != "Session a1b2 deleted" {
					t.Errorf("Unexpected message %q", resp["message"])
				}
			},
		},
		{
			name:   "delete unknown",
			method: "DELETE", path: "/api/sessions/zzzz",
			mock:   notFoundSession,
			status: http.StatusNotFound,
		},
	})
}

// Game Operations Tests

func TestSlide(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		requestBody    map[string]interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Valid slide",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"piece_id": 3, "direction": "left", "steps": 1},
			setupMock: func(m *MockGameService) {
				m.SlideFunc = func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
					if req.PieceID != 3 || req.Direction != "left" || req.Steps != 1 {
						t.Errorf("Unexpected slide request %+v", req)
					}
					return &service.MoveResult{
						Success: true,
						Pieces: []engine.PieceMove{
							{ID: 3, From: engine.Position{Col: 3, Row: 0}, To: engine.Position{Col: 2, Row: 0}},
						},
						GameState: &engine.GameState{TotalMoves: 1},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success {
					t.Error("Expected success to be true")
				}
				if len(resp.Pieces) != 1 || resp.Pieces[0].To.Col != 2 {
					t.Errorf("Unexpected pieces %+v", resp.Pieces)
				}
			},
		},
		{
			name:        "Slide with reset",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"piece_id": 2, "direction": "right", "reset": true},
			setupMock: func(m *MockGameService) {
				m.SlideFunc = func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
					if !req.Reset {
						t.Error("Expected reset to be true")
					}
					return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Blocked slide is not an error",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"piece_id": 5, "direction": "up"},
			setupMock: func(m *MockGameService) {
				m.SlideFunc = func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
					return &service.MoveResult{Success: false, Message: "illegal move", GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if resp.Success {
					t.Error("Expected success to be false")
				}
			},
		},
		{
			name:           "Missing piece id",
			sessionID:      "sess-123",
			requestBody:    map[string]interface{}{"direction": "up"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid direction",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"piece_id": 1, "direction": "sideways"},
			setupMock: func(m *MockGameService) {
				m.SlideFunc = func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
					return nil, fmt.Errorf("%w: %q", engine.ErrInvalidDirection, req.Direction)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Session not found",
			sessionID:   "nonexistent",
			requestBody: map[string]interface{}{"piece_id": 1, "direction": "up"},
			setupMock: func(m *MockGameService) {
				m.SlideFunc = func(ctx context.Context, sessionID string, req service.SlideRequest) (*service.MoveResult, error) {
					return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions/"+tt.sessionID+"/slide", tt.requestBody)
			req = mux.SetURLVars(req, map[string]string{"id": tt.sessionID})

			server.handleSlide(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestGesture(t *testing.T) {
	var began, moved [2]float64
	mockService := &MockGameService{
		BeginGestureFunc: func(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error) {
			began = [2]float64{x, y}
			return &service.GestureResult{Accepted: true, Gesture: &engine.GestureSnapshot{State: "undetermined", PieceID: 2}}, nil
		},
		UpdateGestureFunc: func(ctx context.Context, sessionID string, x, y float64) (*service.GestureResult, error) {
			moved = [2]float64{x, y}
			return &service.GestureResult{Accepted: true, Gesture: &engine.GestureSnapshot{State: "dragging", PieceID: 2, Axis: "horizontal"}}, nil
		},
		EndGestureFunc: func(ctx context.Context, sessionID string) (*service.MoveResult, error) {
			return &service.MoveResult{
				Success:   true,
				Solved:    true,
				GameState: &engine.GameState{Solved: true},
				Events:    []service.GameEvent{{Type: service.EventSolved}},
			}, nil
		},
		CancelGestureFunc: func(ctx context.Context, sessionID string) (*service.MoveResult, error) {
			return nil, fmt.Errorf("board not sized: %w", engine.ErrNotSized)
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/begin", map[string]float64{"x": 0, "y": 55}))
	if w.Code != http.StatusOK {
		t.Fatalf("begin: expected status 200, got %d", w.Code)
	}
	var begin service.GestureResult
	parseResponse(t, w, &begin)
	if !begin.Accepted || began != [2]float64{0, 55} {
		t.Errorf("begin: accepted=%v at %v", begin.Accepted, began)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/move", map[string]float64{"x": 110, "y": 55}))
	if w.Code != http.StatusOK || moved != [2]float64{110, 55} {
		t.Errorf("move: status %d at %v", w.Code, moved)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/move", map[string]string{"x": "left"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("move with bad body: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/move", map[string]float64{"x": 1}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("move without y: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/end", nil))
	var end service.MoveResult
	parseResponse(t, w, &end)
	if w.Code != http.StatusOK || !end.Solved {
		t.Errorf("end: status %d solved=%v", w.Code, end.Solved)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/gesture/cancel", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("cancel on unsized board: expected 409, got %d", w.Code)
	}
}

func TestResize(t *testing.T) {
	mockService := &MockGameService{
		ResizeFunc: func(ctx context.Context, sessionID string, viewport engine.Viewport) (*engine.GameState, error) {
			if viewport.Width < 50 {
				return nil, fmt.Errorf("%w: %.0fx%.0f", engine.ErrViewportTooSmall, viewport.Width, viewport.Height)
			}
			layout, err := engine.ComputeLayout(4, 5, viewport)
			if err != nil {
				return nil, err
			}
			return &engine.GameState{Layout: &layout}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/resize", map[string]float64{"width": 430, "height": 550, "spacing": 10}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.Layout == nil || state.Layout.CellSize != 100 {
		t.Errorf("Unexpected layout %+v", state.Layout)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/resize", map[string]float64{"width": 10, "height": 10}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a tiny viewport, got %d", w.Code)
	}
}

func TestGetPieceRect(t *testing.T) {
	mockService := &MockGameService{
		GetPieceRectFunc: func(ctx context.Context, sessionID string, pieceID engine.PieceID) (engine.Rect, error) {
			if pieceID != 6 {
				return engine.Rect{}, fmt.Errorf("%w: %d", engine.ErrPieceNotFound, pieceID)
			}
			return engine.NewRect(220, 220, 210, 210), nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/pieces/6/rect", nil))
	var rect engine.Rect
	parseResponse(t, w, &rect)
	if w.Code != http.StatusOK || rect != engine.NewRect(220, 220, 210, 210) {
		t.Errorf("status %d rect %+v", w.Code, rect)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/pieces/42/rect", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown piece, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/pieces/abc/rect", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad piece id, got %d", w.Code)
	}
}

func TestGetPossibleMoves(t *testing.T) {
	mockService := &MockGameService{
		GetPossibleMovesFunc: func(ctx context.Context, sessionID string) ([]engine.MoveOption, error) {
			return []engine.MoveOption{
				{PieceID: 2, Direction: "right", MaxSteps: 1},
				{PieceID: 3, Direction: "left", MaxSteps: 1},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/moves", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Count int                 `json:"count"`
		Moves []engine.MoveOption `json:"moves"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Moves[1].PieceID != 3 {
		t.Errorf("Unexpected moves %+v", resp)
	}
}

func TestStateRoutes(t *testing.T) {
	runRoutes(t, []routeCase{
		{
			name:   "reset keeps the move counter",
			method: "POST", path: "/api/sessions/a1b2/reset",
			mock: func(m *MockGameService) {
				m.ResetFunc = func(ctx context.Context, id string) (*engine.GameState, error) {
					return &engine.GameState{ConfigName: "classic", TotalMoves: 4}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp struct {
					Message string           `json:"message"`
					State   engine.GameState `json:"state"`
				}
				parseResponse(t, w, &resp)
				if resp.Message != "Puzzle reset successfully" {
					t.Errorf("Unexpected message %q", resp.Message)
				}
				if resp.State.TotalMoves != 4 {
					t.Errorf("Expected 4 moves after reset, got %d", resp.State.TotalMoves)
				}
			},
		},
		{
			name:   "reset unknown",
			method: "POST", path: "/api/sessions/zzzz/reset",
			mock:   notFoundSession,
			status: http.StatusNotFound,
		},
		{
			name:   "history defaults",
			method: "GET", path: "/api/sessions/a1b2/history",
			mock: func(m *MockGameService) {
				m.GetMoveHistoryFunc = func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					if opts != (service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}) {
						t.Errorf("Unexpected default options %+v", opts)
					}
					return &service.HistoryResponse{
						Moves: []engine.MoveHistoryEntry{
							{MoveNumber: 2, Source: engine.SourceSlide},
							{MoveNumber: 1, Source: engine.SourceGesture},
						},
						TotalMoves: 2,
						Page:       1,
						PageSize:   20,
						TotalPages: 1,
					}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.HistoryResponse
				parseResponse(t, w, &resp)
				if len(resp.Moves) != 2 || resp.Moves[0].Source != engine.SourceSlide {
					t.Errorf("Unexpected history %+v", resp.Moves)
				}
			},
		},
		{
			name:   "history query parameters",
			method: "GET", path: "/api/sessions/a1b2/history?page=2&limit=10&order=asc",
			mock: func(m *MockGameService) {
				m.GetMoveHistoryFunc = func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.HistoryResponse
				parseResponse(t, w, &resp)
				if resp.Page != 2 || resp.PageSize != 10 {
					t.Errorf("Expected page 2 of size 10, got %d of %d", resp.Page, resp.PageSize)
				}
			},
		},
		{
			name:   "history ignores bad numbers",
			method: "GET", path: "/api/sessions/a1b2/history?page=-3&limit=x&order=sideways",
			mock: func(m *MockGameService) {
				m.GetMoveHistoryFunc = func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					if opts.Page != 1 || opts.Limit != 20 || opts.Order != "desc" {
						t.Errorf("Expected defaults, got %+v", opts)
					}
					return &service.HistoryResponse{}, nil
				}
			},
			status: http.StatusOK,
		},
		{
			name:   "history unknown",
			method: "GET", path: "/api/sessions/zzzz/history",
			mock:   notFoundSession,
			status: http.StatusNotFound,
		},
		{
			name:   "state",
			method: "GET", path: "/api/sessions/a1b2/state",
			mock: func(m *MockGameService) {
				m.GetGameStateFunc = func(ctx context.Context, id string) (*engine.GameState, error) {
					return &engine.GameState{ConfigName: "classic", Width: 4, Height: 5, Solved: true, TotalMoves: 25}, nil
				}
			},
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var state engine.GameState
				parseResponse(t, w, &state)
				if !state.Solved || state.TotalMoves != 25 {
					t.Errorf("Expected solved after 25 moves, got %+v", state)
				}
			},
		},
		{
			name:   "state unknown",
			method: "GET", path: "/api/sessions/zzzz/state",
			mock:   notFoundSession,
			status: http.StatusNotFound,
			check:  expectError(session.ErrSessionNotFound.Error()),
		},
	})
}


func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{Filename: "classic.json", ConfigID: "classic", Name: "Classic", Width: 4, Height: 5, Pieces: 10},
				{Filename: "easy.json", ConfigID: "easy", Name: "Easy", Width: 4, Height: 5, Pieces: 6},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var configs []service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[0].Pieces != 10 {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.LevelConfig, error) {
			if configName != "classic" {
				return nil, config.ErrConfigNotFound
			}
			return engine.DefaultLevelConfig(), nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/classic.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var level engine.LevelConfig
	parseResponse(t, w, &level)
	if level.Name != "Classic" || len(level.Pieces) != 10 {
		t.Errorf("Unexpected level %+v", level)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	var savedAs string
	mockService := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, level *engine.LevelConfig) error {
			if err := engine.ValidateLevelConfig(level); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			savedAs = configName
			return nil
		},
	}
	server := setupTestServer(mockService)

	level := engine.DefaultLevelConfig()
	level.Name = "My Level"

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", level))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedAs != "my_level" {
		t.Errorf("Expected config id my_level, got %s", savedAs)
	}

	level.Pieces = nil
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", level))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid level, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]string{"description": "no name"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a name, got %d", w.Code)
	}
}

// TestEndToEnd drives a real service through the router
func TestEndToEnd(t *testing.T) {
	configManager, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	gameService := service.NewGameService(session.NewManager(), configManager)
	server := setupTestServer(nil)
	server.service = gameService

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions", map[string]string{"config_id": "classic"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	base := "/api/sessions/" + info.ID

	// gestures need a layout first
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", base+"/gesture/begin", map[string]float64{"x": 165, "y": 55}))
	var begin service.GestureResult
	parseResponse(t, w, &begin)
	if begin.Accepted {
		t.Error("gesture accepted before the board was sized")
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", base+"/resize", map[string]float64{"width": 430, "height": 550, "spacing": 10}))
	if w.Code != http.StatusOK {
		t.Fatalf("resize: expected 200, got %d", w.Code)
	}

	// drag piece 2 one cell right into the free column
	for _, step := range []struct {
		path string
		body interface{}
	}{
		{"/gesture/begin", map[string]float64{"x": 165, "y": 55}},
		{"/gesture/move", map[string]float64{"x": 230, "y": 60}},
		{"/gesture/move", map[string]float64{"x": 280, "y": 60}},
	} {
		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", base+step.path, step.body))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", step.path, w.Code)
		}
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", base+"/pieces/2/rect", nil))
	var rect engine.Rect
	parseResponse(t, w, &rect)
	if rect.Left != 220 {
		t.Errorf("dragged rect should clamp at one cell, got left=%v", rect.Left)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", base+"/gesture/end", nil))
	var end service.MoveResult
	parseResponse(t, w, &end)
	if !end.Success || len(end.Pieces) != 1 || end.Pieces[0].To != (engine.Position{Col: 2, Row: 0}) {
		t.Fatalf("end: unexpected result %+v", end)
	}

	// piece 4 sits under piece 1 at the top edge
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", base+"/slide", map[string]interface{}{"piece_id": 4, "direction": "up"}))
	var blocked service.MoveResult
	parseResponse(t, w, &blocked)
	if w.Code != http.StatusOK || blocked.Success {
		t.Errorf("slide: expected a blocked move, got status %d success=%v", w.Code, blocked.Success)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", base+"/slide", map[string]interface{}{"piece_id": 2, "direction": "left"}))
	var back service.MoveResult
	parseResponse(t, w, &back)
	if !back.Success {
		t.Errorf("slide back failed: %s", back.Message)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", base+"/history?order=asc", nil))
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	if history.TotalMoves != 2 || history.Moves[0].Source != engine.SourceGesture || history.Moves[1].Source != engine.SourceSlide {
		t.Errorf("Unexpected history %+v", history)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/nope/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	runRoutes(t, []routeCase{
		{name: "missing session", method: "GET", path: "/ws", status: http.StatusBadRequest},
		{name: "unknown session", method: "GET", path: "/ws?session=zzzz", mock: notFoundSession, status: http.StatusNotFound},
	})

	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return &service.SessionInfo{ID: id}, nil
		},
	}
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(NewServer(mock, hub))
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=a1b2", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount("a1b2") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastToSession("a1b2", &engine.GameState{TotalMoves: 3})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if msg.Event != websocket.EventStateUpdate || msg.GameState == nil || msg.GameState.TotalMoves != 3 {
		t.Errorf("Unexpected message %+v", msg)
	}
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
)

// Client serves the puzzle as MCP tools backed by the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a client for the REST API rooted at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Klotski Sliding Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Klotski Sliding Puzzle - MCP Interface

Every tool call is forwarded to the puzzle's REST API.

OBJECTIVE:
Slide the pieces around the board until the large goal piece reaches the exit cell.

AVAILABLE TOOLS:
- board_state: Get the current board
- slide: Slide one piece by whole cells
- possible_moves: List every legal slide
- reset_game: Reset to the starting layout
- move_history: View past moves
- create_session: Create new puzzle session
- get_session: Get session details
- list_sessions: List all active sessions
- list_levels: List available levels
- game_instructions: Get the complete rules
- describe_cell: Get detailed info about one cell of the board

Use possible_moves before sliding when unsure; blocked slides leave the board unchanged.`),
	)

	c.registerTools()
}

// sessionArg is the session_id parameter every per-session tool takes
func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{mcp.NewTool("create_session",
			mcp.WithDescription("Create a new puzzle session with optional level selection"),
			mcp.WithString("config_id", mcp.Description("Level identifier from list_levels (optional)")),
		), c.handleCreateSession},
		{mcp.NewTool("list_sessions",
			mcp.WithDescription("List all active puzzle sessions"),
		), c.handleListSessions},
		{mcp.NewTool("get_session",
			mcp.WithDescription("Get details of a specific session"),
			sessionArg(),
		), c.handleGetSession},
		{mcp.NewTool("board_state",
			mcp.WithDescription("Get the current board, drawn one row per line"),
			sessionArg(),
		), c.handleBoardState},
		{mcp.NewTool("slide",
			mcp.WithDescription("Slide a piece in a direction by whole cells. Pieces in the way are pushed along when the level allows it."),
			sessionArg(),
			mcp.WithNumber("piece_id", mcp.Required(), mcp.Min(1),
				mcp.Description("ID of the piece to slide (the digit shown on the board)")),
			mcp.WithString("direction", mcp.Required(), mcp.Enum("up", "down", "left", "right"),
				mcp.Description("Direction to slide")),
			mcp.WithNumber("steps", mcp.Min(1), mcp.Description("Number of cells to slide (default 1)")),
			mcp.WithString("intent", mcp.Description("Why this move: which piece you are making room for")),
			mcp.WithBoolean("reset", mcp.Description("Reset before sliding")),
		), c.handleSlide},
		{mcp.NewTool("possible_moves",
			mcp.WithDescription("List every legal slide from the current position"),
			sessionArg(),
		), c.handlePossibleMoves},
		{mcp.NewTool("reset_game",
			mcp.WithDescription("Reset the puzzle to its starting layout"),
			sessionArg(),
		), c.handleReset},
		{mcp.NewTool("move_history",
			mcp.WithDescription("List committed moves, newest first"),
			sessionArg(),
			mcp.WithNumber("page", mcp.Min(1), mcp.Description("Page number")),
			mcp.WithNumber("limit", mcp.Min(1), mcp.Description("Moves per page")),
		), c.handleMoveHistory},
		{mcp.NewTool("list_levels",
			mcp.WithDescription("List available puzzle levels"),
		), c.handleListLevels},
		{mcp.NewTool("game_instructions",
			mcp.WithDescription("Get the complete puzzle rules"),
		), c.handleGameInstructions},
		{mcp.NewTool("describe_cell",
			mcp.WithDescription("Get detailed information about one cell: which piece covers it, the piece footprint and the slides available to that piece."),
			sessionArg(),
			mcp.WithNumber("col", mcp.Required(), mcp.Min(0), mcp.Description("Column of the cell (0-based, left to right)")),
			mcp.WithNumber("row", mcp.Required(), mcp.Min(0), mcp.Description("Row of the cell (0-based, top to bottom)")),
		), c.handleDescribeCell},
	}

	for _, t := range tools {
		c.mcpServer.AddTool(t.tool, t.handler)
	}
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads a JSON number argument; MCP clients send integers as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		moves, solved := 0, false
		if s.GameState != nil {
			moves, solved = s.GameState.TotalMoves, s.GameState.Solved
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Moves: %d, Solved: %v, Created: %s)\n",
			s.ID, s.ConfigName, moves, solved, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSlide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	pieceID, ok := intArg(args, "piece_id")
	if !ok || pieceID <= 0 {
		return mcp.NewToolResultError("piece_id must be a positive integer"), nil
	}
	steps, ok := intArg(args, "steps")
	if !ok || steps <= 0 {
		steps = 1
	}

	body := service.SlideRequest{
		PieceID:   engine.PieceID(pieceID),
		Direction: direction,
		Steps:     steps,
		Reset:     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/slide"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatMoveResult(&result)
	if intent != "" {
		text = "Intent: " + intent + "\n" + text
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handlePossibleMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Count int                 `json:"count"`
		Moves []engine.MoveOption `json:"moves"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/moves"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveOptions(response.Moves)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Pieces: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height, config.Pieces)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🧩 Klotski Sliding Puzzle - Complete Instructions

OBJECTIVE:
Move the goal piece (marked with * in board listings) so that its top-left
corner rests on the exit cell.

THE BOARD:
• The board is a grid of cells, usually 4 columns by 5 rows
• Every piece is a rectangle covering whole cells: 1x1, 1x2 (tall), 2x1 (wide) or 2x2
• Each row of the board is drawn as one line; a digit (or letter for ids
  above 9) shows which piece covers the cell and '.' marks an empty cell
• Columns count from 0 on the left, rows count from 0 at the top

MOVING PIECES:
• slide moves one piece up, down, left or right by whole cells
• A piece stops at the edge of the board
• When the level allows pushing, a piece moving into others pushes the whole
  line of pieces ahead of it, as long as every pushed piece has room
• Blocked slides change nothing and are reported as failed moves

STRATEGY TIPS:
• Use possible_moves to see every legal slide and which pieces it pushes
• Use describe_cell to check what occupies a cell before planning around it
• Empty cells are the only resource: plan moves that bring them where you need them
• The goal piece is large; clear a 2-cell wide lane in front of it
• Use reset_game to start over, the move counter keeps counting

COORDINATES:
• (col,row) with col 0 = leftmost column, row 0 = top row
• "up" decreases row, "down" increases row
• "left" decreases col, "right" increases col

Good luck! 🧩`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	col, okCol := intArg(args, "col")
	row, okRow := intArg(args, "row")
	if !okCol || !okRow {
		return mcp.NewToolResultError("col and row are required integers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if col < 0 || col >= state.Width || row < 0 || row >= state.Height {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d,%d) is out of bounds. Board is %dx%d (cols 0-%d, rows 0-%d)",
			col, row, state.Width, state.Height, state.Width-1, state.Height-1)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d)\n", col, row)
	if col == state.Exit.Col && row == state.Exit.Row {
		b.WriteString("This is the exit cell: the goal piece wins when its top-left corner rests here.\n")
	}

	piece, found := pieceAt(&state, col, row)
	if !found {
		b.WriteString("Empty: no piece covers this cell.\n")
		return mcp.NewToolResultText(b.String()), nil
	}

	kind := "piece"
	if piece.Goal {
		kind = "goal piece"
	}
	fmt.Fprintf(&b, "Covered by %s %d, shape %s (%s), top-left at (%d,%d)\n",
		kind, piece.ID, piece.Shape(), describeShape(piece.Shape()), piece.Col, piece.Row)

	var moves []engine.MoveOption
	var response struct {
		Moves []engine.MoveOption `json:"moves"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/moves"), nil, &response); err == nil {
		for _, m := range response.Moves {
			if m.PieceID == piece.ID {
				moves = append(moves, m)
			}
		}
	}
	if len(moves) == 0 {
		b.WriteString("This piece cannot move right now.\n")
	} else {
		b.WriteString("Available slides:\n")
		b.WriteString(formatMoveOptions(moves))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func pieceAt(state *engine.GameState, col, row int) (engine.Piece, bool) {
	for _, p := range state.Pieces {
		if p.Covers(col, row) {
			return p, true
		}
	}
	return engine.Piece{}, false
}

func describeShape(shape string) string {
	switch shape {
	case engine.ShapeSmall:
		return "small square"
	case engine.ShapeVertical:
		return "tall"
	case engine.ShapeHorizontal:
		return "wide"
	case engine.ShapeLarge:
		return "large square"
	}
	return "custom"
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Level: %s | Board: %dx%d | Exit: (%d,%d) | Moves: %d\n\n",
		state.ConfigName, state.Width, state.Height, state.Exit.Col, state.Exit.Row, state.TotalMoves)

	for _, row := range state.Rows {
		result.WriteString(row)
		result.WriteString("\n")
	}

	pieces := make([]engine.Piece, len(state.Pieces))
	copy(pieces, state.Pieces)
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].ID < pieces[j].ID })

	result.WriteString("\nPieces:\n")
	for _, p := range pieces {
		marker := ""
		if p.Goal {
			marker = " *"
		}
		fmt.Fprintf(&result, "  %d: %s at (%d,%d)%s\n", p.ID, p.Shape(), p.Col, p.Row, marker)
	}

	if state.Solved {
		result.WriteString("\n🎉 SOLVED!")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var response strings.Builder
	if result.Success {
		response.WriteString("✓ Move successful\n")
	} else {
		response.WriteString("✗ Move failed\n")
		if result.Message != "" {
			fmt.Fprintf(&response, "Reason: %s\n", result.Message)
		}
	}

	for _, p := range result.Pieces {
		fmt.Fprintf(&response, "Piece %d: (%d,%d)→(%d,%d)\n", p.ID, p.From.Col, p.From.Row, p.To.Col, p.To.Row)
	}

	if len(result.Events) > 0 {
		response.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&response, "- %s: %s\n", event.Type, event.Message)
		}
	}

	response.WriteString("\n" + formatGameState(result.GameState))
	return response.String()
}

func formatMoveOptions(moves []engine.MoveOption) string {
	if len(moves) == 0 {
		return "No legal moves.\n"
	}

	var b strings.Builder
	for _, m := range moves {
		cells := "cell"
		if m.MaxSteps != 1 {
			cells = "cells"
		}
		fmt.Fprintf(&b, "- piece %d %s (up to %d %s)", m.PieceID, m.Direction, m.MaxSteps, cells)
		if len(m.Pushes) > 0 {
			ids := make([]string, len(m.Pushes))
			for i, id := range m.Pushes {
				ids[i] = fmt.Sprint(id)
			}
			fmt.Fprintf(&b, " pushing %s", strings.Join(ids, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		parts := make([]string, len(move.Pieces))
		for i, p := range move.Pieces {
			parts[i] = fmt.Sprintf("%d (%d,%d)→(%d,%d)", p.ID, p.From.Col, p.From.Row, p.To.Col, p.To.Row)
		}
		status := ""
		if move.Solved {
			status = " 🎉"
		}
		fmt.Fprintf(&b, "%d. [%s] %s%s\n", move.MoveNumber, move.Source, strings.Join(parts, "; "), status)
	}

	return b.String()
}

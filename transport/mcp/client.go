package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mountain Goats",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mountain Goats - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Climb the six mountains (5 to 10) with your goats and collect the most points.

A TURN:
1. Look at the dice with game_state (they are rolled for you at the start of each turn)
2. Select dice with select_die until their sum names a mountain
3. Spend them with move_goat
4. Repeat with the remaining dice, then call next_turn

Use game_instructions for the full rules.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func dieIndexProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Die index (0-3)",
		"minimum":     0,
		"maximum":     engine.DiceCount - 1,
	}
}

// sessionTool declares a tool whose only argument is the session ID
func sessionTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session from a preset, optionally overriding players and language",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the preset to use (optional, see list_configs)",
				},
				"num_players": map[string]interface{}{
					"type":        "integer",
					"description": "Number of players (2-4)",
					"minimum":     engine.MinPlayers,
					"maximum":     engine.MaxPlayers,
				},
				"player_names": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Player names in seating order",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Preferred language tag, unsupported tags fall back to en",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)

	// Game state
	c.mcpServer.AddTool(sessionTool("game_state", "Get the board, dice, tokens and scores"), c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_log",
		Description: "Get the game log, most recent entries first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameLog)

	c.mcpServer.AddTool(sessionTool("winners", "Get the winners, or the current leaders of a running game"), c.handleWinners)

	// Dice
	c.mcpServer.AddTool(sessionTool("roll_dice", "Reroll every unlocked die"), c.handleRollDice)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_die",
		Description: "Select or deselect a die for the next move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index":      dieIndexProperty(),
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleSelectDie)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "lock_die",
		Description: "Lock or unlock a die so the next roll keeps its value",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index":      dieIndexProperty(),
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleLockDie)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "change_die",
		Description: "Turn a changeable 1 into any value from 2 to 6. Only rolls with several 1s have changeable dice.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index":      dieIndexProperty(),
				"value": map[string]interface{}{
					"type":        "integer",
					"description": "New face value",
					"minimum":     engine.MinChangeTo,
					"maximum":     engine.MaxDieValue,
				},
			},
			Required: []string{"session_id", "index", "value"},
		},
	}, c.handleChangeDie)

	c.mcpServer.AddTool(sessionTool("clear_selection", "Deselect every die"), c.handleClearSelection)
	c.mcpServer.AddTool(sessionTool("remove_last_die", "Deselect the last selected die"), c.handleRemoveLastDie)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_goat",
		Description: "Spend the selected dice to move your goat up a mountain. The selected sum must equal the mountain number.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"mountain": map[string]interface{}{
					"type":        "integer",
					"description": "Mountain number (5-10)",
					"minimum":     int(engine.MinMountain),
					"maximum":     int(engine.MaxMountain),
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this mountain",
				},
			},
			Required: []string{"session_id", "mountain"},
		},
	}, c.handleMoveGoat)

	c.mcpServer.AddTool(sessionTool("next_turn", "End the turn and roll for the next player"), c.handleNextTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start the session over, optionally with new player names",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"player_names": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Player names in seating order",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete game rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func stringsArg(args map[string]interface{}, name string) []string {
	raw, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// action posts a game command and formats its ActionResult
func (c *Client) action(ctx context.Context, request mcp.CallToolRequest, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) dieAction(ctx context.Context, request mcp.CallToolRequest, verb string, body interface{}) (*mcp.CallToolResult, error) {
	index, ok := intArg(arguments(request), "index")
	if !ok || index < 0 || index >= engine.DiceCount {
		return mcp.NewToolResultError(fmt.Sprintf("index must be between 0 and %d", engine.DiceCount-1)), nil
	}
	return c.action(ctx, request, fmt.Sprintf("/dice/%d/%s", index, verb), body)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateSessionRequest{
		PlayerNames: stringsArg(args, "player_names"),
	}
	body.ConfigName, _ = args["config_name"].(string)
	body.Language, _ = args["language"].(string)
	if n, ok := intArg(args, "num_players"); ok {
		body.NumPlayers = n
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
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
		status := "in progress"
		if s.GameState != nil && s.GameState.GameOver {
			status = "finished"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleGameLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/log")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var log service.LogResponse
	if err := c.apiCall(ctx, "GET", path, nil, &log); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLog(&log)), nil
}

func (c *Client) handleWinners(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/winners")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var winners service.WinnersResult
	if err := c.apiCall(ctx, "GET", path, nil, &winners); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatWinners(&winners)), nil
}

func (c *Client) handleRollDice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/roll", nil)
}

func (c *Client) handleSelectDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.dieAction(ctx, request, "select", nil)
}

func (c *Client) handleLockDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.dieAction(ctx, request, "lock", nil)
}

func (c *Client) handleChangeDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, ok := intArg(arguments(request), "value")
	if !ok {
		return mcp.NewToolResultError("value is required"), nil
	}
	return c.dieAction(ctx, request, "value", map[string]int{"value": value})
}

func (c *Client) handleClearSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/dice/clear", nil)
}

func (c *Client) handleRemoveLastDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/dice/remove-last", nil)
}

func (c *Client) handleMoveGoat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// intent is only there to make the caller explain itself
	mountain, ok := intArg(arguments(request), "mountain")
	if !ok {
		return mcp.NewToolResultError("mountain is required"), nil
	}
	return c.action(ctx, request, "/move", map[string]int{"mountain": mountain})
}

func (c *Client) handleNextTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/next-turn", nil)
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]interface{}{}
	if names := stringsArg(arguments(request), "player_names"); len(names) > 0 {
		body["player_names"] = names
	}
	return c.action(ctx, request, "/reset", body)
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Players: %d", config.ConfigID, config.Name, config.Description, config.NumPlayers)
		if len(config.PlayerNames) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(config.PlayerNames, ", "))
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Mountain Goats - Complete Rules

BOARD:
Six mountains numbered 5 to 10. Mountains 5 and 6 have 4 rows, 7 and 8 have
3, 9 and 10 have 2. Every goat starts at the foot of each mountain.

YOUR TURN:
• Four dice are rolled for you
• Select dice whose sum equals a mountain number and spend them with move_goat
• Each move takes your goat one row up that mountain
• Keep going with the remaining dice, in any grouping, then call next_turn
• When several dice show 1, every 1 but the first may become 2-6 (change_die)
• roll_dice rerolls every die that is not locked

THE TOP:
• Reaching the top knocks every other goat there back to the foot
• Reaching the top, or moving again while already there, takes a point
  token worth the mountain's number
• When a mountain runs out of tokens, goats can still climb it but score nothing

BONUS TOKENS (15, 12, 9, 6):
Holding one token from every mountain earns the largest remaining bonus.

GAME END:
The game ends when three mountains are out of tokens or every bonus token is
taken. The round is finished so every player gets the same number of turns.
Highest score wins; ties share the victory.

TOOLS:
• game_state shows dice (index, value, flags), mountains and scores
• select_die / remove_last_die / clear_selection manage the selection
• move_goat names the mountain to climb
• game_log shows what happened, winners shows the result`

package service

import (
	"time"

	"github.com/wricardo/mountain-goats/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CreateSessionRequest describes a new game. Empty fields fall back to the
// named preset, then to the default preset.
type CreateSessionRequest struct {
	ConfigName  string   `json:"config_name,omitempty"`
	NumPlayers  int      `json:"num_players,omitempty"`
	PlayerNames []string `json:"player_names,omitempty"`
	Language    string   `json:"language,omitempty"`
}

// ActionResult is returned by every game command
type ActionResult struct {
	Success      bool              `json:"success"`
	Action       string            `json:"action"`
	Message      string            `json:"message"`
	GameState    *engine.GameState `json:"game_state"`
	Events       []LogLine         `json:"events"`
	SelectedSum  int               `json:"selected_sum"`
	ValidTargets []engine.Mountain `json:"valid_targets"`
	GameOver     bool              `json:"game_over"`
}

// LogLine is a game log entry together with its rendered text
type LogLine struct {
	engine.LogEntry
	Text string `json:"text"`
}

// LogOptions configures game log retrieval
type LogOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// LogResponse contains a page of the game log
type LogResponse struct {
	Entries      []LogLine `json:"entries"`
	TotalEntries int       `json:"total_entries"`
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
	TotalPages   int       `json:"total_pages"`
	HasNext      bool      `json:"has_next"`
	HasPrevious  bool      `json:"has_previous"`
}

// WinnersResult reports the winners of a finished game, or the current
// leaders while it is still running
type WinnersResult struct {
	GameOver bool            `json:"game_over"`
	Winners  []engine.Player `json:"winners"`
	Score    int             `json:"score"`
	Message  string          `json:"message,omitempty"`
}

// PreferencesUpdate changes presentation preferences. Nil fields are left
// as they are.
type PreferencesUpdate struct {
	Language   *string `json:"language,omitempty"`
	SoundMuted *bool   `json:"sound_muted,omitempty"`
}

// ConfigInfo provides information about a game preset
type ConfigInfo struct {
	Filename    string   `json:"filename"`
	ConfigID    string   `json:"config_id"` // The identifier to use for session creation
	Name        string   `json:"name"`      // Display name
	Description string   `json:"description"`
	NumPlayers  int      `json:"num_players"`
	PlayerNames []string `json:"player_names,omitempty"`
}

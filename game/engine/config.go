package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultLanguage = "en"
	defaultName     = "Player %d"
)

// GameConfig describes how a game is set up
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	NumPlayers  int      `json:"num_players"`
	PlayerNames []string `json:"player_names,omitempty"`
	Language    string   `json:"language,omitempty"`
	SoundMuted  bool     `json:"sound_muted,omitempty"`
}

// DefaultGameConfig returns a two player setup with generated names
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Two players, default names",
		NumPlayers:  MinPlayers,
		Language:    DefaultLanguage,
	}
}

// ValidateGameConfig validates a game configuration
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.NumPlayers < MinPlayers || config.NumPlayers > MaxPlayers {
		return fmt.Errorf("config validation: num_players must be between %d and %d, got %d",
			MinPlayers, MaxPlayers, config.NumPlayers)
	}
	if len(config.PlayerNames) > config.NumPlayers {
		return fmt.Errorf("config validation: %d player names given for %d players",
			len(config.PlayerNames), config.NumPlayers)
	}
	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// PointTokenSupply returns how many point tokens mountain m starts with
func PointTokenSupply(numPlayers int, m Mountain) int {
	if !m.Valid() {
		return 0
	}
	return max(0, basePointTokens[m.Index()]-(MaxPlayers-numPlayers))
}

// InitGameState builds the opening state for numPlayers players. Missing or
// blank names fall back to "Player N".
func InitGameState(numPlayers int, playerNames []string, now time.Time) *GameState {
	state := &GameState{
		NumPlayers:               numPlayers,
		CurrentPlayerIndex:       0,
		CurrentTurn:              1,
		GameLog:                  []LogEntry{},
		PlayersPlayedInLastRound: []int{},
		Language:                 DefaultLanguage,
	}

	for _, m := range Mountains {
		cells := make([]Cell, m.Height())
		for row := range cells {
			cells[row] = Cell{
				Column:     m,
				RowIndex:   row,
				IsTop:      row == 0,
				OccupiedBy: []PlayerColor{},
			}
		}
		state.Cells[m.Index()] = cells
	}

	state.PointTokens = []PointToken{}
	for _, m := range Mountains {
		for i := 0; i < PointTokenSupply(numPlayers, m); i++ {
			state.PointTokens = append(state.PointTokens, PointToken{Value: int(m), Available: true})
		}
	}
	for i, value := range bonusTokenValues {
		state.BonusTokens[i] = BonusToken{Value: value, Available: true}
	}

	for i := range state.Dice {
		state.Dice[i] = Die{Value: MinDieValue}
	}

	state.Players = make([]Player, numPlayers)
	for i := range state.Players {
		name := ""
		if i < len(playerNames) {
			name = strings.TrimSpace(playerNames[i])
		}
		if name == "" {
			name = fmt.Sprintf(defaultName, i+1)
		}
		state.Players[i] = Player{
			Color:         playerColorsInTurn[i],
			Name:          name,
			CellsOccupied: []CellRef{},
		}
	}

	// Every goat starts at the foot of its mountain
	for _, m := range Mountains {
		foot := make([]PlayerColor, 0, numPlayers)
		for _, p := range state.Players {
			foot = append(foot, p.Color)
		}
		state.PlayerPieces[m.Index()] = foot
	}

	state.GameLog = append(state.GameLog, LogEntry{
		Turn:        1,
		PlayerIndex: -1,
		PlayerName:  "Game",
		Kind:        EventGameStarted,
		Payload:     EventPayload{NumPlayers: numPlayers},
		Timestamp:   now.UnixMilli(),
	})

	return state
}

// ValidateState checks the structural invariants of a restored state
func ValidateState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state validation: state is nil")
	}
	if state.NumPlayers < MinPlayers || state.NumPlayers > MaxPlayers {
		return fmt.Errorf("state validation: num_players must be between %d and %d, got %d",
			MinPlayers, MaxPlayers, state.NumPlayers)
	}
	if len(state.Players) != state.NumPlayers {
		return fmt.Errorf("state validation: expected %d players, got %d", state.NumPlayers, len(state.Players))
	}
	if state.CurrentPlayerIndex < 0 || state.CurrentPlayerIndex >= state.NumPlayers {
		return fmt.Errorf("state validation: current_player_index %d out of range", state.CurrentPlayerIndex)
	}
	if state.CurrentTurn < 1 {
		return fmt.Errorf("state validation: current_turn must be at least 1, got %d", state.CurrentTurn)
	}
	for _, m := range Mountains {
		cells := state.Cells[m.Index()]
		if len(cells) != m.Height() {
			return fmt.Errorf("state validation: mountain %d must have %d rows, got %d", m, m.Height(), len(cells))
		}
		if len(cells[0].OccupiedBy) > 1 {
			return fmt.Errorf("state validation: top of mountain %d holds %d goats", m, len(cells[0].OccupiedBy))
		}
	}
	for i, die := range state.Dice {
		if die.Value < MinDieValue || die.Value > MaxDieValue {
			return fmt.Errorf("state validation: die %d has value %d", i, die.Value)
		}
	}
	return nil
}

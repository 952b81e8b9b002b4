package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset(playerNames []string) *GameState
	IsGameOver() bool
	GetCurrentPlayer() *Player

	// Dice
	RollDice()
	ChangeDieValue(index, value int) bool
	ToggleDieLock(index int) bool
	ToggleDieSelection(index int) bool
	ClearDiceSelection()
	RemoveLastDie() bool
	GetSelectedDiceSum() int
	GetValidMountainTargets() []Mountain

	// Movement and tokens
	MoveGoatUpMountain(m Mountain) bool
	PlacePieceInCell(m Mountain, row int) bool
	ClaimPointToken(value int) bool
	ClaimBonusToken(value int) bool
	CheckAndClaimBonusTokens() int

	// Turns
	NextTurn()
	CheckGameEndConditions() bool
	ShouldEndGame() bool
	GetWinners() []Player

	// Preferences
	SetLanguage(language string)
	ToggleSoundMuted() bool

	// Persistence
	Serialize() (string, error)
}

// GameEngine implements the Engine interface. It is not safe for
// concurrent use; callers serialize access to one engine.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
	now    func() time.Time
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRand sets the random source used for dice rolls
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed makes dice rolls reproducible
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithClock sets the time source used for log timestamps
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		if now != nil {
			e.now = now
		}
	}
}

func newGameEngine(opts []Option) *GameEngine {
	e := &GameEngine{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := newGameEngine(opts)
	e.config = config
	e.state = InitGameState(config.NumPlayers, config.PlayerNames, e.now())
	if config.Language != "" {
		e.state.Language = config.Language
	}
	e.state.SoundMuted = config.SoundMuted

	return e, nil
}

// NewEngineWithDefaults creates a two player game with default names
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, _ := NewEngine(DefaultGameConfig(), opts...)
	return e
}

// Deserialize rebuilds an engine from a snapshot produced by Serialize
func Deserialize(data string, opts ...Option) (*GameEngine, error) {
	var state GameState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	if err := ValidateState(&state); err != nil {
		return nil, err
	}

	e := newGameEngine(opts)
	e.state = &state
	e.config = &GameConfig{
		Name:       "restored",
		NumPlayers: state.NumPlayers,
	}
	return e, nil
}

// Serialize returns a JSON snapshot of the full game state
func (e *GameEngine) Serialize() (string, error) {
	data, err := json.Marshal(e.state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal game state: %w", err)
	}
	return string(data), nil
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if err := ValidateState(state); err != nil {
		return err
	}
	e.state = state
	return nil
}

// GetConfig returns the configuration the engine was created with
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Reset starts a fresh game with the same player count and preferences.
// A nil playerNames keeps the current names.
func (e *GameEngine) Reset(playerNames []string) *GameState {
	names := playerNames
	if names == nil {
		names = make([]string, 0, len(e.state.Players))
		for _, p := range e.state.Players {
			names = append(names, p.Name)
		}
	}

	language := e.state.Language
	if language == "" {
		language = DefaultLanguage
	}
	soundMuted := e.state.SoundMuted

	e.state = InitGameState(e.state.NumPlayers, names, e.now())
	e.state.Language = language
	e.state.SoundMuted = soundMuted

	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetCurrentPlayer returns the player whose turn it is
func (e *GameEngine) GetCurrentPlayer() *Player {
	return &e.state.Players[e.state.CurrentPlayerIndex]
}

// SetLanguage stores the language preference
func (e *GameEngine) SetLanguage(language string) {
	e.state.Language = language
}

// ToggleSoundMuted flips the sound preference and returns the new value
func (e *GameEngine) ToggleSoundMuted() bool {
	e.state.SoundMuted = !e.state.SoundMuted
	return e.state.SoundMuted
}

// addLog appends an entry attributed to the current player
func (e *GameEngine) addLog(kind EventKind, payload EventPayload) {
	player := e.GetCurrentPlayer()
	e.state.GameLog = append(e.state.GameLog, LogEntry{
		Turn:        e.state.CurrentTurn,
		PlayerIndex: e.state.CurrentPlayerIndex,
		PlayerName:  player.Name,
		Kind:        kind,
		Payload:     payload,
		Timestamp:   e.now().UnixMilli(),
	})
}

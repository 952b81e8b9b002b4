package service

import (
	"context"
	"time"

	"github.com/wricardo/mountain-goats/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Dice
	RollDice(ctx context.Context, sessionID string) (*ActionResult, error)
	ToggleDieSelection(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	ToggleDieLock(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	ChangeDieValue(ctx context.Context, sessionID string, index, value int) (*ActionResult, error)
	ClearDiceSelection(ctx context.Context, sessionID string) (*ActionResult, error)
	RemoveLastDie(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game Operations
	MoveGoat(ctx context.Context, sessionID string, mountain int) (*ActionResult, error)
	NextTurn(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string, playerNames []string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameLog(ctx context.Context, sessionID string, opts LogOptions) (*LogResponse, error)
	GetWinners(ctx context.Context, sessionID string) (*WinnersResult, error)
	UpdatePreferences(ctx context.Context, sessionID string, update PreferencesUpdate) (*engine.GameState, error)

	// Snapshots
	ExportState(ctx context.Context, sessionID string) (string, error)
	ImportState(ctx context.Context, snapshot string) (*SessionInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Import(id string, snapshot string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

// ErrCorruptSnapshot marks a persisted session whose game state cannot be
// restored. Such sessions are discarded.
var ErrCorruptSnapshot = errors.New("corrupt session snapshot")

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool

	// Close releases the underlying storage
	Close() error
}

// PersistedSessionData is the stored form of a session. GameState holds the
// engine's own snapshot verbatim.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Config         *engine.GameConfig `json:"config,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      json.RawMessage    `json:"game_state"`
}

// NewPersistedSessionData snapshots a live session
func NewPersistedSessionData(session *service.Session) (*PersistedSessionData, error) {
	if session == nil || session.Engine == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	state, err := session.Engine.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot session %s: %w", session.ID, err)
	}

	data := &PersistedSessionData{
		ID:             session.ID,
		Config:         session.Config,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      json.RawMessage(state),
	}
	if session.Config != nil {
		data.ConfigName = session.Config.Name
	}
	return data, nil
}

// DecodePersistedSessionData parses a stored record
func DecodePersistedSessionData(raw []byte) (*PersistedSessionData, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return &data, nil
}

// Restore rebuilds the live session from the stored record
func (d *PersistedSessionData) Restore(opts ...engine.Option) (*service.Session, error) {
	if len(d.GameState) == 0 {
		return nil, fmt.Errorf("%w: session %s has no game state", ErrCorruptSnapshot, d.ID)
	}

	gameEngine, err := engine.Deserialize(string(d.GameState), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s: %v", ErrCorruptSnapshot, d.ID, err)
	}

	config := d.Config
	if config == nil {
		config = gameEngine.GetConfig()
	}

	return &service.Session{
		ID:             d.ID,
		Engine:         gameEngine,
		Config:         config,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}, nil
}

// State decodes the stored game state without building an engine
func (d *PersistedSessionData) State() (*engine.GameState, error) {
	var state engine.GameState
	if err := json.Unmarshal(d.GameState, &state); err != nil {
		return nil, fmt.Errorf("%w: session %s: %v", ErrCorruptSnapshot, d.ID, err)
	}
	return &state, nil
}

func encodeSession(session *service.Session) (*PersistedSessionData, []byte, error) {
	data, err := NewPersistedSessionData(session)
	if err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, payload, nil
}

package session

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

var (
	ErrSessionNotFound      = fmt.Errorf("session %w", service.ErrNotFound)
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

const (
	sessionIDLength = 8
	maxIDAttempts   = 16
)

// IDs double as file names and storage keys
var validSessionID = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	engineOpts  []engine.Option
	logger      zerolog.Logger
	now         func() time.Time
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager
func NewManager(logger zerolog.Logger, opts ...engine.Option) *Manager {
	return &Manager{
		sessions:   make(map[string]*service.Session),
		engineOpts: opts,
		logger:     logger.With().Str("component", "sessions").Logger(),
		now:        time.Now,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, logger zerolog.Logger, opts ...engine.Option) *Manager {
	m := NewManager(logger, opts...)
	m.persistence = persistence
	return m
}

// Create creates a new session with the given ID and configuration.
// An empty ID gets a generated one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	eng, err := engine.NewEngine(config, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	// The opening roll belongs to player one's first turn
	eng.RollDice()

	return m.add(id, eng, config)
}

// Import creates a session from an engine snapshot
func (m *Manager) Import(id string, snapshot string) (*service.Session, error) {
	eng, err := engine.Deserialize(snapshot, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to import snapshot: %w", err)
	}

	return m.add(id, eng, eng.GetConfig())
}

func (m *Manager) add(id string, eng *engine.GameEngine, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		generated, err := m.generateSessionID()
		if err != nil {
			return nil, err
		}
		id = generated
	}

	id = normalizeID(id)
	if !validSessionID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	if m.sessionExists(id) || (m.persistence != nil && m.persistence.Exists(id)) {
		return nil, ErrSessionAlreadyExists
	}

	now := m.now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[id] = session

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			// Log error but don't fail the creation
			m.logger.Warn().Err(err).Str("session", id).Msg("failed to persist session")
		}
	}

	m.logger.Debug().Str("session", id).Int("players", eng.GetState().NumPlayers).Msg("session created")
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	id = normalizeID(id)

	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && validSessionID.MatchString(id) && m.persistence.Exists(id) {
		session, err := m.load(id)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// Another caller may have loaded it meanwhile
		if cached, ok := m.sessions[id]; ok {
			return cached, nil
		}
		m.sessions[id] = session
		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	id = normalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[id]
	delete(m.sessions, id)

	if m.persistence != nil && validSessionID.MatchString(id) && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	id = normalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	id = normalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = m.now()
	return nil
}

// Save writes a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	id = normalizeID(id)

	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions drops sessions from memory that haven't been
// accessed in the given duration. Persisted copies stay on disk.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info().Int("removed", removed).Dur("max_age", maxAge).Msg("expired sessions evicted")
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoadPersistedSessions loads all persisted sessions into memory and
// returns how many were loaded
func (m *Manager) LoadPersistedSessions() (int, error) {
	if m.persistence == nil {
		return 0, nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loadedCount := 0
	for _, id := range sessionIDs {
		key := normalizeID(id)

		m.mu.RLock()
		_, exists := m.sessions[key]
		m.mu.RUnlock()
		if exists {
			continue
		}

		session, err := m.load(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("session", id).Msg("skipping persisted session")
			continue
		}

		m.mu.Lock()
		m.sessions[key] = session
		m.mu.Unlock()
		loadedCount++
	}

	if loadedCount > 0 {
		m.logger.Info().Int("count", loadedCount).Msg("loaded persisted sessions")
	}

	return loadedCount, nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessions := m.List()

	errorCount := 0
	for _, session := range sessions {
		if err := m.persistence.Save(session); err != nil {
			m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}

// Close flushes every session and releases the storage
func (m *Manager) Close() error {
	if m.persistence == nil {
		return nil
	}

	saveErr := m.SaveAllSessions()
	if err := m.persistence.Close(); err != nil {
		return err
	}
	return saveErr
}

// load reads one session from storage. A snapshot that cannot be restored
// is removed so it does not fail every later lookup.
func (m *Manager) load(id string) (*service.Session, error) {
	session, err := m.persistence.Load(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrCorruptSnapshot) {
		m.logger.Warn().Err(err).Str("session", id).Msg("discarding corrupt session")
		if delErr := m.persistence.Delete(id); delErr != nil {
			m.logger.Error().Err(delErr).Str("session", id).Msg("failed to discard corrupt session")
		}
		return nil, ErrSessionNotFound
	}

	return nil, fmt.Errorf("failed to load persisted session: %w", err)
}

// generateSessionID returns an unused short ID. Caller holds m.mu.
func (m *Manager) generateSessionID() (string, error) {
	for range maxIDAttempts {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionIDLength]
		if m.sessionExists(id) {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("could not generate a unique session ID")
}

// sessionExists checks if a session is in memory. Caller holds m.mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[id]
	return exists
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

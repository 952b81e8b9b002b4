package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/logtext"
)

// ErrNotFound is wrapped by the session and config lookup misses, so callers
// can test for it without importing those packages
var ErrNotFound = errors.New("not found")

const (
	defaultLogLimit = 20
	maxLogLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger zerolog.Logger) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(session *Session) *SessionInfo {
	configName := ""
	if session.Config != nil {
		configName = session.Config.Name
	}
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(configName),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState().Clone(),
		GameConfig:     session.Config,
	}
}

// CreateSession creates a new game session. The first player's dice are
// already rolled when it returns.
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.resolveConfig(req)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("session", session.ID).
		Str("config", config.Name).
		Int("players", config.NumPlayers).
		Msg("session created")

	info := s.sessionInfo(session)
	if req.ConfigName != "" {
		info.ConfigName = req.ConfigName
	}
	return info, nil
}

// resolveConfig starts from the named (or default) preset and applies the
// request's overrides to a copy
func (s *gameServiceImpl) resolveConfig(req CreateSessionRequest) (*engine.GameConfig, error) {
	var base *engine.GameConfig
	if req.ConfigName != "" {
		loaded, err := s.configs.LoadConfig(req.ConfigName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := make([]string, 0, len(availableConfigs))
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %s: %w",
						req.ConfigName, strings.Join(configIDs, ", "), err)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", req.ConfigName, err)
		}
		base = loaded
	} else {
		base = s.configs.GetDefault()
	}

	config := *base
	config.PlayerNames = append([]string(nil), base.PlayerNames...)

	if req.NumPlayers != 0 {
		config.NumPlayers = req.NumPlayers
		// Inherited names never outnumber the seats
		if len(config.PlayerNames) > config.NumPlayers && req.PlayerNames == nil {
			config.PlayerNames = config.PlayerNames[:config.NumPlayers]
		}
	}
	if req.PlayerNames != nil {
		config.PlayerNames = append([]string(nil), req.PlayerNames...)
	}
	if req.Language != "" {
		config.Language = req.Language
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	s.logger.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// RollDice rerolls the unlocked dice
func (s *gameServiceImpl) RollDice(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "roll_dice", func(e *engine.GameEngine) (bool, string) {
		if e.IsGameOver() {
			return false, "The game is over"
		}
		e.RollDice()
		return true, ""
	})
}

// ToggleDieSelection selects or deselects a die for the next move
func (s *gameServiceImpl) ToggleDieSelection(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	return s.act(sessionID, "select_die", func(e *engine.GameEngine) (bool, string) {
		if !e.ToggleDieSelection(index) {
			return false, fmt.Sprintf("Die %d cannot be selected", index)
		}
		return true, fmt.Sprintf("Selected sum is %d", e.GetSelectedDiceSum())
	})
}

// ToggleDieLock keeps a die out of the next roll
func (s *gameServiceImpl) ToggleDieLock(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	return s.act(sessionID, "lock_die", func(e *engine.GameEngine) (bool, string) {
		if !e.ToggleDieLock(index) {
			return false, fmt.Sprintf("Die %d cannot be locked", index)
		}
		if e.GetState().Dice[index].Locked {
			return true, fmt.Sprintf("Die %d locked", index)
		}
		return true, fmt.Sprintf("Die %d unlocked", index)
	})
}

// ChangeDieValue turns a changeable 1 into another face
func (s *gameServiceImpl) ChangeDieValue(ctx context.Context, sessionID string, index, value int) (*ActionResult, error) {
	return s.act(sessionID, "change_die", func(e *engine.GameEngine) (bool, string) {
		if !e.ChangeDieValue(index, value) {
			return false, fmt.Sprintf("Die %d cannot be changed to %d", index, value)
		}
		return true, ""
	})
}

// ClearDiceSelection deselects every die
func (s *gameServiceImpl) ClearDiceSelection(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "clear_selection", func(e *engine.GameEngine) (bool, string) {
		e.ClearDiceSelection()
		return true, "Selection cleared"
	})
}

// RemoveLastDie deselects the highest-index selected die
func (s *gameServiceImpl) RemoveLastDie(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "remove_last_die", func(e *engine.GameEngine) (bool, string) {
		if !e.RemoveLastDie() {
			return false, "No die is selected"
		}
		return true, fmt.Sprintf("Selected sum is %d", e.GetSelectedDiceSum())
	})
}

// MoveGoat spends the selected dice on a mountain
func (s *gameServiceImpl) MoveGoat(ctx context.Context, sessionID string, mountain int) (*ActionResult, error) {
	return s.act(sessionID, "move_goat", func(e *engine.GameEngine) (bool, string) {
		m := engine.Mountain(mountain)
		if e.MoveGoatUpMountain(m) {
			return true, ""
		}
		return false, explainRejectedMove(e, m)
	})
}

// explainRejectedMove names the first rule a move broke
func explainRejectedMove(e *engine.GameEngine, m engine.Mountain) string {
	sum := e.GetSelectedDiceSum()
	switch {
	case e.IsGameOver():
		return "The game is over"
	case !m.Valid():
		return fmt.Sprintf("Mountain %d does not exist, choose %d-%d", int(m), int(engine.Mountains[0]), int(engine.Mountains[len(engine.Mountains)-1]))
	case sum == 0:
		return "Select dice first"
	case sum != int(m):
		return fmt.Sprintf("Selected dice sum to %d, not %d", sum, int(m))
	default:
		return fmt.Sprintf("No point tokens left on mountain %d", int(m))
	}
}

// NextTurn hands play to the next player
func (s *gameServiceImpl) NextTurn(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "next_turn", func(e *engine.GameEngine) (bool, string) {
		if e.IsGameOver() {
			return false, "The game is over"
		}
		e.NextTurn()
		return true, ""
	})
}

// Reset starts the session over. Nil playerNames keeps the current names.
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string, playerNames []string) (*ActionResult, error) {
	return s.act(sessionID, "reset", func(e *engine.GameEngine) (bool, string) {
		if playerNames != nil && len(playerNames) > e.GetState().NumPlayers {
			return false, fmt.Sprintf("%d names given for %d players", len(playerNames), e.GetState().NumPlayers)
		}
		e.Reset(playerNames)
		e.RollDice()
		return true, "Game reset"
	})
}

// act runs one engine command under the service lock and reports the log
// entries it produced
func (s *gameServiceImpl) act(sessionID, action string, fn func(e *engine.GameEngine) (bool, string)) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	before := eng.GetState()
	logLen := len(before.GameLog)

	success, message := fn(eng)

	state := eng.GetState()
	// Reset swaps in a fresh state whose whole log is new
	if state != before {
		logLen = 0
	}
	renderer := logtext.NewRenderer(state.Language)
	events := renderLines(renderer, state.GameLog[min(logLen, len(state.GameLog)):])

	if success && message == "" && len(events) > 0 {
		message = events[len(events)-1].Text
	}

	if success {
		if err := s.sessions.Save(sess.ID); err != nil {
			s.logger.Warn().Err(err).Str("session", sess.ID).Str("action", action).Msg("failed to persist session")
		}
	}

	s.logger.Debug().
		Str("session", sess.ID).
		Str("action", action).
		Bool("success", success).
		Int("events", len(events)).
		Msg("action")

	return &ActionResult{
		Success:      success,
		Action:       action,
		Message:      message,
		GameState:    state.Clone(),
		Events:       events,
		SelectedSum:  eng.GetSelectedDiceSum(),
		ValidTargets: eng.GetValidMountainTargets(),
		GameOver:     state.GameOver,
	}, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetGameLog returns a page of the rendered game log
func (s *gameServiceImpl) GetGameLog(ctx context.Context, sessionID string, opts LogOptions) (*LogResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	history := state.GameLog
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLogLimit
	}
	if opts.Limit > maxLogLimit {
		opts.Limit = maxLogLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var page []engine.LogEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			page = append(page, history[i])
		}
	} else if start < total {
		page = history[start:end]
	}

	return &LogResponse{
		Entries:      renderLines(logtext.NewRenderer(state.Language), page),
		TotalEntries: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// GetWinners reports the winners, or the current leaders of a running game
func (s *gameServiceImpl) GetWinners(ctx context.Context, sessionID string) (*WinnersResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	winners := eng.GetWinners()
	for i := range winners {
		winners[i].CellsOccupied = slices.Clone(winners[i].CellsOccupied)
	}
	result := &WinnersResult{
		GameOver: eng.IsGameOver(),
		Winners:  winners,
	}
	if len(winners) > 0 {
		result.Score = winners[0].Score
	}

	state := eng.GetState()
	if result.GameOver {
		// The game_ended entry carries the announcement
		for i := len(state.GameLog) - 1; i >= 0; i-- {
			if state.GameLog[i].Kind == engine.EventGameEnded {
				result.Message = logtext.NewRenderer(state.Language).Render(state.GameLog[i])
				break
			}
		}
	} else {
		result.Message = "Game in progress, showing current leaders"
	}

	return result, nil
}

// UpdatePreferences stores the presentation preferences
func (s *gameServiceImpl) UpdatePreferences(ctx context.Context, sessionID string, update PreferencesUpdate) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	if update.Language != nil {
		language := strings.TrimSpace(*update.Language)
		if language == "" {
			language = engine.DefaultLanguage
		}
		eng.SetLanguage(language)
	}
	if update.SoundMuted != nil && *update.SoundMuted != eng.GetState().SoundMuted {
		eng.ToggleSoundMuted()
	}

	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID).Msg("failed to persist preferences")
	}
	return eng.GetState().Clone(), nil
}

// ExportState returns the engine snapshot of a session
func (s *gameServiceImpl) ExportState(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", err
	}
	return sess.Engine.Serialize()
}

// ImportState starts a new session from a snapshot
func (s *gameServiceImpl) ImportState(ctx context.Context, snapshot string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Import("", snapshot)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("session", session.ID).Msg("session imported")
	return s.sessionInfo(session), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// getSession looks a session up and marks it accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sess.ID)
	return sess, nil
}

func renderLines(renderer *logtext.Renderer, entries []engine.LogEntry) []LogLine {
	lines := make([]LogLine, len(entries))
	for i, entry := range entries {
		lines[i] = LogLine{LogEntry: entry, Text: renderer.Render(entry)}
	}
	return lines
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/wricardo/mountain-goats/game/config"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
	"github.com/wricardo/mountain-goats/game/session"
	"github.com/wricardo/mountain-goats/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// NewServer creates a new API server. hub may be nil to disable the
// WebSocket stream.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/import", s.handleImportState).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Dice
	api.HandleFunc("/sessions/{id}/roll", s.handleRollDice).Methods("POST")
	api.HandleFunc("/sessions/{id}/dice/clear", s.handleClearSelection).Methods("POST")
	api.HandleFunc("/sessions/{id}/dice/remove-last", s.handleRemoveLastDie).Methods("POST")
	api.HandleFunc("/sessions/{id}/dice/{index:[0-9]+}/select", s.handleSelectDie).Methods("POST")
	api.HandleFunc("/sessions/{id}/dice/{index:[0-9]+}/lock", s.handleLockDie).Methods("POST")
	api.HandleFunc("/sessions/{id}/dice/{index:[0-9]+}/value", s.handleChangeDie).Methods("POST")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMoveGoat).Methods("POST")
	api.HandleFunc("/sessions/{id}/next-turn", s.handleNextTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/log", s.handleGetLog).Methods("GET")
	api.HandleFunc("/sessions/{id}/winners", s.handleGetWinners).Methods("GET")
	api.HandleFunc("/sessions/{id}/preferences", s.handleUpdatePreferences).Methods("PATCH")
	api.HandleFunc("/sessions/{id}/export", s.handleExportState).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The WebSocket upgrade needs the raw writer for hijacking
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	}
	return fallback
}

// decodeBody decodes an optional JSON body. An empty body leaves dst as is.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		service.CreateSessionRequest
		ConfigID string `json:"config_id,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// config_id is accepted as an alias of config_name
	if req.ConfigName == "" {
		req.ConfigName = req.ConfigID
	}

	info, err := s.service.CreateSession(r.Context(), req.CreateSessionRequest)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Dice Handlers

func (s *Server) handleRollDice(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.RollDice(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.ClearDiceSelection(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleRemoveLastDie(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.RemoveLastDie(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleSelectDie(w http.ResponseWriter, r *http.Request) {
	sessionID, index := mux.Vars(r)["id"], dieIndex(r)
	result, err := s.service.ToggleDieSelection(r.Context(), sessionID, index)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleLockDie(w http.ResponseWriter, r *http.Request) {
	sessionID, index := mux.Vars(r)["id"], dieIndex(r)
	result, err := s.service.ToggleDieLock(r.Context(), sessionID, index)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleChangeDie(w http.ResponseWriter, r *http.Request) {
	sessionID, index := mux.Vars(r)["id"], dieIndex(r)

	var req struct {
		Value *int `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil || req.Value == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain a value")
		return
	}

	result, err := s.service.ChangeDieValue(r.Context(), sessionID, index, *req.Value)
	s.respondAction(w, sessionID, result, err)
}

// dieIndex reads the route's index; the route pattern guarantees digits
func dieIndex(r *http.Request) int {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return -1
	}
	return index
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMoveGoat(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Mountain *int `json:"mountain"`
	}
	if err := decodeBody(r, &req); err != nil || req.Mountain == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain a mountain")
		return
	}

	result, err := s.service.MoveGoat(r.Context(), sessionID, *req.Mountain)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.NextTurn(r.Context(), sessionID)
	s.respondAction(w, sessionID, result, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		PlayerNames []string `json:"player_names,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Reset(r.Context(), sessionID, req.PlayerNames)
	s.respondAction(w, sessionID, result, err)
}

// respondAction writes an ActionResult and pushes accepted changes to the
// session's WebSocket clients. Rejected commands are still 200 responses.
func (s *Server) respondAction(w http.ResponseWriter, sessionID string, result *service.ActionResult, err error) {
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if result.Success && s.hub != nil {
		s.hub.BroadcastToSession(hubKey(sessionID), result.GameState)
	}

	s.logger.Info().
		Str("session", sessionID).
		Str("action", result.Action).
		Bool("success", result.Success).
		Str("message", result.Message).
		Msg("action")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	opts := service.LogOptions{Page: 1, Limit: 20, Order: "desc"}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	resp, err := s.service.GetGameLog(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWinners(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetWinners(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var update service.PreferencesUpdate
	if err := decodeBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.UpdatePreferences(r.Context(), sessionID, update)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(hubKey(sessionID), state)
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.ExportState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	// The snapshot already is JSON
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(snapshot))
}

func (s *Server) handleImportState(w http.ResponseWriter, r *http.Request) {
	var snapshot json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		respondError(w, http.StatusBadRequest, "Request body must be a game state snapshot")
		return
	}

	info, err := s.service.ImportState(r.Context(), string(snapshot))
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Remove .json extension if present
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	gameConfig, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, gameConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if gameConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), gameConfig.Name, &gameConfig); err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": gameConfig.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket streaming is disabled")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	s.hub.ServeWS(w, r, hubKey(info.ID))
}

// hubKey matches the session manager's case-insensitive IDs
func hubKey(sessionID string) string {
	return strings.ToLower(strings.TrimSpace(sessionID))
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

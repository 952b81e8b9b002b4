// Command mountain-goats serves the Mountain Goats game.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, the WebSocket stream and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" checks the preset files in a config directory
//  4. "simulate" plays automated games and prints statistics
//  5. "version" prints the version
//
// Settings come from the environment (MOUNTAIN_GOATS_*, optionally from a
// .env file) and can be overridden with flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mountain-goats/api"
	"github.com/wricardo/mountain-goats/game/bot"
	"github.com/wricardo/mountain-goats/game/config"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
	"github.com/wricardo/mountain-goats/game/session"
	"github.com/wricardo/mountain-goats/transport/mcp"
	"github.com/wricardo/mountain-goats/transport/websocket"
	"github.com/wricardo/mountain-goats/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mountain Goats Server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", envErr)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "mountain-goats",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "server",
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: append(settingsFlags(),
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "Expose the server through an ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
				),
				Action: runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags:   settingsFlags(),
				Action:  runStdioMCP,
			},
			{
				Name:      "validate",
				Usage:     "Validate the preset files of a config directory",
				ArgsUsage: "[dir]",
				Flags:     settingsFlags(),
				Action:    runValidate,
			},
			{
				Name:  "simulate",
				Usage: "Play automated games and print statistics",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 20, Usage: "Number of games"},
					&cli.IntFlag{Name: "players", Value: engine.MinPlayers, Usage: "Players per game"},
					&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first game"},
					&cli.IntFlag{Name: "max-turns", Value: 2000, Usage: "Player turns before a game is abandoned"},
				},
				Action: runSimulate,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// settingsFlags override the environment settings
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (host:port)"},
		&cli.StringFlag{Name: "config-dir", Usage: "Directory containing game presets"},
		&cli.StringFlag{Name: "store", Usage: "Session store: memory, file, sqlite or bolt"},
		&cli.StringFlag{Name: "data-dir", Usage: "Directory for persisted sessions"},
		&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		&cli.DurationFlag{Name: "session-ttl", Usage: "Evict sessions idle for longer than this (0 keeps them)"},
	}
}

// resolveSettings reads the environment and applies the flags that were set
func resolveSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("addr") {
		host, port, err := net.SplitHostPort(cmd.String("addr"))
		if err != nil {
			return nil, fmt.Errorf("invalid addr: %w", err)
		}
		settings.Host = host
		if _, err := fmt.Sscanf(port, "%d", &settings.Port); err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", port, err)
		}
	}
	if cmd.IsSet("config-dir") {
		settings.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("store") {
		settings.Store = cmd.String("store")
	}
	if cmd.IsSet("data-dir") {
		settings.DataDir = cmd.String("data-dir")
	}
	if cmd.IsSet("log-level") {
		settings.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("session-ttl") {
		settings.SessionTTL = cmd.Duration("session-ttl")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// newLogger builds the root console logger. Logs go to w so stdio MCP keeps
// stdout for the protocol.
func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger(), nil
}

// openPersistence creates the session store selected by the settings.
// The memory store has no persistence.
func openPersistence(settings *config.Settings) (session.SessionPersistence, error) {
	switch settings.Store {
	case config.StoreMemory:
		return nil, nil
	case config.StoreFile:
		return session.NewFilePersistence(settings.DataDir)
	}

	if err := os.MkdirAll(settings.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	switch settings.Store {
	case config.StoreSQLite:
		return session.NewSQLitePersistence(filepath.Join(settings.DataDir, "sessions.db"))
	case config.StoreBolt:
		return session.NewBoltPersistence(filepath.Join(settings.DataDir, "sessions.bolt"))
	}
	return nil, fmt.Errorf("unknown store %q", settings.Store)
}

// services bundles what the commands share
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
}

// initializeServices wires session/config managers and the game service
func initializeServices(settings *config.Settings, logger zerolog.Logger) (*services, error) {
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := openPersistence(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	var sessionManager *session.Manager
	if persistence != nil {
		sessionManager = session.NewManagerWithPersistence(persistence, logger)
		if _, err := sessionManager.LoadPersistedSessions(); err != nil {
			logger.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		sessionManager = session.NewManager(logger)
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager, logger),
		sessions:    sessionManager,
		persistence: persistence,
	}, nil
}

// startBackground runs the session maintenance routines until ctx is done
func (s *services) startBackground(ctx context.Context, settings *config.Settings, logger zerolog.Logger) {
	if settings.SessionTTL > 0 {
		go sessionCleanupRoutine(ctx, s.sessions, settings.SessionTTL, logger)
	}
	if settings.Store == config.StoreFile {
		go filesystemSyncRoutine(ctx, s.sessions, s.persistence, logger)
	}
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, logger zerolog.Logger) {
	interval := min(ttl/4, time.Hour)
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info().Int("count", removed).Msg("evicted expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory whose files were deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				logger.Info().Str("session", sess.ID).Msg("pruned session from memory (file deleted)")
			}
		}
	}
}

// newMux mounts the API and an /mcp endpoint proxying to baseURL
func newMux(apiServer http.Handler, baseURL string) *http.ServeMux {
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mux
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp
// endpoint. With --ngrok it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	svc, err := initializeServices(settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.sessions.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to flush sessions")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.startBackground(ctx, settings, logger)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	addr := settings.Addr()
	mux := newMux(api.NewServer(svc.game, hub, logger), "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().
			Str("addr", addr).
			Str("store", settings.Store).
			Str("version", Version).
			Msg("HTTP server listening")
		logger.Info().Msgf("REST API: http://%s/api", addr)
		logger.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logger.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, settings, mux, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, settings *config.Settings, handler http.Handler, logger zerolog.Logger) {
	logger = logger.With().Str("component", "ngrok").Logger()

	authToken := settings.NgrokAuthToken
	if authToken == "" {
		// Also support the underscore spelling
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().Str("url", ngrokURL).Msg("tunnel established")
	logger.Info().Msgf("REST API (ngrok): %s/api", ngrokURL)
	logger.Info().Msgf("MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error().Err(err).Msg("tunnel server error")
	}
	logger.Info().Msg("tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address; otherwise it starts an internal one on a random
// loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	externalURL := "http://" + settings.Addr()
	baseURL := externalURL

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		logger.Info().Str("url", externalURL).Msg("using external API server")
	} else {
		if resp != nil {
			resp.Body.Close()
		}

		svc, err := initializeServices(settings, logger)
		if err != nil {
			return err
		}
		defer svc.sessions.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		svc.startBackground(ctx, settings, logger)

		hub := websocket.NewHub(logger)
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info().Str("url", baseURL).Msg("started internal API server")
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runValidate validates every preset of a directory
func runValidate(ctx context.Context, cmd *cli.Command) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	dir := settings.ConfigDir
	if cmd.Args().Present() {
		dir = cmd.Args().First()
	}

	results, err := validate.Dir(dir)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	invalid := 0
	for _, result := range results {
		status := "✓ VALID"
		if !result.Valid {
			status = "✗ INVALID"
			invalid++
		}
		fmt.Fprintf(out, "%s: %s\n", result.File, status)
		for _, msg := range result.Messages {
			fmt.Fprintf(out, "  %s\n", msg)
		}
	}

	fmt.Fprintf(out, "\n%d/%d presets valid\n", len(results)-invalid, len(results))
	if invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d invalid presets", invalid), 1)
	}
	return nil
}

// runSimulate plays seeded games with the exhaustive planner
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	games := int(cmd.Int("games"))
	players := int(cmd.Int("players"))
	seed := int64(cmd.Int("seed"))
	maxTurns := int(cmd.Int("max-turns"))

	if games <= 0 {
		return fmt.Errorf("games must be positive")
	}
	gameConfig := &engine.GameConfig{Name: "simulation", NumPlayers: players}
	if err := engine.ValidateGameConfig(gameConfig); err != nil {
		return err
	}

	wins := make([]int, players)
	finished, totalTurns, totalMoves, totalWinning := 0, 0, 0, 0
	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		e, err := engine.NewEngine(gameConfig, engine.WithSeed(seed+int64(i)))
		if err != nil {
			return err
		}
		e.RollDice()

		report, err := bot.PlayGame(e, bot.Exhaustive{}, maxTurns)
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		totalTurns += report.Turns
		totalMoves += report.Moves
		if !report.Finished {
			continue
		}
		finished++

		best := 0
		for seat, score := range report.Scores {
			best = max(best, score)
			for _, name := range report.Winners {
				if e.GetState().Players[seat].Name == name {
					wins[seat]++
				}
			}
		}
		totalWinning += best
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Games: %d (finished %d)\n", games, finished)
	fmt.Fprintf(out, "Average rounds: %.1f\n", float64(totalTurns)/float64(games*players))
	fmt.Fprintf(out, "Average moves per turn: %.2f\n", float64(totalMoves)/float64(max(totalTurns, 1)))
	if finished > 0 {
		fmt.Fprintf(out, "Average winning score: %.1f\n", float64(totalWinning)/float64(finished))
	}
	for seat, count := range wins {
		fmt.Fprintf(out, "Seat %d wins: %d\n", seat+1, count)
	}
	return nil
}

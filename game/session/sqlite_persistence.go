package session

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/wricardo/mountain-goats/game/service"
	_ "modernc.org/sqlite"
)

// SQLitePersistence stores sessions in a SQLite database
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens (or creates) the database and runs migrations.
// Use ":memory:" for a throwaway store.
func NewSQLitePersistence(path string) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}

	s := &SQLitePersistence{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLitePersistence) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			config_name  TEXT NOT NULL,
			current_turn INTEGER NOT NULL DEFAULT 1,
			game_over    INTEGER NOT NULL DEFAULT 0,
			data         TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Save upserts a session
func (s *SQLitePersistence) Save(session *service.Session) error {
	data, payload, err := encodeSession(session)
	if err != nil {
		return err
	}

	state := session.Engine.GetState()
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, config_name, current_turn, game_over, data, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			config_name = excluded.config_name,
			current_turn = excluded.current_turn,
			game_over = excluded.game_over,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, data.ID, data.ConfigName, state.CurrentTurn, state.GameOver, string(payload))
	if err != nil {
		return fmt.Errorf("save session %s: %w", data.ID, err)
	}
	return nil
}

// Load retrieves a session by ID
func (s *SQLitePersistence) Load(id string) (*service.Session, error) {
	var payload string
	err := s.db.QueryRow("SELECT data FROM sessions WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	data, err := DecodePersistedSessionData([]byte(payload))
	if err != nil {
		return nil, err
	}
	return data.Restore()
}

// Delete removes a session
func (s *SQLitePersistence) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all session IDs in ID order
func (s *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM sessions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session is stored
func (s *SQLitePersistence) Exists(id string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM sessions WHERE id = ?", id).Scan(&one)
	return err == nil
}

// CountFinished returns how many stored games are over
func (s *SQLitePersistence) CountFinished() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE game_over = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("count finished sessions: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLitePersistence) Close() error {
	return s.db.Close()
}

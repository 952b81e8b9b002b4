// Package session provides session management for Mountain Goats games.
//
// Manager keeps live sessions in memory, keyed by a lower-cased ID, and
// optionally mirrors them to a SessionPersistence backend:
//
//   - FilePersistence writes one indented JSON file per session
//   - SQLitePersistence upserts rows in a "sessions" table
//   - BoltPersistence stores records in a "sessions" bucket
//
// Every backend stores a PersistedSessionData record whose GameState field
// is the engine snapshot, so a stored session restores to the exact game it
// was, including dice, tokens and the log.
//
// Session Identifiers:
//
// Generated IDs are 8 hex characters. Caller-supplied IDs may use lower-case
// letters, digits, '-' and '_' and are matched case-insensitively.
//
// Usage:
//
//	store, err := session.NewBoltPersistence("sessions/sessions.db")
//	if err != nil {
//		return err
//	}
//	manager := session.NewManagerWithPersistence(store, logger)
//	defer manager.Close()
//
//	if _, err := manager.LoadPersistedSessions(); err != nil {
//		return err
//	}
//	sess, err := manager.Create("", config)
//
// A snapshot that no longer restores is logged and removed from storage.
package session

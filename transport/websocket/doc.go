// Package websocket streams game state to browsers watching a session.
//
// A single Hub owns every connection. Clients subscribe with
// GET /ws?session=<id> and then only listen: after each accepted command the
// API calls BroadcastToSession and every client of that session receives one
// JSON frame:
//
//	{"session_id": "3f9a0c12", "event": "state_update", "game_state": {...}}
//
// The event is "game_over" once the game has ended. BroadcastEvent sends
// arbitrary payloads in the same envelope under the "data" key.
//
// Broadcasts are queued to the Run loop, so they are safe from any
// goroutine. Clients that fall behind are disconnected. Cancelling the
// context passed to Run closes every connection.
package websocket

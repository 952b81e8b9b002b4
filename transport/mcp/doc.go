// Package mcp exposes Mountain Goats to AI agents over the Model Context
// Protocol.
//
// Client registers one tool per game command and forwards each call to the
// REST API, so an agent and a browser can play the same session. Results are
// rendered as plain text: the dice with their indexes and flags, every
// mountain from the top row down, the remaining tokens and the scores.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, game_log, winners
//   - roll_dice, select_die, lock_die, change_die, clear_selection, remove_last_die
//   - move_goat, next_turn, reset_game
//   - list_configs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

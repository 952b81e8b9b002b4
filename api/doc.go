// Package api exposes the Mountain Goats game service over HTTP.
//
// Sessions:
//   - POST /api/sessions - Create a session from a preset and overrides
//   - GET /api/sessions - List sessions (sort, order, limit)
//   - POST /api/sessions/import - Create a session from an exported snapshot
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Dice:
//   - POST /api/sessions/{id}/roll
//   - POST /api/sessions/{id}/dice/{index}/select
//   - POST /api/sessions/{id}/dice/{index}/lock
//   - POST /api/sessions/{id}/dice/{index}/value - {"value": 4}
//   - POST /api/sessions/{id}/dice/clear
//   - POST /api/sessions/{id}/dice/remove-last
//
// Game:
//   - GET /api/sessions/{id}/state
//   - POST /api/sessions/{id}/move - {"mountain": 7}
//   - POST /api/sessions/{id}/next-turn
//   - POST /api/sessions/{id}/reset - {"player_names": [...]}
//   - GET /api/sessions/{id}/log - Paginated, rendered game log
//   - GET /api/sessions/{id}/winners
//   - PATCH /api/sessions/{id}/preferences - {"language": "es", "sound_muted": true}
//   - GET /api/sessions/{id}/export
//
// Presets:
//   - GET /api/configs
//   - GET /api/configs/{name}
//   - POST /api/configs
//
// Commands answer 200 with an ActionResult even when the rules reject them;
// Success is false and Message says why. Unknown sessions are 404.
// Accepted commands are pushed to GET /ws?session={id} subscribers.
package api

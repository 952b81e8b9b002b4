// Package service provides the business logic layer for Mountain Goats.
//
// GameService is the facade every transport talks to. It resolves presets
// into game configs, runs engine commands against a session under a single
// lock, persists the session after each accepted command and reports what
// happened as an ActionResult: the updated state, the new log entries with
// their rendered text, the selected dice sum and the mountain that sum
// targets.
//
// Engine commands never fail with an error. A rejected command returns an
// ActionResult with Success false and a Message naming the broken rule.
// Errors are reserved for unknown sessions (wrapping ErrNotFound), invalid
// presets and malformed snapshots.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	configs, err := config.NewManager("configs")
//	svc := service.NewGameService(sessions, configs, logger)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{ConfigName: "trio"})
//	svc.ToggleDieSelection(ctx, info.ID, 0)
//	svc.ToggleDieSelection(ctx, info.ID, 1)
//	result, err := svc.MoveGoat(ctx, info.ID, 7)
package service

// Package engine provides the rules of the Mountain Goats dice game.
//
// Two to four players each own one goat per mountain. Mountains are
// numbered 5 through 10 and have 4, 4, 3, 3, 2 and 2 rows. On their turn
// a player rolls four dice, groups them, and moves a goat one row up the
// mountain whose number equals a group's sum. Reaching the top scores a
// point token of that mountain's value and knocks any goat already there
// back to the foot. Holding a token from every mountain earns a bonus
// token. Once every bonus token is gone, or three mountains run out of
// point tokens, one more full round is played and the highest score wins.
//
// Core Types:
//
// The Engine interface defines the operations of a game, implemented by
// GameEngine. GameState is the complete, serializable aggregate the engine
// owns; GameConfig describes how a new game is set up.
//
// Rule violations never return errors. Operations that cannot apply return
// false and leave the state untouched. Only Deserialize and NewEngine
// report errors, for malformed snapshots and invalid configurations.
//
// The game log records structured events (LogEntry) rather than text, so
// any presentation layer can render them in its own language.
//
// Usage:
//
//	e, err := engine.NewEngine(&engine.GameConfig{Name: "classic", NumPlayers: 3})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	e.RollDice()
//	e.ToggleDieSelection(0)
//	e.ToggleDieSelection(1)
//	if m := e.GetValidMountainTargets(); len(m) == 1 {
//		e.MoveGoatUpMountain(m[0])
//	}
//	e.NextTurn()
//
// A GameEngine is not safe for concurrent use.
package engine

package bot

import (
	"github.com/wricardo/mountain-goats/game/engine"
)

// Report summarizes one automated game
type Report struct {
	Finished bool     `json:"finished"`
	Turns    int      `json:"turns"`
	Moves    int      `json:"moves"`
	Winners  []string `json:"winners"`
	Scores   []int    `json:"scores"`
}

// PlayTurn plans and plays the current player's turn, then passes play on
func PlayTurn(e *engine.GameEngine, s Strategy) (int, error) {
	plan, err := s.PlanTurn(e)
	if err != nil {
		return 0, err
	}
	moves, err := Apply(e, plan)
	if err != nil {
		return moves, err
	}
	e.NextTurn()
	return moves, nil
}

// PlayGame lets s play every seat until the game ends or maxTurns player
// turns have passed. The engine must already have rolled for the first turn.
func PlayGame(e *engine.GameEngine, s Strategy, maxTurns int) (*Report, error) {
	report := &Report{}
	for !e.IsGameOver() && report.Turns < maxTurns {
		moves, err := PlayTurn(e, s)
		report.Moves += moves
		if err != nil {
			return report, err
		}
		report.Turns++
	}

	state := e.GetState()
	report.Finished = state.GameOver
	for _, p := range state.Players {
		report.Scores = append(report.Scores, p.Score)
	}
	if report.Finished {
		for _, w := range e.GetWinners() {
			report.Winners = append(report.Winners, w.Name)
		}
	}
	return report, nil
}

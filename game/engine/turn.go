package engine

// NextTurn hands play to the next player. After wrapping back to the first
// player it starts a new round; once the grace round after the end
// condition completes, the game ends instead of rolling.
func (e *GameEngine) NextTurn() {
	if e.state.GameEndTriggered && e.state.TurnsSinceEndCondition == 0 {
		idx := e.state.CurrentPlayerIndex
		played := false
		for _, p := range e.state.PlayersPlayedInLastRound {
			if p == idx {
				played = true
				break
			}
		}
		if !played {
			e.state.PlayersPlayedInLastRound = append(e.state.PlayersPlayedInLastRound, idx)
		}
	}

	for i := range e.state.Dice {
		die := &e.state.Dice[i]
		die.Selected = false
		die.Used = false
		die.Locked = false
		die.CanChange = false
	}

	e.state.CurrentPlayerIndex = (e.state.CurrentPlayerIndex + 1) % e.state.NumPlayers
	if e.state.CurrentPlayerIndex == 0 {
		e.state.CurrentTurn++
		if e.state.GameEndTriggered {
			e.state.TurnsSinceEndCondition++
		}
	}

	if e.ShouldEndGame() {
		e.state.GameOver = true
		winners := e.GetWinners()
		names := make([]string, len(winners))
		for i, w := range winners {
			names[i] = w.Name
		}
		score := 0
		if len(winners) > 0 {
			score = winners[0].Score
		}
		e.addLog(EventGameEnded, EventPayload{Winners: names, Score: score})
		return
	}

	e.addLog(EventTurnStarted, EventPayload{Value: e.state.CurrentTurn})
	e.RollDice()
}

// CheckGameEndConditions reports whether every bonus token is claimed or at
// least three mountains have run out of point tokens
func (e *GameEngine) CheckGameEndConditions() bool {
	return AllBonusTokensClaimed(e.state) || EmptyMountains(e.state) >= 3
}

// ShouldEndGame advances the end-game state machine. The first time the end
// condition holds it is only recorded; the game ends once a full round has
// been played since. If the condition stops holding the trigger is cleared.
func (e *GameEngine) ShouldEndGame() bool {
	if !e.CheckGameEndConditions() {
		e.state.GameEndTriggered = false
		e.state.TurnsSinceEndCondition = 0
		e.state.PlayersPlayedInLastRound = []int{}
		return false
	}

	if !e.state.GameEndTriggered {
		e.state.GameEndTriggered = true
		e.state.TurnsSinceEndCondition = 0
		e.state.PlayersPlayedInLastRound = []int{}
		return false
	}

	return e.state.TurnsSinceEndCondition >= 1
}

// GetWinners returns the highest scoring players. Ties go to the most goats
// on mountain tops, then to the goat on the highest mountain top. Players
// still tied after that share the win.
func (e *GameEngine) GetWinners() []Player {
	players := e.state.Players
	if len(players) == 0 {
		return nil
	}

	highest := players[0].Score
	for _, p := range players[1:] {
		highest = max(highest, p.Score)
	}
	var tied []Player
	for _, p := range players {
		if p.Score == highest {
			tied = append(tied, p)
		}
	}
	if len(tied) == 1 {
		return tied
	}

	mostTops := 0
	for _, p := range tied {
		mostTops = max(mostTops, GoatsOnTops(e.state, p.Color))
	}
	var withMostTops []Player
	for _, p := range tied {
		if GoatsOnTops(e.state, p.Color) == mostTops {
			withMostTops = append(withMostTops, p)
		}
	}
	if len(withMostTops) == 1 {
		return withMostTops
	}

	var winner *Player
	var highestTop Mountain
	for i := range withMostTops {
		if top := HighestTop(e.state, withMostTops[i].Color); top > highestTop {
			highestTop = top
			winner = &withMostTops[i]
		}
	}
	if winner != nil {
		return []Player{*winner}
	}
	return withMostTops
}

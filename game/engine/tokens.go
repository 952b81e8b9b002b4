package engine

import "sort"

// ClaimPointToken gives the current player one available point token of
// the given value
func (e *GameEngine) ClaimPointToken(value int) bool {
	for i := range e.state.PointTokens {
		token := &e.state.PointTokens[i]
		if token.Value == value && token.Available {
			token.Available = false
			token.ClaimedBy = intPtr(e.state.CurrentPlayerIndex)
			e.GetCurrentPlayer().Score += value
			return true
		}
	}
	return false
}

// ClaimBonusToken gives the current player the bonus token of the given value
func (e *GameEngine) ClaimBonusToken(value int) bool {
	for i := range e.state.BonusTokens {
		token := &e.state.BonusTokens[i]
		if token.Value == value && token.Available {
			token.Available = false
			token.ClaimedBy = intPtr(e.state.CurrentPlayerIndex)
			e.GetCurrentPlayer().Score += value
			return true
		}
	}
	return false
}

// CheckAndClaimBonusTokens awards the current player one bonus token per
// complete set of point tokens not yet rewarded, highest value first. It
// returns the number of bonus tokens claimed.
func (e *GameEngine) CheckAndClaimBonusTokens() int {
	playerIndex := e.state.CurrentPlayerIndex
	player := e.GetCurrentPlayer()

	completeSets := CompleteSets(e.state, playerIndex)
	alreadyClaimed := BonusTokensClaimedBy(e.state, playerIndex)
	if completeSets <= alreadyClaimed {
		return 0
	}
	toClaim := completeSets - alreadyClaimed

	available := make([]int, 0, len(e.state.BonusTokens))
	for i, token := range e.state.BonusTokens {
		if token.Available {
			available = append(available, i)
		}
	}
	sort.SliceStable(available, func(a, b int) bool {
		return e.state.BonusTokens[available[a]].Value > e.state.BonusTokens[available[b]].Value
	})

	claimed := 0
	for _, i := range available {
		if claimed == toClaim {
			break
		}
		token := &e.state.BonusTokens[i]
		token.Available = false
		token.ClaimedBy = intPtr(playerIndex)
		player.Score += token.Value
		e.addLog(EventBonusClaimed, EventPayload{Value: token.Value})
		claimed++
	}
	return claimed
}

func (e *GameEngine) hasAvailablePointToken(value int) bool {
	for _, token := range e.state.PointTokens {
		if token.Value == value && token.Available {
			return true
		}
	}
	return false
}

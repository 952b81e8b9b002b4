package engine

// ClaimedTokensByMountain counts the point tokens a player holds per mountain
func ClaimedTokensByMountain(state *GameState, playerIndex int) [MountainCount]int {
	var counts [MountainCount]int
	for _, token := range state.PointTokens {
		if token.Available || token.ClaimedBy == nil || *token.ClaimedBy != playerIndex {
			continue
		}
		if m := Mountain(token.Value); m.Valid() {
			counts[m.Index()]++
		}
	}
	return counts
}

// CompleteSets returns how many full sets (one token from every mountain)
// a player holds
func CompleteSets(state *GameState, playerIndex int) int {
	counts := ClaimedTokensByMountain(state, playerIndex)
	sets := counts[0]
	for _, c := range counts[1:] {
		sets = min(sets, c)
	}
	return sets
}

// BonusTokensClaimedBy counts the bonus tokens a player holds
func BonusTokensClaimedBy(state *GameState, playerIndex int) int {
	count := 0
	for _, token := range state.BonusTokens {
		if !token.Available && token.ClaimedBy != nil && *token.ClaimedBy == playerIndex {
			count++
		}
	}
	return count
}

// RemainingPointTokens counts the available point tokens of mountain m
func RemainingPointTokens(state *GameState, m Mountain) int {
	count := 0
	for _, token := range state.PointTokens {
		if token.Value == int(m) && token.Available {
			count++
		}
	}
	return count
}

// EmptyMountains counts mountains with no point tokens left
func EmptyMountains(state *GameState) int {
	empty := 0
	for _, m := range Mountains {
		if RemainingPointTokens(state, m) == 0 {
			empty++
		}
	}
	return empty
}

// AllBonusTokensClaimed reports whether every bonus token is gone
func AllBonusTokensClaimed(state *GameState) bool {
	for _, token := range state.BonusTokens {
		if token.Available {
			return false
		}
	}
	return true
}

// GoatsOnTops counts the mountain tops held by color
func GoatsOnTops(state *GameState, color PlayerColor) int {
	count := 0
	for _, cells := range state.Cells {
		if len(cells) > 0 && containsColor(cells[0].OccupiedBy, color) {
			count++
		}
	}
	return count
}

// HighestTop returns the highest mountain whose top holds color, or 0
func HighestTop(state *GameState, color PlayerColor) Mountain {
	for i := len(Mountains) - 1; i >= 0; i-- {
		cells := state.Cells[Mountains[i].Index()]
		if len(cells) > 0 && containsColor(cells[0].OccupiedBy, color) {
			return Mountains[i]
		}
	}
	return 0
}

// GoatPosition returns the row of color's goat on m, or -1 at the foot
func GoatPosition(state *GameState, m Mountain, color PlayerColor) int {
	return findGoatRow(state.MountainCells(m), color)
}

func containsColor(colors []PlayerColor, color PlayerColor) bool {
	for _, c := range colors {
		if c == color {
			return true
		}
	}
	return false
}

// removeColor drops the first occurrence of color
func removeColor(colors []PlayerColor, color PlayerColor) []PlayerColor {
	for i, c := range colors {
		if c == color {
			return append(colors[:i], colors[i+1:]...)
		}
	}
	return colors
}

func intPtr(v int) *int {
	return &v
}

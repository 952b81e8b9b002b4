package engine

// MoveGoatUpMountain spends the selected dice to move the current player's
// goat one row up mountain m. The selected sum must equal m. A goat at the
// foot enters on the bottom row; a goat already on top claims a point token
// instead and fails if none is left. Reaching the top knocks any other goat
// there back to the foot.
func (e *GameEngine) MoveGoatUpMountain(m Mountain) bool {
	if !m.Valid() || !e.hasSelectedDice() {
		return false
	}

	sum := e.GetSelectedDiceSum()
	if sum != int(m) {
		return false
	}

	cells := e.state.Cells[m.Index()]
	if len(cells) == 0 {
		return false
	}

	player := e.GetCurrentPlayer()
	currentIndex := findGoatRow(cells, player.Color)

	if currentIndex == 0 {
		if !e.hasAvailablePointToken(int(m)) {
			return false
		}
		e.consumeSelectedDice()
		if e.ClaimPointToken(int(m)) {
			e.addLog(EventTokenClaimed, EventPayload{Mountain: m, Value: int(m), AlreadyOnTop: true})
		}
		e.CheckAndClaimBonusTokens()
		return true
	}

	movingFromFoot := currentIndex == -1
	targetIndex := currentIndex - 1
	if movingFromFoot {
		targetIndex = len(cells) - 1
	}
	if targetIndex < 0 {
		return false
	}

	if targetIndex == 0 {
		top := &cells[0]
		if len(top.OccupiedBy) > 0 && !containsColor(top.OccupiedBy, player.Color) {
			foot := e.state.PlayerPieces[m.Index()]
			for _, knocked := range top.OccupiedBy {
				if !containsColor(foot, knocked) {
					foot = append(foot, knocked)
				}
			}
			e.state.PlayerPieces[m.Index()] = foot
			top.OccupiedBy = []PlayerColor{}
		}

		if currentIndex > 0 {
			cells[currentIndex].OccupiedBy = removeColor(cells[currentIndex].OccupiedBy, player.Color)
		}
		top.OccupiedBy = []PlayerColor{player.Color}
		if movingFromFoot {
			e.state.PlayerPieces[m.Index()] = removeColor(e.state.PlayerPieces[m.Index()], player.Color)
		}
		player.CellsOccupied = append(player.CellsOccupied, CellRef{Mountain: m, Row: 0})

		e.consumeSelectedDice()

		if e.hasAvailablePointToken(int(m)) {
			if e.ClaimPointToken(int(m)) {
				e.addLog(EventTokenClaimed, EventPayload{Mountain: m, Value: int(m), Sum: sum})
			}
			e.CheckAndClaimBonusTokens()
		} else {
			e.addLog(EventGoatReachedTop, EventPayload{Mountain: m, Sum: sum})
		}
		return true
	}

	if currentIndex >= 0 && currentIndex != targetIndex {
		cells[currentIndex].OccupiedBy = removeColor(cells[currentIndex].OccupiedBy, player.Color)
	}
	if !containsColor(cells[targetIndex].OccupiedBy, player.Color) {
		cells[targetIndex].OccupiedBy = append(cells[targetIndex].OccupiedBy, player.Color)
	}
	if movingFromFoot {
		e.state.PlayerPieces[m.Index()] = removeColor(e.state.PlayerPieces[m.Index()], player.Color)
	}
	player.CellsOccupied = append(player.CellsOccupied, CellRef{Mountain: m, Row: targetIndex})

	e.consumeSelectedDice()
	e.addLog(EventGoatMoved, EventPayload{Mountain: m, Row: targetIndex, Sum: sum})
	return true
}

// PlacePieceInCell puts the current player's goat directly on a cell. The
// top cell only accepts a goat while empty.
func (e *GameEngine) PlacePieceInCell(m Mountain, row int) bool {
	cells := e.state.MountainCells(m)
	if row < 0 || row >= len(cells) {
		return false
	}

	cell := &cells[row]
	if cell.IsTop && len(cell.OccupiedBy) > 0 {
		return false
	}

	player := e.GetCurrentPlayer()
	if containsColor(cell.OccupiedBy, player.Color) {
		return true
	}

	// The goat leaves the foot or whichever row it held on this mountain
	e.state.PlayerPieces[m.Index()] = removeColor(e.state.PlayerPieces[m.Index()], player.Color)
	for i := range cells {
		cells[i].OccupiedBy = removeColor(cells[i].OccupiedBy, player.Color)
	}

	cell.OccupiedBy = append(cell.OccupiedBy, player.Color)
	player.CellsOccupied = append(player.CellsOccupied, CellRef{Mountain: m, Row: row})
	return true
}

// findGoatRow returns the highest row holding color, or -1 when the goat
// is at the foot
func findGoatRow(cells []Cell, color PlayerColor) int {
	for i, cell := range cells {
		if containsColor(cell.OccupiedBy, color) {
			return i
		}
	}
	return -1
}

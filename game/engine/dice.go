package engine

// RollDice rerolls every unlocked die. When more than one die shows a 1,
// every 1 except the lowest-index one may be changed to 2-6.
func (e *GameEngine) RollDice() {
	if e.state.GameOver {
		return
	}

	for i := range e.state.Dice {
		e.state.Dice[i].CanChange = false
	}

	for i := range e.state.Dice {
		if !e.state.Dice[i].Locked {
			e.state.Dice[i].Value = e.rng.Intn(MaxDieValue) + 1
		}
	}

	ones := 0
	for _, die := range e.state.Dice {
		if die.Value == 1 {
			ones++
		}
	}
	if ones > 1 {
		firstOneFound := false
		for i := range e.state.Dice {
			if e.state.Dice[i].Value != 1 {
				continue
			}
			if !firstOneFound {
				firstOneFound = true
				continue
			}
			e.state.Dice[i].CanChange = true
		}
	}

	e.addLog(EventDiceRolled, EventPayload{Dice: e.DiceValues()})
}

// DiceValues returns the face value of each die in order
func (e *GameEngine) DiceValues() []int {
	values := make([]int, len(e.state.Dice))
	for i, die := range e.state.Dice {
		values[i] = die.Value
	}
	return values
}

// ChangeDieValue sets a changeable die to a value between 2 and 6
func (e *GameEngine) ChangeDieValue(index, value int) bool {
	die := e.die(index)
	if die == nil || !die.CanChange {
		return false
	}
	if value < MinChangeTo || value > MaxDieValue {
		return false
	}

	die.Value = value
	die.CanChange = false
	e.addLog(EventDieChanged, EventPayload{DieIndex: index, Value: value})
	return true
}

// ToggleDieLock flips the lock on a die
func (e *GameEngine) ToggleDieLock(index int) bool {
	die := e.die(index)
	if die == nil {
		return false
	}
	die.Locked = !die.Locked
	return true
}

// ToggleDieSelection flips the selection of an unused, unlocked die
func (e *GameEngine) ToggleDieSelection(index int) bool {
	die := e.die(index)
	if die == nil || die.Used || die.Locked {
		return false
	}
	die.Selected = !die.Selected
	return true
}

// ClearDiceSelection deselects every die
func (e *GameEngine) ClearDiceSelection() {
	for i := range e.state.Dice {
		e.state.Dice[i].Selected = false
	}
}

// RemoveLastDie deselects the highest-index selectable die that is selected
func (e *GameEngine) RemoveLastDie() bool {
	for i := len(e.state.Dice) - 1; i >= 0; i-- {
		die := &e.state.Dice[i]
		if die.Selected && !die.Used && !die.Locked {
			die.Selected = false
			return true
		}
	}
	return false
}

// GetSelectedDiceSum sums the selected dice that have not been used
func (e *GameEngine) GetSelectedDiceSum() int {
	sum := 0
	for _, die := range e.state.Dice {
		if die.Selected && !die.Used {
			sum += die.Value
		}
	}
	return sum
}

// GetValidMountainTargets returns the mountain matching the selected sum, if any
func (e *GameEngine) GetValidMountainTargets() []Mountain {
	targets := []Mountain{}
	if m := Mountain(e.GetSelectedDiceSum()); m.Valid() {
		targets = append(targets, m)
	}
	return targets
}

func (e *GameEngine) die(index int) *Die {
	if index < 0 || index >= len(e.state.Dice) {
		return nil
	}
	return &e.state.Dice[index]
}

// consumeSelectedDice marks the selected, unused dice as used
func (e *GameEngine) consumeSelectedDice() {
	for i := range e.state.Dice {
		die := &e.state.Dice[i]
		if die.Selected && !die.Used {
			die.Used = true
			die.Selected = false
		}
	}
}

func (e *GameEngine) hasSelectedDice() bool {
	for _, die := range e.state.Dice {
		if die.Selected && !die.Used {
			return true
		}
	}
	return false
}

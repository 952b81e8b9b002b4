// Package bot plays Mountain Goats turns automatically. The exhaustive
// planner tries every way to spend the current roll on a copy of the game
// and keeps the plan that leaves the player best off.
package bot

import (
	"fmt"

	"github.com/wricardo/mountain-goats/game/engine"
)

// Move spends a group of dice on one mountain
type Move struct {
	Dice     []int           `json:"dice"`
	Mountain engine.Mountain `json:"mountain"`
}

// Plan is one turn's worth of decisions
type Plan struct {
	// Changes maps die index to the value a changeable 1 becomes
	Changes map[int]int `json:"changes,omitempty"`
	Moves   []Move      `json:"moves"`
	Value   int         `json:"value"`
}

// Strategy decides how the current player spends the roll
type Strategy interface {
	PlanTurn(e *engine.GameEngine) (Plan, error)
}

// Exhaustive evaluates every dice grouping and every change of a changeable
// die, in every order
type Exhaustive struct{}

// PlanTurn returns the best plan for the current player. An empty plan means
// no grouping reaches a mountain.
func (Exhaustive) PlanTurn(e *engine.GameEngine) (Plan, error) {
	snapshot, err := e.Serialize()
	if err != nil {
		return Plan{}, err
	}

	state := e.GetState()
	player := state.CurrentPlayerIndex
	best := Plan{Value: Evaluate(state, player)}

	for _, changes := range changeOptions(state.Dice) {
		values := make([]int, len(state.Dice))
		for i, die := range state.Dice {
			values[i] = die.Value
			if v, ok := changes[i]; ok {
				values[i] = v
			}
		}

		for _, moves := range groupings(state.Dice, values) {
			clone, err := engine.Deserialize(snapshot)
			if err != nil {
				return Plan{}, err
			}
			plan := Plan{Changes: changes, Moves: moves}
			if _, err := Apply(clone, plan); err != nil {
				// A later move of this ordering is not legal here
				continue
			}
			plan.Value = Evaluate(clone.GetState(), player)
			if plan.Value > best.Value || (plan.Value == best.Value && len(plan.Moves) > len(best.Moves)) {
				best = plan
			}
		}
	}

	return best, nil
}

// Evaluate scores a position for a player: points dominate, then how far the
// goats have climbed weighted by each mountain's value
func Evaluate(state *engine.GameState, player int) int {
	color := state.Players[player].Color
	value := state.Players[player].Score * 100
	for _, m := range engine.Mountains {
		row := engine.GoatPosition(state, m, color)
		if row < 0 {
			continue
		}
		value += (m.Height() - row) * int(m) * 10 / m.Height()
	}
	return value
}

// Apply performs a plan on e for the current player and returns how many
// moves were made. It stops at the first rejected command.
func Apply(e *engine.GameEngine, plan Plan) (int, error) {
	for index, value := range plan.Changes {
		if !e.ChangeDieValue(index, value) {
			return 0, fmt.Errorf("die %d cannot be changed to %d", index, value)
		}
	}

	for n, move := range plan.Moves {
		e.ClearDiceSelection()
		for _, index := range move.Dice {
			if !e.ToggleDieSelection(index) {
				return n, fmt.Errorf("die %d cannot be selected", index)
			}
		}
		if !e.MoveGoatUpMountain(move.Mountain) {
			return n, fmt.Errorf("move to mountain %d rejected", move.Mountain)
		}
	}
	return len(plan.Moves), nil
}

// changeOptions lists every combination of values for the changeable dice,
// including leaving them as they are
func changeOptions(dice [engine.DiceCount]engine.Die) []map[int]int {
	options := []map[int]int{nil}
	for i, die := range dice {
		if !die.CanChange || die.Used {
			continue
		}
		next := make([]map[int]int, 0, len(options)*(engine.MaxDieValue-engine.MinChangeTo+2))
		for _, option := range options {
			next = append(next, option)
			for v := engine.MinChangeTo; v <= engine.MaxDieValue; v++ {
				changed := make(map[int]int, len(option)+1)
				for k, val := range option {
					changed[k] = val
				}
				changed[i] = v
				next = append(next, changed)
			}
		}
		options = next
	}
	return options
}

// groupings assigns each available die to an ordered group or leaves it
// out, and keeps assignments where every group sums to a mountain
func groupings(dice [engine.DiceCount]engine.Die, values []int) [][]Move {
	var available []int
	for i, die := range dice {
		if !die.Used && !die.Locked {
			available = append(available, i)
		}
	}

	var result [][]Move
	assignment := make([]int, len(available))
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(available) {
			if moves, ok := buildMoves(available, assignment, values); ok {
				result = append(result, moves)
			}
			return
		}
		// -1 leaves the die unused
		for group := -1; group < len(available); group++ {
			assignment[pos] = group
			walk(pos + 1)
		}
	}
	walk(0)
	return result
}

func buildMoves(available, assignment, values []int) ([]Move, bool) {
	groups := make([][]int, len(available))
	for pos, group := range assignment {
		if group >= 0 {
			groups[group] = append(groups[group], available[pos])
		}
	}

	var moves []Move
	seenEmpty := false
	for _, dice := range groups {
		if len(dice) == 0 {
			seenEmpty = true
			continue
		}
		// Groups are filled in order so each grouping is built once
		if seenEmpty {
			return nil, false
		}
		sum := 0
		for _, index := range dice {
			sum += values[index]
		}
		m := engine.Mountain(sum)
		if !m.Valid() {
			return nil, false
		}
		moves = append(moves, Move{Dice: dice, Mountain: m})
	}
	return moves, len(moves) > 0
}

package engine

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestRollDiceValuesInRange(t *testing.T) {
	e := createTestEngine(t, 2)

	for i := 0; i < 200; i++ {
		e.RollDice()
		for j, die := range e.state.Dice {
			if die.Value < 1 || die.Value > 6 {
				t.Fatalf("Roll %d: die %d has value %d", i, j, die.Value)
			}
		}
	}

	entry := lastLog(e)
	if entry.Kind != EventDiceRolled {
		t.Errorf("Expected dice_rolled entry, got %s", entry.Kind)
	}
	if !reflect.DeepEqual(entry.Payload.Dice, e.DiceValues()) {
		t.Errorf("Logged dice %v do not match %v", entry.Payload.Dice, e.DiceValues())
	}
}

func TestRollDiceKeepsLockedDice(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 6, 6, 6, 6)
	e.ToggleDieLock(1)
	e.ToggleDieLock(3)

	for i := 0; i < 50; i++ {
		e.RollDice()
		if e.state.Dice[1].Value != 6 || e.state.Dice[3].Value != 6 {
			t.Fatalf("Locked dice changed: %v", e.DiceValues())
		}
	}
}

func TestRollDiceAllOnes(t *testing.T) {
	e := createTestEngine(t, 2, WithRand(rand.New(onesSource{})))

	e.RollDice()

	if !reflect.DeepEqual(e.DiceValues(), []int{1, 1, 1, 1}) {
		t.Fatalf("Expected all ones, got %v", e.DiceValues())
	}
	if e.state.Dice[0].CanChange {
		t.Error("The first 1 should stay fixed")
	}
	changeable := 0
	for _, die := range e.state.Dice {
		if die.CanChange {
			changeable++
		}
	}
	if changeable != 3 {
		t.Errorf("Expected 3 changeable dice, got %d", changeable)
	}
}

func TestRollDiceLockedOnes(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 4, 1, 3, 1)
	e.ToggleDieLock(0)
	e.ToggleDieLock(1)
	e.ToggleDieLock(2)
	e.ToggleDieLock(3)

	e.RollDice()

	expected := []bool{false, false, false, true}
	for i, die := range e.state.Dice {
		if die.CanChange != expected[i] {
			t.Errorf("Die %d: expected canChange %v, got %v", i, expected[i], die.CanChange)
		}
	}

	// A single 1 is never changeable, and old flags are cleared
	e.state.Dice[3].Value = 5
	e.RollDice()
	for i, die := range e.state.Dice {
		if die.CanChange {
			t.Errorf("Die %d should not be changeable", i)
		}
	}
}

func TestRollDiceGameOver(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 2, 3, 4, 5)
	e.state.GameOver = true
	logSize := len(e.state.GameLog)

	e.RollDice()

	if !reflect.DeepEqual(e.DiceValues(), []int{2, 3, 4, 5}) {
		t.Errorf("Dice changed after game over: %v", e.DiceValues())
	}
	if len(e.state.GameLog) != logSize {
		t.Error("Rolling after game over should not log")
	}
}

func TestRollDiceDeterministic(t *testing.T) {
	a := createTestEngine(t, 2, WithSeed(7))
	b := createTestEngine(t, 2, WithSeed(7))

	for i := 0; i < 20; i++ {
		a.RollDice()
		b.RollDice()
		if !reflect.DeepEqual(a.DiceValues(), b.DiceValues()) {
			t.Fatalf("Roll %d diverged: %v vs %v", i, a.DiceValues(), b.DiceValues())
		}
		for j := range a.state.Dice {
			if a.state.Dice[j].CanChange {
				a.ChangeDieValue(j, 4)
				b.ChangeDieValue(j, 4)
			}
		}
		if !reflect.DeepEqual(a.state.Dice, b.state.Dice) {
			t.Fatalf("Roll %d: dice state diverged after changes", i)
		}
	}
}

func TestChangeDieValue(t *testing.T) {
	e := createTestEngine(t, 2, WithRand(rand.New(onesSource{})))
	e.RollDice()

	tests := []struct {
		name     string
		index    int
		value    int
		expected bool
	}{
		{"first one is fixed", 0, 4, false},
		{"value 1 rejected", 1, 1, false},
		{"value 7 rejected", 1, 7, false},
		{"index out of range", 4, 3, false},
		{"negative index", -1, 3, false},
		{"valid change", 1, 6, true},
		{"already changed", 1, 5, false},
		{"lowest allowed", 2, 2, true},
	}

	for _, test := range tests {
		if got := e.ChangeDieValue(test.index, test.value); got != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}

	if !reflect.DeepEqual(e.DiceValues(), []int{1, 6, 2, 1}) {
		t.Errorf("Unexpected dice %v", e.DiceValues())
	}
	if e.state.Dice[1].CanChange || !e.state.Dice[3].CanChange {
		t.Error("Only unchanged dice should stay changeable")
	}

	entry := lastLog(e)
	if entry.Kind != EventDieChanged || entry.Payload.DieIndex != 2 || entry.Payload.Value != 2 {
		t.Errorf("Unexpected log entry %+v", entry)
	}
}

func TestToggleDieSelection(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 2, 3, 4, 5)

	if !e.ToggleDieSelection(0) || !e.state.Dice[0].Selected {
		t.Fatal("Expected die 0 to be selected")
	}
	if !e.ToggleDieSelection(0) || e.state.Dice[0].Selected {
		t.Fatal("Expected die 0 to be deselected")
	}

	e.ToggleDieLock(1)
	if e.ToggleDieSelection(1) || e.state.Dice[1].Selected {
		t.Error("Locked die should not be selectable")
	}

	e.state.Dice[2].Used = true
	if e.ToggleDieSelection(2) || e.state.Dice[2].Selected {
		t.Error("Used die should not be selectable")
	}

	if e.ToggleDieSelection(9) {
		t.Error("Out of range index should be ignored")
	}
}

func TestToggleDieLockUnconstrained(t *testing.T) {
	e := createTestEngine(t, 2)
	e.state.Dice[0].Used = true
	e.state.Dice[0].Selected = true

	if !e.ToggleDieLock(0) || !e.state.Dice[0].Locked {
		t.Error("Lock should apply to a used die")
	}
	if !e.ToggleDieLock(0) || e.state.Dice[0].Locked {
		t.Error("Lock should toggle back")
	}
	if e.ToggleDieLock(DiceCount) {
		t.Error("Out of range index should be ignored")
	}
}

func TestClearDiceSelectionIdempotent(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 2, 3, 4, 5)
	selectDice(t, e, 0, 2, 3)

	e.ClearDiceSelection()
	once := e.state.Dice
	e.ClearDiceSelection()

	if once != e.state.Dice {
		t.Error("Second clear changed the dice")
	}
	for i, die := range e.state.Dice {
		if die.Selected {
			t.Errorf("Die %d still selected", i)
		}
	}
}

func TestRemoveLastDie(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 2, 3, 4, 5)

	if e.RemoveLastDie() {
		t.Error("Nothing selected, expected no-op")
	}

	selectDice(t, e, 0, 1, 3)
	// A selected die that becomes locked is no longer eligible
	e.ToggleDieLock(3)

	if !e.RemoveLastDie() {
		t.Fatal("Expected a die to be removed")
	}
	if e.state.Dice[1].Selected {
		t.Error("Expected die 1 to be deselected")
	}
	if !e.state.Dice[0].Selected || !e.state.Dice[3].Selected {
		t.Error("Other selections should be untouched")
	}
}

func TestSelectedSumAndTargets(t *testing.T) {
	e := createTestEngine(t, 2)
	setDice(e, 2, 3, 6, 6)

	if e.GetSelectedDiceSum() != 0 {
		t.Errorf("Expected sum 0, got %d", e.GetSelectedDiceSum())
	}
	if targets := e.GetValidMountainTargets(); targets == nil || len(targets) != 0 {
		t.Errorf("Expected empty non-nil targets, got %v", targets)
	}

	selectDice(t, e, 0, 1)
	if e.GetSelectedDiceSum() != 5 {
		t.Errorf("Expected sum 5, got %d", e.GetSelectedDiceSum())
	}
	if targets := e.GetValidMountainTargets(); !reflect.DeepEqual(targets, []Mountain{MountainFive}) {
		t.Errorf("Expected [5], got %v", targets)
	}

	selectDice(t, e, 2)
	if targets := e.GetValidMountainTargets(); len(targets) != 0 {
		t.Errorf("Sum 11 should have no target, got %v", targets)
	}

	e.state.Dice[2].Used = true
	if e.GetSelectedDiceSum() != 5 {
		t.Errorf("Used dice should not count, got %d", e.GetSelectedDiceSum())
	}
}

package engine

import (
	"testing"
	"time"
)

// onesSource makes every roll come up 1
type onesSource struct{}

func (onesSource) Int63() int64 { return 0 }
func (onesSource) Seed(int64)   {}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func createTestEngine(t *testing.T, numPlayers int, opts ...Option) *GameEngine {
	t.Helper()

	opts = append([]Option{WithSeed(42), WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := NewEngine(&GameConfig{Name: "test", NumPlayers: numPlayers}, opts...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

// setDice forces the face values of the first len(values) dice and clears
// their flags
func setDice(e *GameEngine, values ...int) {
	for i, v := range values {
		e.state.Dice[i] = Die{Value: v}
	}
}

func selectDice(t *testing.T, e *GameEngine, indices ...int) {
	t.Helper()
	for _, i := range indices {
		if !e.ToggleDieSelection(i) {
			t.Fatalf("Failed to select die %d", i)
		}
	}
}

// putGoat moves color's goat on m straight to row, bypassing the rules
func putGoat(e *GameEngine, m Mountain, row int, color PlayerColor) {
	cells := e.state.Cells[m.Index()]
	for i := range cells {
		cells[i].OccupiedBy = removeColor(cells[i].OccupiedBy, color)
	}
	e.state.PlayerPieces[m.Index()] = removeColor(e.state.PlayerPieces[m.Index()], color)
	cells[row].OccupiedBy = append(cells[row].OccupiedBy, color)
}

// claimFor marks one available point token of value as held by playerIndex
func claimFor(e *GameEngine, playerIndex, value int) {
	for i := range e.state.PointTokens {
		token := &e.state.PointTokens[i]
		if token.Value == value && token.Available {
			token.Available = false
			token.ClaimedBy = intPtr(playerIndex)
			e.state.Players[playerIndex].Score += value
			return
		}
	}
}

func exhaustMountain(e *GameEngine, m Mountain) {
	for i := range e.state.PointTokens {
		if e.state.PointTokens[i].Value == int(m) {
			e.state.PointTokens[i].Available = false
		}
	}
}

func lastLog(e *GameEngine) LogEntry {
	return e.state.GameLog[len(e.state.GameLog)-1]
}

// checkInvariants verifies the board rules that must hold after any call
func checkInvariants(t *testing.T, state *GameState) {
	t.Helper()

	for _, m := range Mountains {
		cells := state.MountainCells(m)
		if len(cells[0].OccupiedBy) > 1 {
			t.Fatalf("Mountain %d top holds %d goats", m, len(cells[0].OccupiedBy))
		}
		for _, p := range state.Players {
			seen := 0
			for _, cell := range cells {
				for _, c := range cell.OccupiedBy {
					if c == p.Color {
						seen++
					}
				}
			}
			for _, c := range state.Foot(m) {
				if c == p.Color {
					seen++
				}
			}
			if seen != 1 {
				t.Fatalf("Goat %s appears %d times on mountain %d", p.Color, seen, m)
			}
		}
	}

	for i, die := range state.Dice {
		if die.Value < MinDieValue || die.Value > MaxDieValue {
			t.Fatalf("Die %d has value %d", i, die.Value)
		}
	}
}

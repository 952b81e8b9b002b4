package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state"
	}

	var b strings.Builder

	if state.GameOver {
		b.WriteString("🏁 GAME OVER\n")
	} else if len(state.Players) > state.CurrentPlayerIndex {
		current := state.Players[state.CurrentPlayerIndex]
		fmt.Fprintf(&b, "Turn %d: %s (%s) to play\n", state.CurrentTurn, current.Name, current.Color)
		if state.GameEndTriggered {
			b.WriteString("Final round in progress\n")
		}
	}

	b.WriteString("\nDice:\n")
	b.WriteString(formatDice(state))

	b.WriteString("\nMountains (top row first):\n")
	for _, m := range engine.Mountains {
		b.WriteString(formatMountain(state, m))
	}

	b.WriteString("\nBonus tokens: ")
	bonus := make([]string, 0, len(state.BonusTokens))
	for _, token := range state.BonusTokens {
		if token.Available {
			bonus = append(bonus, fmt.Sprint(token.Value))
		}
	}
	if len(bonus) == 0 {
		b.WriteString("none left")
	} else {
		b.WriteString(strings.Join(bonus, ", "))
	}

	b.WriteString("\n\nScores:\n")
	for i, p := range state.Players {
		marker := " "
		if i == state.CurrentPlayerIndex && !state.GameOver {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%s %s (%s): %d points, %d sets, %d bonus\n",
			marker, p.Name, p.Color, p.Score,
			engine.CompleteSets(state, i), engine.BonusTokensClaimedBy(state, i))
	}

	return b.String()
}

func formatDice(state *engine.GameState) string {
	var b strings.Builder
	sum := 0
	for i, die := range state.Dice {
		var flags []string
		if die.Selected {
			flags = append(flags, "selected")
			sum += die.Value
		}
		if die.Locked {
			flags = append(flags, "locked")
		}
		if die.Used {
			flags = append(flags, "used")
		}
		if die.CanChange {
			flags = append(flags, "changeable")
		}
		fmt.Fprintf(&b, "  [%d] %d", i, die.Value)
		if len(flags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
		}
		b.WriteString("\n")
	}
	if sum > 0 {
		fmt.Fprintf(&b, "  Selected sum: %d\n", sum)
	}
	return b.String()
}

func formatMountain(state *engine.GameState, m engine.Mountain) string {
	var rows []string
	for _, cell := range state.MountainCells(m) {
		rows = append(rows, "["+colorList(cell.OccupiedBy)+"]")
	}
	line := fmt.Sprintf("  %2d: %s foot[%s] tokens left: %d\n",
		int(m), strings.Join(rows, " "), colorList(state.Foot(m)), engine.RemainingPointTokens(state, m))
	return line
}

func colorList(colors []engine.PlayerColor) string {
	names := make([]string, len(colors))
	for i, c := range colors {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder

	if result.Success {
		fmt.Fprintf(&b, "✓ %s", result.Action)
	} else {
		fmt.Fprintf(&b, "✗ %s rejected", result.Action)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, ": %s", result.Message)
	}
	b.WriteString("\n")

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s\n", event.Text)
		}
	}

	if result.SelectedSum > 0 {
		targets := make([]string, len(result.ValidTargets))
		for i, m := range result.ValidTargets {
			targets[i] = fmt.Sprint(int(m))
		}
		if len(targets) == 0 {
			fmt.Fprintf(&b, "\nSelected sum %d matches no mountain\n", result.SelectedSum)
		} else {
			fmt.Fprintf(&b, "\nSelected sum %d, move_goat to mountain %s\n", result.SelectedSum, strings.Join(targets, " or "))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatLog(log *service.LogResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game Log (Page %d/%d) - Total: %d\n\n", log.Page, log.TotalPages, log.TotalEntries)
	for _, entry := range log.Entries {
		fmt.Fprintf(&b, "[turn %d] %s\n", entry.Turn, entry.Text)
	}
	if log.HasNext {
		fmt.Fprintf(&b, "\nMore entries on page %d\n", log.Page+1)
	}
	return b.String()
}

func formatWinners(result *service.WinnersResult) string {
	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message)
		b.WriteString("\n\n")
	}

	title := "Leaders"
	if result.GameOver {
		title = "Winners"
	}
	fmt.Fprintf(&b, "%s (%d points):\n", title, result.Score)
	for _, p := range result.Winners {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Color)
	}
	return b.String()
}

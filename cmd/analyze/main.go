// Command analyze prints quick, human-readable summaries of the sessions a
// file store has persisted: turn, scores, how many mountains are empty and
// which bonus tokens remain.
//
// Usage:
//
//	analyze [sessions-dir]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/session"
)

// SessionSummary is what analyze reports for one snapshot
type SessionSummary struct {
	ID             string
	ConfigName     string
	Turn           int
	GameOver       bool
	FinalRound     bool
	Players        []PlayerSummary
	EmptyMountains int
	BonusLeft      []int
	Leaders        []string
}

// PlayerSummary is one player's standing
type PlayerSummary struct {
	Name       string
	Color      engine.PlayerColor
	Score      int
	Sets       int
	Bonus      int
	GoatsOnTop int
}

func main() {
	dir := "sessions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir summarizes every snapshot in dir. Unreadable snapshots are
// reported and skipped.
func analyzeDir(w io.Writer, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no session snapshots found in %s", dir)
	}
	sort.Strings(paths)

	finished := 0
	for _, path := range paths {
		fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(path))

		summary, err := analyzeSnapshot(path)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		if summary.GameOver {
			finished++
		}
		printSummary(w, summary)
	}

	fmt.Fprintf(w, "\n%d sessions, %d finished\n", len(paths), finished)
	return nil
}

func analyzeSnapshot(path string) (*SessionSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	data, err := session.DecodePersistedSessionData(raw)
	if err != nil {
		return nil, err
	}
	restored, err := data.Restore()
	if err != nil {
		return nil, err
	}

	summary := summarize(data.ID, data.ConfigName, restored.Engine.GetState())
	if summary.GameOver {
		// Ties are broken by goats on tops and then by the highest top
		summary.Leaders = nil
		for _, p := range restored.Engine.GetWinners() {
			summary.Leaders = append(summary.Leaders, p.Name)
		}
	}
	return summary, nil
}

// summarize reads a state; Leaders are the players sharing the best score
func summarize(id, configName string, state *engine.GameState) *SessionSummary {
	summary := &SessionSummary{
		ID:             id,
		ConfigName:     configName,
		Turn:           state.CurrentTurn,
		GameOver:       state.GameOver,
		FinalRound:     state.GameEndTriggered && !state.GameOver,
		EmptyMountains: engine.EmptyMountains(state),
	}

	for _, token := range state.BonusTokens {
		if token.Available {
			summary.BonusLeft = append(summary.BonusLeft, token.Value)
		}
	}

	best := -1
	for i, p := range state.Players {
		summary.Players = append(summary.Players, PlayerSummary{
			Name:       p.Name,
			Color:      p.Color,
			Score:      p.Score,
			Sets:       engine.CompleteSets(state, i),
			Bonus:      engine.BonusTokensClaimedBy(state, i),
			GoatsOnTop: engine.GoatsOnTops(state, p.Color),
		})
		switch {
		case p.Score > best:
			best = p.Score
			summary.Leaders = []string{p.Name}
		case p.Score == best:
			summary.Leaders = append(summary.Leaders, p.Name)
		}
	}
	return summary
}

func printSummary(w io.Writer, s *SessionSummary) {
	fmt.Fprintf(w, "Session: %s", s.ID)
	if s.ConfigName != "" {
		fmt.Fprintf(w, " (%s)", s.ConfigName)
	}
	fmt.Fprintln(w)

	status := "in progress"
	switch {
	case s.GameOver:
		status = "game over"
	case s.FinalRound:
		status = "final round"
	}
	fmt.Fprintf(w, "Turn: %d, %s\n", s.Turn, status)

	for _, p := range s.Players {
		fmt.Fprintf(w, "  %-10s %-6s %3d points, %d sets, %d bonus, %d goats on top\n",
			p.Name, p.Color, p.Score, p.Sets, p.Bonus, p.GoatsOnTop)
	}

	fmt.Fprintf(w, "Empty mountains: %d/%d\n", s.EmptyMountains, engine.MountainCount)
	if len(s.BonusLeft) == 0 {
		fmt.Fprintln(w, "Bonus tokens: none left")
	} else {
		values := make([]string, len(s.BonusLeft))
		for i, v := range s.BonusLeft {
			values[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "Bonus tokens: %s\n", strings.Join(values, ", "))
	}

	label := "Leading"
	if s.GameOver {
		label = "Winners"
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(s.Leaders, ", "))
}

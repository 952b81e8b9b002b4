package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wricardo/mountain-goats/game/bot"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/session"
)

// persistSessions writes a fresh two player session and a finished three
// player session into a file store
func persistSessions(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	persistence, err := session.NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	manager := session.NewManagerWithPersistence(persistence, zerolog.Nop(), engine.WithSeed(2))

	if _, err := manager.Create("aaaa0001", &engine.GameConfig{Name: "classic", NumPlayers: 2, PlayerNames: []string{"Ana", "Bo"}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	finished, err := manager.Create("bbbb0002", &engine.GameConfig{Name: "trio", NumPlayers: 3})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	report, err := bot.PlayGame(finished.Engine, bot.Exhaustive{}, 2000)
	if err != nil || !report.Finished {
		t.Fatalf("Expected a finished game, got %+v, %v", report, err)
	}

	if err := manager.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return dir
}

func TestAnalyzeDir(t *testing.T) {
	dir := persistSessions(t)

	var out bytes.Buffer
	if err := analyzeDir(&out, dir); err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"=== aaaa0001.json ===",
		"Session: aaaa0001 (classic)",
		"Turn: 1, in progress",
		"Bonus tokens: 15, 12, 9, 6",
		"Empty mountains: 0/6",
		"Leading: Ana, Bo",
		"=== bbbb0002.json ===",
		"game over",
		"Winners: ",
		"2 sessions, 1 finished",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}

	// Sorted by file name
	if strings.Index(text, "aaaa0001") > strings.Index(text, "bbbb0002") {
		t.Error("Expected snapshots in file name order")
	}
}

func TestAnalyzeDir_SkipsCorrupt(t *testing.T) {
	dir := persistSessions(t)
	if err := os.WriteFile(filepath.Join(dir, "cccc0003.json"), []byte(`{"id": "cccc0003", invalid`), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	var out bytes.Buffer
	if err := analyzeDir(&out, dir); err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}
	if !strings.Contains(out.String(), "=== cccc0003.json ===\nError:") {
		t.Errorf("Expected corrupt snapshot to be reported:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "3 sessions, 1 finished") {
		t.Errorf("Expected totals to count every file:\n%s", out.String())
	}
}

func TestAnalyzeDir_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeDir(&out, t.TempDir()); err == nil {
		t.Error("Expected error for a directory without snapshots")
	}
}

func TestAnalyzeSnapshot_MissingState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dddd0004.json")
	if err := os.WriteFile(path, []byte(`{"id": "dddd0004"}`), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := analyzeSnapshot(path); err == nil {
		t.Error("Expected error for a snapshot without game state")
	}
}

func TestSummarize(t *testing.T) {
	state := engine.InitGameState(3, []string{"Ana", "Bo", "Cy"}, time.Now())
	state.Players[0].Score = 10
	state.Players[2].Score = 10
	state.BonusTokens[0].Available = false

	summary := summarize("eeee0005", "", state)
	if len(summary.Leaders) != 2 || summary.Leaders[0] != "Ana" || summary.Leaders[1] != "Cy" {
		t.Errorf("Expected Ana and Cy leading, got %v", summary.Leaders)
	}
	if len(summary.BonusLeft) != 3 || summary.BonusLeft[0] != 12 {
		t.Errorf("Expected 12, 9, 6 left, got %v", summary.BonusLeft)
	}

	var out bytes.Buffer
	printSummary(&out, summary)
	if !strings.Contains(out.String(), "Session: eeee0005\n") {
		t.Errorf("Expected no config name, got:\n%s", out.String())
	}
}

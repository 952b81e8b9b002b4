// Package validate checks game preset files before they are served. It
// checks:
//   - JSON structure, rejecting unknown keys
//   - The engine's own preset rules (name, player count, name count)
//   - The preset name matches its file name, so config IDs resolve
//   - Player names are neither blank nor repeated
//   - The language tag parses
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mountain-goats/game/engine"
	"golang.org/x/text/language"
)

// Result captures the outcome of validating a single file. If Valid is true,
// Messages holds a summary of the preset; otherwise it lists the problems
// found.
type Result struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// File loads and validates a single preset file
func File(path string) Result {
	result := Result{
		File:     filepath.Base(path),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
	}

	if want := strings.TrimSuffix(result.File, filepath.Ext(result.File)); config.Name != "" && config.Name != want {
		result.fail("Name %q does not match file name %q", config.Name, want)
	}

	seen := make(map[string]bool, len(config.PlayerNames))
	for i, name := range config.PlayerNames {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			result.fail("Player name %d is blank", i+1)
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			result.fail("Player name %q is repeated", trimmed)
		}
		seen[key] = true
	}

	if config.Language != "" {
		if _, err := language.Parse(config.Language); err != nil {
			result.fail("Invalid language %q: %v", config.Language, err)
		}
	}

	if result.Valid {
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Players: %d", config.NumPlayers))
		if len(config.PlayerNames) > 0 {
			result.Messages = append(result.Messages, fmt.Sprintf("✓ Names: %s", strings.Join(config.PlayerNames, ", ")))
		}
		supply := make([]string, 0, engine.MountainCount)
		for _, m := range engine.Mountains {
			supply = append(supply, fmt.Sprintf("%d:%d", int(m), engine.PointTokenSupply(config.NumPlayers, m)))
		}
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Point tokens: %s", strings.Join(supply, " ")))
	}

	return result
}

// Dir validates every .json file in dir, ordered by file name
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no preset files found in %s", dir)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test preset",
		NumPlayers:  3,
		PlayerNames: []string{"Ana", "Bo"},
		Language:    "en",
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("classic is the default", func(t *testing.T) {
		dir := t.TempDir()
		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)
		writeConfigFile(t, dir, "another", createValidConfig())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected Classic as default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("first valid preset without classic", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a_broken.json"), []byte("{"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		other := createValidConfig()
		other.Name = "Other"
		writeConfigFile(t, dir, "b_other", other)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Other" {
			t.Errorf("Expected Other as default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without preset files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil || defaultConfig.NumPlayers != engine.MinPlayers {
			t.Errorf("Expected built-in two player default, got %+v", defaultConfig)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	trio := createValidConfig()
	trio.Name = "Trio"
	writeConfigFile(t, dir, "trio", trio)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("trio")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Trio" || config.NumPlayers != 3 {
			t.Errorf("Unexpected config %+v", config)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("trio.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Trio" {
			t.Errorf("Expected config name 'Trio', got '%s'", config.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("trio")
		config2, err := manager.LoadConfig("trio")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
		if !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected the miss to match service.ErrNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"name": "solo", "num_players": 1}`), 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid json}`), 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		_, err := manager.LoadConfig("malformed")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	presets := []struct {
		filename string
		name     string
		players  int
	}{
		{"classic", "Classic", 2},
		{"trio", "Trio", 3},
		{"family", "Family", 4},
	}
	for _, p := range presets {
		config := createValidConfig()
		config.Name = p.name
		config.NumPlayers = p.players
		config.PlayerNames = nil
		writeConfigFile(t, dir, p.filename, config)
	}

	// Ignored: not JSON, and invalid JSON
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "zz_bad.json"), []byte("{"), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	list, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 configs, got %d", len(list))
	}

	expectedOrder := []string{"classic", "family", "trio"}
	for i, info := range list {
		if info.ConfigID != expectedOrder[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expectedOrder[i], info.ConfigID)
		}
		if info.Filename != info.ConfigID+".json" {
			t.Errorf("Unexpected filename %s", info.Filename)
		}
	}
	if list[1].NumPlayers != 4 {
		t.Errorf("Expected family to have 4 players, got %d", list[1].NumPlayers)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	loaded, err := manager.LoadConfig("saved")
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Name != "Saved" {
		t.Errorf("Expected name 'Saved', got %q", loaded.Name)
	}

	// A fresh manager reads it back from disk
	fresh, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if fresh.GetDefault().Name != "Saved" {
		t.Errorf("Expected the only preset to become default, got %q", fresh.GetDefault().Name)
	}

	bad := createValidConfig()
	bad.NumPlayers = 6
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for path name, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	config := createValidConfig()
	config.Name = "Changeable"
	writeConfigFile(t, dir, "classic", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config.NumPlayers = 4
	writeConfigFile(t, dir, "classic", config)

	if cached, _ := manager.LoadConfig("classic"); cached.NumPlayers != 3 {
		t.Errorf("Expected cached value 3, got %d", cached.NumPlayers)
	}

	manager.RefreshCache()

	reloaded, _ := manager.LoadConfig("classic")
	if reloaded.NumPlayers != 4 {
		t.Errorf("Expected reloaded value 4, got %d", reloaded.NumPlayers)
	}
	if manager.GetDefault().NumPlayers != 4 {
		t.Errorf("Expected default to be reloaded, got %d", manager.GetDefault().NumPlayers)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	family := createValidConfig()
	family.Name = "Family"
	writeConfigFile(t, dir, "family", family)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("family"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.GetDefault().Name != "Family" {
		t.Errorf("Expected Family as default, got %q", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = fmt.Sprintf("Config%d", i)
		writeConfigFile(t, dir, fmt.Sprintf("config%d", i), config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("config%d", id%5+1)
			config, err := manager.LoadConfig(name)
			if err != nil {
				errs <- err
				return
			}
			if config.Name != fmt.Sprintf("Config%d", id%5+1) {
				errs <- fmt.Errorf("unexpected name %s", config.Name)
			}
			if id%10 == 0 {
				manager.RefreshCache()
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}

func TestShippedPresets(t *testing.T) {
	manager, err := NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.GetDefault().Name != "classic" {
		t.Errorf("Expected classic default, got %q", manager.GetDefault().Name)
	}

	list, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(list) < 3 {
		t.Errorf("Expected at least 3 shipped presets, got %d", len(list))
	}
}

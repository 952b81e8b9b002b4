package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
)

var (
	ErrConfigNotFound = fmt.Errorf("configuration %w", service.ErrNotFound)
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultPreset is the preset used when a session names none
const DefaultPreset = "classic"

// Manager handles game preset loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadDefaultConfig()

	return m, nil
}

// LoadConfig loads a preset by name
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	name = presetName(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(name)
}

// ListConfigs returns information about all available presets, sorted by ID
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	configs := []*service.ConfigInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := presetName(entry.Name())
		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid presets
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			NumPlayers:  config.NumPlayers,
			PlayerNames: config.PlayerNames,
		})
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ConfigID < configs[j].ConfigID
	})
	return configs, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached presets and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[string]*engine.GameConfig)
	m.loadDefaultConfig()
}

// SaveConfig validates a preset and writes it to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	name = presetName(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid preset name %q", ErrInvalidConfig, name)
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = config
	m.mu.Unlock()

	return nil
}

// loadLocked reads a preset from disk into the cache. Callers hold m.mu.
func (m *Manager) loadLocked(name string) (*engine.GameConfig, error) {
	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	data, err := os.ReadFile(m.configPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, name, err)
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[name] = &config
	return &config, nil
}

// loadDefaultConfig picks classic.json, then the first valid preset, then a
// built-in two player setup. Callers hold m.mu.
func (m *Manager) loadDefaultConfig() {
	if config, err := m.loadLocked(DefaultPreset); err == nil {
		m.defaultConfig = config
		return
	}

	entries, err := os.ReadDir(m.configDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			if config, err := m.loadLocked(presetName(entry.Name())); err == nil {
				m.defaultConfig = config
				return
			}
		}
	}

	m.defaultConfig = engine.DefaultGameConfig()
}

func (m *Manager) configPath(name string) string {
	return filepath.Join(m.configDir, name+".json")
}

// presetName strips the .json extension
func presetName(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), ".json")
}

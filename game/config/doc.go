// Package config provides configuration management for the Mountain Goats server.
//
// The config package handles:
//   - Loading game presets from JSON files
//   - Preset validation, caching and listing
//   - Default preset selection
//   - Process settings read from the environment
//
// Preset Format:
//
// Presets are stored as JSON files in the configs directory. Each preset
// sets the number of players (2-4), optional player names and the
// presentation preferences a new game starts with:
//
//	{
//	  "name": "trio",
//	  "description": "Three players",
//	  "num_players": 3,
//	  "player_names": ["Ana", "Bo"],
//	  "language": "en"
//	}
//
// Available Presets:
//   - classic: two players, the default
//   - trio: three players
//   - family: four named players
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	trio, err := manager.LoadConfig("trio")
//	defaultConfig := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// Settings:
//
// LoadSettings reads the MOUNTAIN_GOATS_* and NGROK_* variables into a
// Settings value; command line flags override them.
package config

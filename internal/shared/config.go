package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	API      APIConfig      `toml:"api"`
	Download DownloadConfig `toml:"download"`
}

// StorageConfig contains local storage settings.
type StorageConfig struct {
	BaseDir   string `toml:"base_dir"`   // Root directory holding all repositories
	HistoryDB string `toml:"history_db"` // SQLite database path for sync history
}

// APIConfig contains remote API client settings.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	Referer   string `toml:"referer"`
	Cookie    string `toml:"cookie"` // Optional session cookie for private collections
}

// DownloadConfig contains download and media tooling settings.
type DownloadConfig struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	PageDelayMS int    `toml:"page_delay_ms"` // Pacing between paginated listing requests
	ItemDelayMS int    `toml:"item_delay_ms"` // Pacing between item downloads
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to a TOML file, replacing any existing
// file at path.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrAlreadyExists)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

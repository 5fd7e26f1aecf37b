// Package config reads and writes the TOML configuration file holding the
// user's feed sources and settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	"miam/models"
)

// Settings holds the behavioral toggles from the [settings] table.
type Settings struct {
	PaywallBypass bool `toml:"paywall_bypass"`
	ShowTooltips  bool `toml:"show_tooltips"`
}

// Config is the full configuration file: one [settings] table and any number
// of [[feeds]] entries.
type Config struct {
	Settings Settings            `toml:"settings"`
	Feeds    []models.FeedSource `toml:"feeds"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Settings: Settings{
			PaywallBypass: true,
			ShowTooltips:  true,
		},
	}
}

// DefaultPath returns the standard config location under the user's home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".miam", "config.toml")
	}
	return filepath.Join(home, ".miam", "config.toml")
}

// Load reads the configuration at path. A missing file yields the defaults;
// a file that exists but cannot be parsed is an error, so a typo never
// silently wipes a feed list.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func (cfg *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Source looks up a feed source by name.
func (cfg *Config) Source(name string) (models.FeedSource, bool) {
	return lo.Find(cfg.Feeds, func(source models.FeedSource) bool {
		return source.Name == name
	})
}

// AddFeed appends a source, rejecting duplicate names so every source keeps
// its own cache file.
func (cfg *Config) AddFeed(source models.FeedSource) error {
	if _, exists := cfg.Source(source.Name); exists {
		return fmt.Errorf("a feed named %q already exists", source.Name)
	}
	cfg.Feeds = append(cfg.Feeds, source)
	return nil
}

// Package config loads and saves skymix configuration: the weighted
// source mix, display preferences, and the saved feed position.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gauthierbraillon/skymix/internal/feed"
)

const fileName = "config.toml"

// Preferences are the display settings of the browse view.
type Preferences struct {
	Columns       int  `toml:"columns"`
	CardWidth     int  `toml:"card_width"`
	HideSensitive bool `toml:"hide_sensitive"`
}

// MixSource is one weighted source in the configuration file.
type MixSource struct {
	Kind    string `toml:"kind"`
	URI     string `toml:"uri,omitempty"`
	Label   string `toml:"label"`
	Percent int    `toml:"percent"`
}

// Config is the on-disk configuration.
type Config struct {
	Preferences Preferences `toml:"preferences"`
	Mix         []MixSource `toml:"mix"`

	// Cursor is the opaque resume token of the last browsing
	// session. It is stored and replayed verbatim.
	Cursor string `toml:"cursor,omitempty"`
}

// Default returns the configuration used before the user has saved
// one: the plain following timeline in three columns.
func Default() Config {
	return Config{
		Preferences: Preferences{
			Columns:   3,
			CardWidth: 300,
		},
		Mix: []MixSource{
			{Kind: string(feed.SourceTimeline), Label: "Following", Percent: 100},
		},
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	if dir := os.Getenv("SKYMIX_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "skymix")
}

// APIURL returns the service base URL override, or "" to use the
// default endpoint.
func APIURL() string {
	return os.Getenv("SKYMIX_API_URL")
}

// Load reads the configuration from dir, falling back to Default when
// no file exists yet.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, fileName)
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.Preferences.Columns < 1 {
		cfg.Preferences.Columns = 1
	}
	if cfg.Preferences.CardWidth < 1 {
		cfg.Preferences.CardWidth = Default().Preferences.CardWidth
	}
	return cfg, nil
}

// Save writes the configuration to dir, creating it when needed.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// MixEntries converts the configured mix into engine entries.
func (c Config) MixEntries() []feed.MixEntry {
	entries := make([]feed.MixEntry, 0, len(c.Mix))
	for _, src := range c.Mix {
		kind := feed.SourceKind(src.Kind)
		if kind != feed.SourceCustom {
			kind = feed.SourceTimeline
		}
		entries = append(entries, feed.MixEntry{
			Source: feed.Source{
				Kind:  kind,
				URI:   src.URI,
				Label: src.Label,
			},
			Percent: src.Percent,
		})
	}
	return entries
}

// Validate checks the configured mix: percents in range and source
// identities distinct.
func (c Config) Validate() error {
	if len(c.Mix) == 0 {
		return fmt.Errorf("mix has no sources")
	}
	seen := make(map[string]bool)
	for _, src := range c.Mix {
		if src.Percent < 0 || src.Percent > 100 {
			return fmt.Errorf("source %q: percent %d out of range [0,100]", src.Label, src.Percent)
		}
		entry := feed.Source{Kind: feed.SourceKind(src.Kind), URI: src.URI, Label: src.Label}
		id := entry.Identity()
		if seen[id] {
			return fmt.Errorf("duplicate source %q in mix", id)
		}
		seen[id] = true
	}
	return nil
}

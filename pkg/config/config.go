// Package config loads .roadmap/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

// Dir is the per-project state directory.
const Dir = ".roadmap"

// Store backends.
const (
	BackendAuto   = "auto"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendNotion = "notion"
	BackendMemory = "memory"
)

// Backends lists every accepted store.backend value.
var Backends = []string{BackendAuto, BackendJSONL, BackendSQLite, BackendNotion, BackendMemory}

// Config is the on-disk configuration. Zero fields are filled from Default.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Notion NotionConfig `yaml:"notion"`
	Layout LayoutConfig `yaml:"layout"`
	Log    LogConfig    `yaml:"log"`
	Watch  WatchConfig  `yaml:"watch"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the data directory (jsonl) or database file (sqlite).
	Path         string `yaml:"path"`
	SQLiteDriver string `yaml:"sqlite_driver"`
}

type NotionConfig struct {
	TasksDB  string `yaml:"tasks_db"`
	PhasesDB string `yaml:"phases_db"`
	BaseURL  string `yaml:"base_url"`
	Version  string `yaml:"version"`
	// TokenEnv names the environment variable holding the integration token.
	TokenEnv string `yaml:"token_env"`
}

type LayoutConfig struct {
	Profile       string `yaml:"profile"`
	NodeMode      string `yaml:"node_mode"`
	HighlightMode string `yaml:"highlight_mode"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:      BackendAuto,
			Path:         Dir,
			SQLiteDriver: "sqlite",
		},
		Notion: NotionConfig{
			BaseURL:  "https://api.notion.com/v1",
			Version:  "2022-06-28",
			TokenEnv: "NOTION_TOKEN",
		},
		Layout: LayoutConfig{
			Profile:       "desktop",
			NodeMode:      string(timeline.NodeSingle),
			HighlightMode: string(highlight.ChainTransitive),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(Dir, "rmv.log"),
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Dir, "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for keys present but empty in the file.
func (c *Config) fillDefaults() {
	d := Default()
	setIfEmpty(&c.Store.Backend, d.Store.Backend)
	setIfEmpty(&c.Store.Path, d.Store.Path)
	setIfEmpty(&c.Store.SQLiteDriver, d.Store.SQLiteDriver)
	setIfEmpty(&c.Notion.BaseURL, d.Notion.BaseURL)
	setIfEmpty(&c.Notion.Version, d.Notion.Version)
	setIfEmpty(&c.Notion.TokenEnv, d.Notion.TokenEnv)
	setIfEmpty(&c.Layout.Profile, d.Layout.Profile)
	setIfEmpty(&c.Layout.NodeMode, d.Layout.NodeMode)
	setIfEmpty(&c.Layout.HighlightMode, d.Layout.HighlightMode)
	setIfEmpty(&c.Log.Level, d.Log.Level)
	setIfEmpty(&c.Log.Format, d.Log.Format)
	setIfEmpty(&c.Log.File, d.Log.File)
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Validate rejects values no component understands.
func (c Config) Validate() error {
	var errs []error
	if !contains(Backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Store.SQLiteDriver != "sqlite" && c.Store.SQLiteDriver != "sqlite3" {
		errs = append(errs, fmt.Errorf("store.sqlite_driver: want sqlite or sqlite3, got %q", c.Store.SQLiteDriver))
	}
	if c.Store.Backend == BackendNotion && (c.Notion.TasksDB == "" || c.Notion.PhasesDB == "") {
		errs = append(errs, errors.New("notion: tasks_db and phases_db are required"))
	}
	if _, err := depgraph.GeometryFor(c.Layout.Profile); err != nil {
		errs = append(errs, fmt.Errorf("layout.profile: %w", err))
	}
	if _, err := timeline.ParseNodeMode(c.Layout.NodeMode); err != nil {
		errs = append(errs, fmt.Errorf("layout.node_mode: %w", err))
	}
	if _, err := highlight.ParseChainMode(c.Layout.HighlightMode); err != nil {
		errs = append(errs, fmt.Errorf("layout.highlight_mode: %w", err))
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: want text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Save writes the config as YAML, creating parent directories.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename config: %w", err)
	}
	return nil
}

// Geometry resolves the layout profile.
func (c Config) Geometry() depgraph.Geometry {
	g, err := depgraph.GeometryFor(c.Layout.Profile)
	if err != nil {
		return depgraph.Desktop
	}
	return g
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

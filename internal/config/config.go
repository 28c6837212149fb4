// Package config loads the negotiator YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/video-system/go-capture-negotiation/pkg/format"
	"github.com/video-system/go-capture-negotiation/pkg/request"
)

// Config holds all negotiator configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	API     APIConfig     `yaml:"api"`
	Catalog CatalogConfig `yaml:"catalog"`
	Devices DevicesConfig `yaml:"devices"`
	Session SessionConfig `yaml:"session"`

	// FormatFilter picks the active format of every configured device
	FormatFilter format.Filter `yaml:"format_filter"`
	// Intent is the repeating request resolved once a format is active
	Intent request.Intent `yaml:"intent"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// APIConfig configures the HTTP API
type APIConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// CatalogConfig configures the format catalog cache
type CatalogConfig struct {
	CacheSize int `yaml:"cache_size"` // catalogs kept in memory
}

// DevicesConfig lists the device profiles opened at startup
type DevicesConfig struct {
	ProfilesDir string   `yaml:"profiles_dir"`
	Profiles    []string `yaml:"profiles"` // relative to ProfilesDir unless absolute
}

// SessionConfig configures the capture session hand-off
type SessionConfig struct {
	URL     string        `yaml:"url"`     // remote session service, takes precedence over Output
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	Output  string        `yaml:"output"` // CBOR request stream path, empty to discard

	History    int           `yaml:"history"`     // submissions kept per device
	HistoryAge time.Duration `yaml:"history_age"` // zero keeps them until overwritten
}

// ProfilePaths returns the configured profile paths resolved against ProfilesDir.
func (c DevicesConfig) ProfilePaths() []string {
	paths := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.ProfilesDir, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// Load loads configuration from a YAML file. A .env file next to it is
// loaded first; variables already set in the environment win.
func Load(path string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Catalog.CacheSize == 0 {
		c.Catalog.CacheSize = 64
	}
	if c.Session.History == 0 {
		c.Session.History = 32
	}
	if c.Session.Timeout == 0 {
		c.Session.Timeout = 10 * time.Second
	}
	if c.Devices.ProfilesDir == "" {
		c.Devices.ProfilesDir = "profiles"
	}
}

// Validate checks values the defaults cannot repair.
func (c *Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.Catalog.CacheSize < 0 {
		return fmt.Errorf("invalid catalog cache size %d", c.Catalog.CacheSize)
	}
	if c.Session.History < 0 || c.Session.HistoryAge < 0 {
		return fmt.Errorf("invalid session history %d/%v", c.Session.History, c.Session.HistoryAge)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if err := c.FormatFilter.Validate(); err != nil {
		return fmt.Errorf("format_filter: %w", err)
	}
	return nil
}

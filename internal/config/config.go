// Package config loads hacksync's YAML configuration.
//
// A missing file is not an error: every field has a default. Two
// environment variables override the store connection paths.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the config file looked up when none is given.
	DefaultFile = "hacksync.yaml"

	// EnvRemotePath overrides remote.path.
	EnvRemotePath = "HACKSYNC_REMOTE_PATH"

	// EnvRelationalPath overrides relational.path.
	EnvRelationalPath = "HACKSYNC_RELATIONAL_PATH"

	localDBName = "local.db"
)

// DefaultYAML is written by `hacksync init`.
const DefaultYAML = `# hacksync configuration

# Directory for the local durable cache.
data_dir: .hacksync

# Primary document store. Leave empty to run from the local cache only.
remote:
  path: ""

# Relational store for challenges, bounties and goodies. Optional.
relational:
  path: ""

# Seed override. The bundled seed is used when both are empty.
seed:
  path: ""
  url: ""

writer:
  debounce: 500ms

session:
  ttl: 24h

hydrate:
  # Per-source timeout. 0 waits as long as the source takes.
  source_timeout: 10s

prefs:
  animation: true
`

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// UnmarshalYAML parses strings like "500ms" or "24h".
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// StoreConfig names a SQLite database file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Configured reports whether a path is set.
func (s StoreConfig) Configured() bool {
	return strings.TrimSpace(s.Path) != ""
}

// SeedConfig overrides the bundled seed.
type SeedConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

// WriterConfig tunes the persistence writer.
type WriterConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	TTL Duration `yaml:"ttl"`
}

// HydrateConfig tunes the hydration pipeline.
type HydrateConfig struct {
	SourceTimeout Duration `yaml:"source_timeout"`
}

// PrefsConfig holds UI preference defaults.
type PrefsConfig struct {
	Animation bool `yaml:"animation"`
}

// Config models hacksync.yaml.
type Config struct {
	DataDir    string        `yaml:"data_dir"`
	Remote     StoreConfig   `yaml:"remote"`
	Relational StoreConfig   `yaml:"relational"`
	Seed       SeedConfig    `yaml:"seed"`
	Writer     WriterConfig  `yaml:"writer"`
	Session    SessionConfig `yaml:"session"`
	Hydrate    HydrateConfig `yaml:"hydrate"`
	Prefs      PrefsConfig   `yaml:"prefs"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir: ".hacksync",
		Writer:  WriterConfig{Debounce: Duration(500 * time.Millisecond)},
		Session: SessionConfig{TTL: Duration(24 * time.Hour)},
		Hydrate: HydrateConfig{SourceTimeout: Duration(10 * time.Second)},
		Prefs:   PrefsConfig{Animation: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRemotePath); ok {
		c.Remote.Path = v
	}
	if v, ok := lookup(EnvRelationalPath); ok {
		c.Relational.Path = v
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.Writer.Debounce < 0 {
		return errors.New("writer.debounce must not be negative")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Hydrate.SourceTimeout < 0 {
		return errors.New("hydrate.source_timeout must not be negative")
	}
	if c.Seed.Path != "" && c.Seed.URL != "" {
		return errors.New("seed.path and seed.url are mutually exclusive")
	}
	return nil
}

// LocalPath is the SQLite file backing the local durable cache.
func (c Config) LocalPath() string {
	return filepath.Join(c.DataDir, localDBName)
}

// WriteDefault writes DefaultYAML to path unless the file exists.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(DefaultYAML); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Package config loads the command-line application settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the application configuration. Durations accept Go duration
// strings such as "500ms".
type Config struct {
	Form   string      `yaml:"form"`
	Output string      `yaml:"output"`
	Store  StoreConfig `yaml:"store"`
	Draft  DraftConfig `yaml:"draft"`
	Async  AsyncConfig `yaml:"async"`
	Log    LogConfig   `yaml:"log"`
}

// StoreConfig selects where drafts are kept.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// DraftConfig configures draft persistence.
type DraftConfig struct {
	Key      string        `yaml:"key"`
	Debounce time.Duration `yaml:"debounce"`
}

// AsyncConfig configures async validation.
type AsyncConfig struct {
	Delay   time.Duration `yaml:"delay"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Form:   "login",
		Output: "json",
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    "formstate-drafts.json",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "formstate:",
			},
		},
		Draft: DraftConfig{
			Key:      "saved-login-form",
			Debounce: 500 * time.Millisecond,
		},
		Async: AsyncConfig{
			Delay:   300 * time.Millisecond,
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "formstate.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Form {
	case "login", "login-schema", "signup":
	default:
		return fmt.Errorf("%w: form %q", ErrInvalid, c.Form)
	}
	switch c.Output {
	case "json", "form", "pretty":
	default:
		return fmt.Errorf("%w: output %q", ErrInvalid, c.Output)
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("%w: store.path is required for the file backend", ErrInvalid)
		}
	case BackendRedis:
		if strings.TrimSpace(c.Store.Redis.Addr) == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: store.backend %q", ErrInvalid, c.Store.Backend)
	}
	if strings.TrimSpace(c.Draft.Key) == "" {
		return fmt.Errorf("%w: draft.key is empty", ErrInvalid)
	}
	if c.Draft.Debounce <= 0 {
		return fmt.Errorf("%w: draft.debounce must be positive", ErrInvalid)
	}
	if c.Async.Delay < 0 || c.Async.Timeout < 0 {
		return fmt.Errorf("%w: async durations must not be negative", ErrInvalid)
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ZapLevel parses Level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(l.Level)
}

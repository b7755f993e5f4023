package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Environment variables that override the file.
const (
	EnvToken    = "REMO_TOKEN"
	EnvDatabase = "REMO_DB"
	EnvLogLevel = "REMO_LOG_LEVEL"
)

const (
	defaultAPIAddress   = "0.0.0.0:8080"
	minPollInterval     = 5 * time.Second
)

// Config is the file configuration. Anything left empty falls back to the
// database, then to defaults.
type Config struct {
	Token        string `toml:"token"`
	Database     string `toml:"database"`
	LogLevel     string `toml:"log_level"`
	PollInterval string `toml:"poll_interval"`

	API  APIConfig  `toml:"api"`
	MQTT MQTTConfig `toml:"mqtt"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Address string `toml:"address"`
	Metrics bool   `toml:"metrics"`
}

// MQTTConfig configures the optional state publisher.
type MQTTConfig struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	TopicPrefix string `toml:"topic_prefix"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: zerolog.InfoLevel.String(),
		API:      APIConfig{Metrics: true},
		MQTT: MQTTConfig{
			ClientID:    "remo",
			TopicPrefix: "remo",
		},
	}
}

// DefaultPath returns <user config dir>/remo/config.toml.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "remo", "config.toml")
}

// Load reads the TOML file at path over the defaults and applies the
// environment. A missing file is an error only when path was given
// explicitly; an empty path tries DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the values that can be wrong.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.PollInterval != "" {
		d, err := time.ParseDuration(c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval %q: %w", c.PollInterval, err)
		}
		if d < minPollInterval {
			return fmt.Errorf("poll_interval %s is below %s", d, minPollInterval)
		}
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// Interval returns the poll interval, 0 when unset.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0
	}
	return d
}

// APIAddress returns the configured listen address, or fallback.
func (c *Config) APIAddress(fallback string) string {
	if c.API.Address != "" {
		return c.API.Address
	}
	if fallback != "" {
		return fallback
	}
	return defaultAPIAddress
}

// Save writes the configuration as TOML, without the token.
func (c *Config) Save(path string) error {
	out := *c
	out.Token = ""
	data, err := toml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

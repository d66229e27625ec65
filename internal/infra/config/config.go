// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
	Library  LibraryConfig  `yaml:"library"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token"` // Guards library mutations when set
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DefaultVolume      int    `yaml:"default_volume" default:"70" validate:"gte=0,lte=100"`
	RestartThresholdMs int    `yaml:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	ShuffleSeed        int64  `yaml:"shuffle_seed"` // 0 seeds from the clock
	TickIntervalMs     int    `yaml:"tick_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	InsertPosition     string `yaml:"insert_position" default:"start" validate:"oneof=start end"`
}

// RestartThreshold returns the restart threshold as a duration.
func (p PlaybackConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdMs) * time.Millisecond
}

// TickInterval returns the device tick interval as a duration.
func (p PlaybackConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

// LibraryConfig selects the track repository.
type LibraryConfig struct {
	Type     string         `yaml:"type" default:"file" validate:"oneof=file mysql spotify"`
	Settings map[string]any `yaml:"settings"`
}

// StorageConfig selects the blob store for uploaded files.
type StorageConfig struct {
	Type     string         `yaml:"type" default:"local" validate:"oneof=local minio"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYER_TOKEN"); v != "" {
		c.Server.Token = v
	}

	switch c.Library.Type {
	case "mysql":
		setFromEnv(&c.Library.Settings, "dsn", "MYSQL_DSN")
	case "spotify":
		setFromEnv(&c.Library.Settings, "client_id", "SPOTIFY_CLIENT_ID")
		setFromEnv(&c.Library.Settings, "client_secret", "SPOTIFY_CLIENT_SECRET")
		setFromEnv(&c.Library.Settings, "refresh_token", "SPOTIFY_REFRESH_TOKEN")
	}

	if c.Storage.Type == "minio" {
		setFromEnv(&c.Storage.Settings, "access_key", "MINIO_ACCESS_KEY")
		setFromEnv(&c.Storage.Settings, "secret_key", "MINIO_SECRET_KEY")
	}
}

func setFromEnv(settings *map[string]any, key, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	if *settings == nil {
		*settings = make(map[string]any)
	}
	(*settings)[key] = v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DecodeSettings decodes a settings map into out, applies its default tags
// and validates it.
func DecodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultRelPath is the config location searched under the XDG config directories.
const DefaultRelPath = "tunedeck/server.yaml"

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
	Sink     SinkConfig     `yaml:"sink"`
	Upload   UploadConfig   `yaml:"upload"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080" validate:"required"`
	ControlToken string      `yaml:"control_token"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlaybackConfig represents the initial playback session settings.
type PlaybackConfig struct {
	InitialVolume *int   `yaml:"initial_volume" default:"70" validate:"required,gte=0,lte=100"`
	Repeat        string `yaml:"repeat" default:"none" validate:"oneof=none one all"`
	Shuffle       bool   `yaml:"shuffle"`
	TimeUpdateMs  int    `yaml:"time_update_ms" default:"250" validate:"gte=50,lte=5000"`
}

// SinkConfig represents audio output configuration.
type SinkConfig struct {
	Type            string `yaml:"type" default:"speaker" validate:"oneof=speaker null"`
	SampleRate      int    `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	ResampleQuality int    `yaml:"resample_quality" default:"4" validate:"gte=1,lte=6"`
}

// UploadConfig represents upload (track acceptance) configuration.
type UploadConfig struct {
	Preload  []string                `yaml:"preload"`
	WatchDir string                  `yaml:"watch_dir"`
	Filters  map[string]FilterConfig `yaml:"filters"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return finish(&cfg)
}

// LoadDefault searches the XDG config directories for DefaultRelPath and loads it.
// Without a config file the built-in defaults are used. The second return value is
// the path that was loaded, empty for built-in defaults.
func LoadDefault() (*Config, string, error) {
	path, err := xdg.SearchConfigFile(DefaultRelPath)
	if err != nil {
		cfg, err := finish(&Config{})
		return cfg, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TUNEDECK_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("TUNEDECK_WATCH_DIR"); v != "" {
		c.Upload.WatchDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Upload.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings for a filter.
func (c *Config) FilterSettings(filterName string) map[string]any {
	if f, ok := c.Upload.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}

// Volume returns the configured initial volume.
func (c *PlaybackConfig) Volume() int {
	if c.InitialVolume == nil {
		return 70
	}
	return *c.InitialVolume
}

// TimeUpdateInterval returns how often the sink reports playback position.
func (c *PlaybackConfig) TimeUpdateInterval() time.Duration {
	return time.Duration(c.TimeUpdateMs) * time.Millisecond
}

// Package config handles configuration file loading and parsing.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
)

// Default configuration values.
const (
	DefaultWidth     = 600
	DefaultHeight    = 500
	DefaultTitle     = "simple-client"
	DefaultColor     = "#FF000000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config represents the wlsimple configuration.
type Config struct {
	Display DisplayConfig `toml:"display" yaml:"display"`
	Window  WindowConfig  `toml:"window" yaml:"window"`
	Fill    FillConfig    `toml:"fill" yaml:"fill"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// DisplayConfig selects the compositor socket.
type DisplayConfig struct {
	Socket string `toml:"socket" yaml:"socket"` // Empty = WAYLAND_DISPLAY
}

// WindowConfig holds the surface size and shell metadata.
type WindowConfig struct {
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Title  string `toml:"title" yaml:"title"`
	Class  string `toml:"class" yaml:"class"`
}

// FillConfig holds the solid color the frame is painted with.
type FillConfig struct {
	Color string `toml:"color" yaml:"color"` // #AARRGGBB or #RRGGBB
}

// LogConfig holds logging options.
type LogConfig struct {
	Level   string `toml:"level" yaml:"level"`   // trace, debug, info, warn, error, off
	Format  string `toml:"format" yaml:"format"` // console, json
	NoColor bool   `toml:"no_color" yaml:"no_color"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  DefaultTitle,
		},
		Fill: FillConfig{
			Color: DefaultColor,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "wlsimple", "config.toml")
}

// Load reads the config at path on top of the defaults. A missing file is
// not an error. Files ending in .yaml or .yml are parsed as YAML,
// everything else as TOML. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	default:
		err = decodeTOML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Window.Width < 1 {
		return fmt.Errorf("window.width must be positive, got %d", c.Window.Width)
	}
	if c.Window.Height < 1 {
		return fmt.Errorf("window.height must be positive, got %d", c.Window.Height)
	}
	if _, err := shm.NewGeometry(c.Window.Width, c.Window.Height); err != nil {
		return fmt.Errorf("window size: %w", err)
	}
	if _, err := shm.ParseColor(c.Fill.Color); err != nil {
		return fmt.Errorf("fill.color: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Color returns the parsed fill color. Call Validate first.
func (c *Config) Color() shm.Color {
	color, err := shm.ParseColor(c.Fill.Color)
	if err != nil {
		return shm.Black
	}
	return color
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 600, cfg.Window.Width)
	assert.Equal(t, 500, cfg.Window.Height)
	assert.Equal(t, "simple-client", cfg.Window.Title)
	assert.Empty(t, cfg.Window.Class)
	assert.Empty(t, cfg.Display.Socket)
	assert.Equal(t, shm.Black, cfg.Color())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[display]
socket = "wayland-1"

[window]
width = 320
title = "demo"
class = "org.example.demo"

[fill]
color = "#FF336699"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wayland-1", cfg.Display.Socket)
	assert.Equal(t, 320, cfg.Window.Width)
	assert.Equal(t, 500, cfg.Window.Height, "unset keys keep defaults")
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, "org.example.demo", cfg.Window.Class)
	assert.Equal(t, shm.Color(0xFF336699), cfg.Color())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
window:
  width: 100
  height: 50
fill:
  color: "#00ff00"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Window.Width)
	assert.Equal(t, 50, cfg.Window.Height)
	assert.Equal(t, "simple-client", cfg.Window.Title)
	assert.Equal(t, shm.Color(0xFF00FF00), cfg.Color())
}

func TestLoad_EmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[window]\nwidht = 10\n"), 0644))
	_, err := Load(tomlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window.widht")

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("window:\n  widht: 10\n"), 0644))
	_, err = Load(yamlPath)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"zero width":   "[window]\nwidth = 0\n",
		"neg height":   "[window]\nheight = -5\n",
		"bad color":    "[fill]\ncolor = \"blue\"\n",
		"bad format":   "[log]\nformat = \"xml\"\n",
		"broken toml":  "[window\n",
		"huge surface": "[window]\nwidth = 65536\nheight = 65536\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/wlsimple/config.toml", ConfigPath())
}

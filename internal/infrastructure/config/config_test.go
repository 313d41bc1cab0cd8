package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 300, cfg.Layout.AnimationDurationMS)
	assert.Equal(t, "background", cfg.Regions.AutoStartRegion)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "shell.yaml", `
server:
  port: "9000"
display:
  width: 1280
  height: 720
  nav_position: left
  nav_size: 80
layout:
  animation_duration_ms: 250
regions:
  layers:
    voice-overlay: 600
  auto_start_component: com.example.maps/.Main
components:
  foreground:
    - com.example.dialer/*
  background_packages:
    - com.example.maps
tasks:
  launch_root_region: foreground
  controlled:
    - name: maps
      region: background
      component: com.example.maps/.Main
      policy: restart-on-crash
      dependencies: [com.example.navdata]
  semi_controlled:
    - name: dialer
      components: [com.example.dialer/*]
`)
	t.Setenv(FileEnv, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, 1280, cfg.Display.Width)
	assert.Equal(t, "left", cfg.Display.NavPosition)
	assert.Equal(t, 250, cfg.Layout.AnimationDurationMS)
	assert.Equal(t, 160, cfg.Layout.ControlBarHeight)
	assert.Equal(t, 600, cfg.Regions.Layers["voice-overlay"])
	assert.Equal(t, []string{"com.example.maps"}, cfg.Components.BackgroundPackages)
	require.Len(t, cfg.Tasks.Controlled, 1)
	assert.Equal(t, "restart-on-crash", cfg.Tasks.Controlled[0].Policy)
	assert.Equal(t, []string{"com.example.navdata"}, cfg.Tasks.Controlled[0].Dependencies)
	require.Len(t, cfg.Tasks.SemiControlled, 1)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "shell.toml", `
[host]
task_id = 7
user_id = 11

[layout]
drag_threshold = 90

[[tasks.controlled]]
name = "media"
region = "foreground"
component = "com.example.media/.Main"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Host.TaskID)
	assert.Equal(t, 11, cfg.Host.UserID)
	assert.Equal(t, 90, cfg.Layout.DragThreshold)
	require.Len(t, cfg.Tasks.Controlled, 1)
	assert.Equal(t, "media", cfg.Tasks.Controlled[0].Name)
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeFile(t, "shell.yml", "server:\n  port: \"9000\"\n")
	t.Setenv(FileEnv, path)
	t.Setenv("SHELL_SERVER_PORT", "9100")
	t.Setenv("SHELL_LOGGING_LEVEL", "debug")
	t.Setenv("SHELL_LAYOUT_ANIMATION_DURATION_MS", "400")
	t.Setenv("SHELL_HOST_USER_ID", "12")
	t.Setenv("SHELL_COMPONENTS_BACKGROUND_PACKAGES", "com.example.maps,com.example.radio")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 400, cfg.Layout.AnimationDurationMS)
	assert.Equal(t, 12, cfg.Host.UserID)
	assert.Equal(t, []string{"com.example.maps", "com.example.radio"}, cfg.Components.BackgroundPackages)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(FileEnv, "")

	_, err := Load(writeFile(t, "shell.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "display:\n  width: -1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Regions.Layers = map[string]int{"sidebar": 1}
	cfg.Components.VoiceOverlay = "no-slash"
	cfg.Tasks.SemiControlled = []SemiControlledConfig{{Name: "dialer"}}
	cfg.Tasks.Controlled = []ControlledTaskConfig{{Name: "x", Region: "background", Component: "bad"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regions.layers")
	assert.Contains(t, err.Error(), "components.voice_overlay")
	assert.Contains(t, err.Error(), "launch_root_region")
	assert.Contains(t, err.Error(), "tasks.controlled[0]")
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadOrDefault()
	require.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
}

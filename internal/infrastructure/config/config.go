package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SHELL"

// FileEnv names the environment variable holding the config file path
const FileEnv = "SHELL_CONFIG"

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds all shell configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit" split_words:"true"`
	Display    DisplayConfig    `yaml:"display" toml:"display"`
	Layout     LayoutConfig     `yaml:"layout" toml:"layout"`
	Regions    RegionsConfig    `yaml:"regions" toml:"regions"`
	Components ComponentsConfig `yaml:"components" toml:"components"`
	Host       HostConfig       `yaml:"host" toml:"host"`
	Tasks      TasksConfig      `yaml:"tasks" toml:"tasks"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host        string   `yaml:"host" toml:"host"`
	Port        string   `yaml:"port" toml:"port"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins" envconfig:"CORS_ORIGINS"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string   `yaml:"level" toml:"level"`
	Development bool     `yaml:"development" toml:"development"`
	OutputPaths []string `yaml:"output_paths" toml:"output_paths" split_words:"true"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `yaml:"requests_per_second" toml:"requests_per_second" split_words:"true"`
	Burst             int  `yaml:"burst" toml:"burst"`
	Enabled           bool `yaml:"enabled" toml:"enabled"`
	// Exempt lists path globs that skip the limiter
	Exempt []string `yaml:"exempt" toml:"exempt"`
}

// DisplayConfig describes the physical screen.
type DisplayConfig struct {
	Width       int    `yaml:"width" toml:"width"`
	Height      int    `yaml:"height" toml:"height"`
	DPI         int    `yaml:"dpi" toml:"dpi"`
	NavPosition string `yaml:"nav_position" toml:"nav_position" split_words:"true"`
	NavSize     int    `yaml:"nav_size" toml:"nav_size" split_words:"true"`
}

// LayoutConfig holds region sizes in pixels and animation tuning.
type LayoutConfig struct {
	ControlBarHeight    int     `yaml:"control_bar_height" toml:"control_bar_height" split_words:"true"`
	DefaultHeight       int     `yaml:"default_height" toml:"default_height" split_words:"true"`
	FullHeight          int     `yaml:"full_height" toml:"full_height" split_words:"true"`
	TitleBarHeight      int     `yaml:"title_bar_height" toml:"title_bar_height" split_words:"true"`
	AnimationDurationMS int     `yaml:"animation_duration_ms" toml:"animation_duration_ms" split_words:"true"`
	DragThreshold       int     `yaml:"drag_threshold" toml:"drag_threshold" split_words:"true"`
	CornerRadius        float64 `yaml:"corner_radius" toml:"corner_radius" split_words:"true"`
	FrameIntervalMS     int     `yaml:"frame_interval_ms" toml:"frame_interval_ms" split_words:"true"`
}

// RegionsConfig overrides the feature and layer tables. Keys are region
// names; missing keys keep the stock values.
type RegionsConfig struct {
	Features           map[string]int `yaml:"features" toml:"features"`
	Layers             map[string]int `yaml:"layers" toml:"layers"`
	AutoStartRegion    string         `yaml:"auto_start_region" toml:"auto_start_region" split_words:"true"`
	AutoStartComponent string         `yaml:"auto_start_component" toml:"auto_start_component" split_words:"true"`
}

// ComponentsConfig holds component patterns that steer the layout.
type ComponentsConfig struct {
	Foreground         []string `yaml:"foreground" toml:"foreground"`
	IgnoreOpening      []string `yaml:"ignore_opening" toml:"ignore_opening" split_words:"true"`
	VoiceOverlay       string   `yaml:"voice_overlay" toml:"voice_overlay" split_words:"true"`
	ControlBar         string   `yaml:"control_bar" toml:"control_bar" split_words:"true"`
	BackgroundPackages []string `yaml:"background_packages" toml:"background_packages" split_words:"true"`
}

// HostConfig identifies the shell's own task and user.
type HostConfig struct {
	TaskID int `yaml:"task_id" toml:"task_id" split_words:"true"`
	UserID int `yaml:"user_id" toml:"user_id" split_words:"true"`
}

// TasksConfig lists embedded tasks. Task lists only come from the config
// file.
type TasksConfig struct {
	LaunchRootRegion string                 `yaml:"launch_root_region" toml:"launch_root_region" split_words:"true"`
	Controlled       []ControlledTaskConfig `yaml:"controlled" toml:"controlled" ignored:"true"`
	SemiControlled   []SemiControlledConfig `yaml:"semi_controlled" toml:"semi_controlled" ignored:"true"`
}

// ControlledTaskConfig describes a task the shell starts and keeps alive.
type ControlledTaskConfig struct {
	Name         string   `yaml:"name" toml:"name"`
	Region       string   `yaml:"region" toml:"region"`
	Component    string   `yaml:"component" toml:"component"`
	Policy       string   `yaml:"policy" toml:"policy"`
	Dependencies []string `yaml:"dependencies" toml:"dependencies"`
}

// SemiControlledConfig describes tasks claimed from the launch root.
type SemiControlledConfig struct {
	Name       string   `yaml:"name" toml:"name"`
	Components []string `yaml:"components" toml:"components"`
}

// Load builds the configuration: defaults, then the file at path (or
// $SHELL_CONFIG when path is empty), then SHELL_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns defaults on any error.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "8000",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
			Exempt:            []string{"/health", "/signals", "/ws/**"},
		},
		Display: DisplayConfig{
			Width:       1920,
			Height:      1080,
			DPI:         160,
			NavPosition: "none",
		},
		Layout: LayoutConfig{
			ControlBarHeight:    160,
			DefaultHeight:       520,
			FullHeight:          860,
			TitleBarHeight:      48,
			AnimationDurationMS: 300,
			DragThreshold:       120,
			CornerRadius:        24,
			FrameIntervalMS:     16,
		},
		Regions: RegionsConfig{
			AutoStartRegion: string(types.RegionBackground),
		},
		Host: HostConfig{
			TaskID: 1,
			UserID: 10,
		},
	}
}

// Validate checks values the shell cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display: invalid size %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Display.DPI <= 0 {
		errs = append(errs, fmt.Errorf("display: invalid dpi %d", c.Display.DPI))
	}
	switch c.Display.NavPosition {
	case "", "none", "left", "right", "bottom":
	default:
		errs = append(errs, fmt.Errorf("display: unknown nav position %q", c.Display.NavPosition))
	}
	if c.Layout.AnimationDurationMS < 0 {
		errs = append(errs, fmt.Errorf("layout: negative animation duration"))
	}

	for name := range c.Regions.Features {
		if _, err := types.ParseRegionID(name); err != nil {
			errs = append(errs, fmt.Errorf("regions.features: %w", err))
		}
	}
	for name := range c.Regions.Layers {
		if _, err := types.ParseRegionID(name); err != nil {
			errs = append(errs, fmt.Errorf("regions.layers: %w", err))
		}
	}
	if err := validRegion(c.Regions.AutoStartRegion); err != nil {
		errs = append(errs, fmt.Errorf("regions.auto_start_region: %w", err))
	}
	if err := validRegion(c.Tasks.LaunchRootRegion); err != nil {
		errs = append(errs, fmt.Errorf("tasks.launch_root_region: %w", err))
	}

	for field, comp := range map[string]string{
		"regions.auto_start_component": c.Regions.AutoStartComponent,
		"components.voice_overlay":     c.Components.VoiceOverlay,
		"components.control_bar":       c.Components.ControlBar,
	} {
		if comp == "" {
			continue
		}
		if _, err := types.ParseComponent(comp); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	for i, task := range c.Tasks.Controlled {
		if _, err := types.ParseComponent(task.Component); err != nil {
			errs = append(errs, fmt.Errorf("tasks.controlled[%d]: %w", i, err))
		}
		if _, err := types.ParseRegionID(task.Region); err != nil {
			errs = append(errs, fmt.Errorf("tasks.controlled[%d]: %w", i, err))
		}
	}
	if len(c.Tasks.SemiControlled) > 0 && c.Tasks.LaunchRootRegion == "" {
		errs = append(errs, errors.New("tasks.semi_controlled requires tasks.launch_root_region"))
	}

	return errors.Join(errs...)
}

func validRegion(name string) error {
	if name == "" {
		return nil
	}
	_, err := types.ParseRegionID(name)
	return err
}

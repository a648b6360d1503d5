package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/supersid"
)

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid configuration")

// Config represents the monitor configuration
type Config struct {
	// MonitorID identifies this monitor in reports, a random UUID if unset
	MonitorID string `yaml:"monitor_id"`

	// Site settings
	Site struct {
		Name         string  `yaml:"name"`
		ContactEmail string  `yaml:"contact_email"`
		Latitude     float64 `yaml:"latitude"`
		Longitude    float64 `yaml:"longitude"`
	} `yaml:"site"`

	// Sound card settings
	SoundCard struct {
		Device       string             `yaml:"device"`
		Format       audio.Format       `yaml:"format"`
		SamplingRate audio.SamplingRate `yaml:"sampling_rate"`
		PeriodSize   int                `yaml:"period_size"`
		Channels     int                `yaml:"channels"`
	} `yaml:"sound_card"`

	Stations []supersid.StationConfig `yaml:"stations"`

	// Analysis settings
	Analysis struct {
		// SegmentCount of zero derives the count from the sampling rate
		SegmentCount int           `yaml:"segment_count"`
		DurationMs   int           `yaml:"duration_ms"`
		Interval     time.Duration `yaml:"interval"`
		History      int           `yaml:"history"`
	} `yaml:"analysis"`

	// Level check settings
	Level struct {
		SilenceThreshold float64 `yaml:"silence_threshold"`
		ClipThreshold    float64 `yaml:"clip_threshold"`
	} `yaml:"level"`

	// Output settings
	Output struct {
		Format  string `yaml:"format"`
		File    string `yaml:"file"`
		PlotDir string `yaml:"plot_dir"`
	} `yaml:"output"`

	// Server settings
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Sound card defaults
	dev := audio.DefaultDeviceConfig()
	cfg.SoundCard.Device = dev.DeviceID
	cfg.SoundCard.Format = dev.Format
	cfg.SoundCard.SamplingRate = dev.SamplingRate
	cfg.SoundCard.PeriodSize = dev.PeriodSize
	cfg.SoundCard.Channels = 2

	// Station defaults
	cfg.Stations = []supersid.StationConfig{
		{Callsign: "NAA", Color: "r", Frequency: 24000},
		{Callsign: "NWC", Color: "g", Frequency: 19800},
		{Callsign: "DHO38", Color: "b", Frequency: 23400},
	}

	// Analysis defaults
	cfg.Analysis.SegmentCount = 0
	cfg.Analysis.DurationMs = 1000
	cfg.Analysis.Interval = 5 * time.Second
	cfg.Analysis.History = 720

	// Level defaults
	lvl := audio.DefaultLevelConfig()
	cfg.Level.SilenceThreshold = lvl.SilenceThreshold
	cfg.Level.ClipThreshold = lvl.ClipThreshold

	// Output defaults
	cfg.Output.Format = "console"

	// Server defaults
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 50051

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.MonitorID == "" {
		cfg.MonitorID = uuid.NewString()
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.supersidrc > /etc/supersid/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".supersidrc")
		if _, err := os.Stat(userConfigPath); err == nil {
			return Load(userConfigPath)
		}
	}

	systemConfigPath := "/etc/supersid/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		return Load(systemConfigPath)
	}

	// No config file found, return defaults
	cfg := DefaultConfig()
	cfg.MonitorID = uuid.NewString()
	return cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DeviceConfig returns the sound card section as a session configuration
func (c *Config) DeviceConfig() audio.DeviceConfig {
	return audio.DeviceConfig{
		DeviceID:     c.SoundCard.Device,
		Format:       c.SoundCard.Format,
		SamplingRate: c.SoundCard.SamplingRate,
		PeriodSize:   c.SoundCard.PeriodSize,
	}
}

// LevelConfig returns the level check thresholds
func (c *Config) LevelConfig() audio.LevelConfig {
	lvl := audio.DefaultLevelConfig()
	lvl.SilenceThreshold = c.Level.SilenceThreshold
	lvl.ClipThreshold = c.Level.ClipThreshold
	return lvl
}

// Registry builds the station registry
func (c *Config) Registry() (*supersid.Registry, error) {
	return supersid.NewRegistry(c.Stations)
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if err := c.DeviceConfig().Validate(); err != nil {
		return fmt.Errorf("%w: sound_card: %w", ErrInvalid, err)
	}
	if c.SoundCard.Channels < 1 {
		return fmt.Errorf("%w: sound_card.channels must be positive, got %d", ErrInvalid, c.SoundCard.Channels)
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("%w: stations: %w", ErrInvalid, err)
	}
	if c.Analysis.SegmentCount < 0 {
		return fmt.Errorf("%w: analysis.segment_count must not be negative, got %d", ErrInvalid, c.Analysis.SegmentCount)
	}
	if c.Analysis.DurationMs <= 0 {
		return fmt.Errorf("%w: analysis.duration_ms must be positive, got %d", ErrInvalid, c.Analysis.DurationMs)
	}
	if c.Analysis.Interval < 0 {
		return fmt.Errorf("%w: analysis.interval must not be negative, got %s", ErrInvalid, c.Analysis.Interval)
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 || c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("%w: site coordinates out of range: %v, %v", ErrInvalid, c.Site.Latitude, c.Site.Longitude)
	}
	switch c.Output.Format {
	case "console", "json", "text":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, c.Output.Format)
	}
	return nil
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Machine MachineConfig `yaml:"machine"`
	Archive ArchiveConfig `yaml:"archive"`
	Logger  LoggerConfig  `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"`      // debug, release
	AdminKey string `yaml:"admin_key"` // Required for /admin endpoints; empty disables them
}

// RateConfig one rate-limit class: limit calls per window
type RateConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

// AuthConfig auth gateway configuration
type AuthConfig struct {
	LegacyRate   RateConfig `yaml:"legacy_rate"`   // Unauthenticated traffic, per source address
	SignedRate   RateConfig `yaml:"signed_rate"`   // Authenticated traffic, per client id
	RegisterRate RateConfig `yaml:"register_rate"` // Registration attempts, per source address
	Blacklist    []string   `yaml:"blacklist"`     // Source addresses rejected outright
}

// NightModeConfig default night-mode window for new machines
type NightModeConfig struct {
	Enabled      bool    `yaml:"enabled"`
	StartHour    int     `yaml:"start_hour"`
	EndHour      int     `yaml:"end_hour"`
	CPUThreshold float64 `yaml:"cpu_threshold"`
}

// MachineConfig defaults applied to newly discovered machines
type MachineConfig struct {
	CPUPauseThreshold    float64         `yaml:"cpu_pause_threshold"`
	TaskMaxSeconds       int             `yaml:"task_max_seconds"`
	PostTaskSleepSeconds int             `yaml:"post_task_sleep_seconds"`
	Plugins              []string        `yaml:"plugins"`
	NightMode            NightModeConfig `yaml:"night_mode"`
}

// ArchiveConfig optional Redis mirror of the result log
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration. Rate limits follow the
// legacy/signed split: signed clients get a much wider window.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Mode: "release",
		},
		Auth: AuthConfig{
			LegacyRate:   RateConfig{Limit: 30, WindowSeconds: 60},
			SignedRate:   RateConfig{Limit: 240, WindowSeconds: 60},
			RegisterRate: RateConfig{Limit: 5, WindowSeconds: 300},
		},
		Machine: MachineConfig{
			CPUPauseThreshold:    70,
			TaskMaxSeconds:       3600,
			PostTaskSleepSeconds: 10,
			Plugins:              []string{"montecarlo", "optimizer_grid"},
			NightMode: NightModeConfig{
				StartHour:    22,
				EndHour:      7,
				CPUThreshold: 90,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Output: "console",
		},
	}
}

// Init initializes configuration from CONFIG_PATH (default
// config/config.yaml). A missing file falls back to Default so the
// coordinator can run with zero setup.
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			GlobalConfig = Default()
			return nil
		}
		return err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

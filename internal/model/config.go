package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connectivity settings for the bookstore backend.
type ServerConfig struct {
	// BaseURL is the root URL of the REST API (e.g., http://localhost:8080).
	// The realtime endpoint is derived from it (BaseURL + /ws).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig holds logging settings. The TUI owns the terminal, so logs go
// to a file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`

	// CachePath is the SQLite file used for the local read cache.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// ConfigDir returns the application configuration directory,
// ~/.config/tkoh.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tkoh")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tkoh/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:    ServerConfig{BaseURL: "http://localhost:8080"},
		Display:   DisplayConfig{Theme: "default"},
		Log:       LogConfig{Level: "info", File: filepath.Join(ConfigDir(), "tkoh.log")},
		CachePath: filepath.Join(ConfigDir(), "cache.db"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. The
// TKOH_BASE_URL environment variable overrides server.base_url either way.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("server.base_url", def.Server.BaseURL)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("cache_path", def.CachePath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if env := os.Getenv("TKOH_BASE_URL"); env != "" {
		cfg.Server.BaseURL = env
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("cache_path", cfg.CachePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/logger"
)

const appName = "calculate42"

// Config represents application configuration
type Config struct {
	LogLevel       string `json:"log_level"`        // debug, info, warn, error, none
	LogPath        string `json:"log_path"`
	HistoryPath    string `json:"history_path"`
	HistoryEnabled bool   `json:"history_enabled"`
	CacheEntries   int    `json:"cache_entries"`    // 0 disables the result cache
	ListenAddr     string `json:"listen_addr"`      // address for serve mode
	LockPath       string `json:"lock_path"`        // single-server lock for serve mode
	Pprof          bool   `json:"pprof"`            // mount /debug/pprof/ in serve mode
	MaxInputLength int    `json:"max_input_length"` // runes per expression
	Prompt         string `json:"prompt"`           // REPL prompt when stdin is a terminal
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", appName)
	default:
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", appName)
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	stateDir := defaultStateDir()

	return &Config{
		LogLevel:       "info",
		LogPath:        filepath.Join(stateDir, appName+".log"),
		HistoryPath:    filepath.Join(stateDir, "history.db"),
		HistoryEnabled: true,
		CacheEntries:   consts.DefaultCacheEntries,
		ListenAddr:     "localhost:8942",
		LockPath:       filepath.Join(stateDir, "serve.lock"),
		MaxInputLength: consts.DefaultMaxInputLength,
		Prompt:         "> ",
	}
}

// Load loads configuration from file. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Ensure critical fields have defaults if still empty
	defaults := DefaultConfig()
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogPath == "" {
		config.LogPath = defaults.LogPath
	}
	if config.HistoryPath == "" {
		config.HistoryPath = defaults.HistoryPath
	}
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.LockPath == "" {
		config.LockPath = defaults.LockPath
	}
	if config.MaxInputLength <= 0 {
		config.MaxInputLength = defaults.MaxInputLength
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that cannot be repaired by falling back to defaults
func (c *Config) Validate() error {
	if c.CacheEntries < 0 {
		return fmt.Errorf("cache_entries must not be negative, got %d", c.CacheEntries)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "none":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Level returns the parsed log level
func (c *Config) Level() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.LogLevel))
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

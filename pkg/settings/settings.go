// Package settings manages persistent user settings for the newtcheck CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Settings holds persistent user preferences. Command-line flags override
// every field.
type Settings struct {
	// Inventory is the inventory file used when -i is not specified
	Inventory string `json:"inventory,omitempty"`

	// Catalog is the catalog file used when -c is not specified
	Catalog string `json:"catalog,omitempty"`

	// Concurrency is the number of devices checked in parallel
	Concurrency int `json:"concurrency,omitempty"`

	// CommandTimeout is the per-command timeout, as a Go duration string
	CommandTimeout string `json:"command_timeout,omitempty"`

	// LogLevel is the default log level (debug, info, warn, error)
	LogLevel string `json:"log_level,omitempty"`

	// RedisAddr is the replay/record store address
	RedisAddr string `json:"redis_addr,omitempty"`

	// HistoryFile, when set, receives every run's results as JSON lines
	HistoryFile string `json:"history_file,omitempty"`
}

// Keys lists the settable keys, in display order.
var Keys = []string{"inventory", "catalog", "concurrency", "command_timeout", "log_level", "redis_addr", "history_file"}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "newtcheck_settings.json"
	}
	return filepath.Join(home, ".newtcheck", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Set assigns key from its string form. An empty value clears the key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "inventory":
		s.Inventory = value
	case "catalog":
		s.Catalog = value
	case "concurrency":
		if value == "" {
			s.Concurrency = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("concurrency: %q is not a non-negative integer", value)
		}
		s.Concurrency = n
	case "command_timeout":
		if value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("command_timeout: %w", err)
			}
		}
		s.CommandTimeout = value
	case "log_level":
		s.LogLevel = value
	case "redis_addr":
		s.RedisAddr = value
	case "history_file":
		s.HistoryFile = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns the string form of key.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "inventory":
		return s.Inventory, nil
	case "catalog":
		return s.Catalog, nil
	case "concurrency":
		if s.Concurrency == 0 {
			return "", nil
		}
		return strconv.Itoa(s.Concurrency), nil
	case "command_timeout":
		return s.CommandTimeout, nil
	case "log_level":
		return s.LogLevel, nil
	case "redis_addr":
		return s.RedisAddr, nil
	case "history_file":
		return s.HistoryFile, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// GetCommandTimeout returns the command timeout, or zero when unset or
// unparsable.
func (s *Settings) GetCommandTimeout() time.Duration {
	d, err := time.ParseDuration(s.CommandTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetRedisAddr returns the Redis address (with fallback)
func (s *Settings) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return "127.0.0.1:6379"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

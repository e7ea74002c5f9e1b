package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

// Storage backends
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// DefaultProgramID is the program ID mixed into registry addresses
const DefaultProgramID = "CArUiBgaHH6ooWBw9UNbcZNicenByQeS7yvdswZjKzXx"

type Config struct {
	// Registry Settings
	Storage          string `yaml:"storage"`
	ProgramID        string `yaml:"program_id"`
	RegistryCapacity int    `yaml:"registry_capacity"`
	KeypairPath      string `yaml:"keypair_path"`

	// Performance
	EnableCache            bool `yaml:"enable_cache"`
	CacheExpirationMinutes int  `yaml:"cache_expiration_minutes"`
	WatchDebounceMS        int  `yaml:"watch_debounce_ms"`

	// UI Settings
	DisplayDateFormat string `yaml:"display_date_format"`
	ColorTheme        string `yaml:"color_theme"`
	TableWidth        int    `yaml:"table_width"`
	DefaultSort       string `yaml:"default_sort"`
	ReverseSort       bool   `yaml:"reverse_sort"`

	// Diagnostics
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	Trace    string `yaml:"trace"` // "", "file", "stdout"
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		Storage:                StorageJSON,
		ProgramID:              DefaultProgramID,
		RegistryCapacity:       domain.DefaultCapacity,
		KeypairPath:            "",
		EnableCache:            true,
		CacheExpirationMinutes: 30,
		WatchDebounceMS:        500,
		DisplayDateFormat:      "2006-01-02",
		ColorTheme:             "auto",
		TableWidth:             0,
		DefaultSort:            "",
		ReverseSort:            false,
		Debug:                  false,
		LogLevel:               "info",
		Trace:                  "",
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if cfg.Storage == "" {
		cfg.Storage = StorageJSON
	}
	if cfg.ProgramID == "" {
		cfg.ProgramID = DefaultProgramID
	}
	if cfg.RegistryCapacity <= 0 {
		cfg.RegistryCapacity = domain.DefaultCapacity
	}
	if cfg.CacheExpirationMinutes <= 0 {
		cfg.CacheExpirationMinutes = 30
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}
	if cfg.DisplayDateFormat == "" {
		cfg.DisplayDateFormat = "2006-01-02"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if !isValidStorage(c.Storage) {
		return fmt.Errorf("invalid storage %q: expected %q or %q", c.Storage, StorageJSON, StorageSQLite)
	}
	if _, err := c.ProgramKey(); err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	switch c.Trace {
	case "", "file", "stdout":
	default:
		return fmt.Errorf("invalid trace exporter %q", c.Trace)
	}
	return nil
}

// ProgramKey parses ProgramID
func (c *Config) ProgramKey() (domain.PublicKey, error) {
	return domain.ParsePublicKey(c.ProgramID)
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isValidStorage(storage string) bool {
	validStorage := []string{StorageJSON, StorageSQLite}
	for _, valid := range validStorage {
		if storage == valid {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Files   FilesConfig   `yaml:"files"`
	Catalog CatalogConfig `yaml:"catalog"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// FilesConfig holds the paths of the backing record files
type FilesConfig struct {
	Events        string `yaml:"events"`
	Users         string `yaml:"users"`
	Registrations string `yaml:"registrations"`
}

// CatalogConfig holds event catalog settings
type CatalogConfig struct {
	// IDPadding is the zero-padding width of generated event ids
	// ("A" + padded counter). Deployments have used both 2 and 3.
	IDPadding int `yaml:"id_padding"`
}

// LedgerConfig holds registration ledger settings
type LedgerConfig struct {
	// RestoreCapacityOnCancel gives the seat back when a registration is
	// cancelled. The historical behavior is to sacrifice the seat.
	RestoreCapacityOnCancel bool `yaml:"restore_capacity_on_cancel"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	// Backend is "csv" (canonical flat files) or "sqlite" (embedded database).
	Backend string `yaml:"backend"`
	// SQLitePath is the database file used when Backend is "sqlite".
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Load reads configuration from an optional YAML file, then applies
// environment variable overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Files: FilesConfig{
			Events:        "活動列表.csv",
			Users:         "users.csv",
			Registrations: "已報名.csv",
		},
		Catalog: CatalogConfig{
			IDPadding: 3,
		},
		Ledger: LedgerConfig{
			RestoreCapacityOnCancel: false,
		},
		Store: StoreConfig{
			Backend:    "csv",
			SQLitePath: "campus-events.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) applyEnv() {
	c.Files.Events = getEnv("EVENTS_FILE", c.Files.Events)
	c.Files.Users = getEnv("USERS_FILE", c.Files.Users)
	c.Files.Registrations = getEnv("REGISTRATIONS_FILE", c.Files.Registrations)
	c.Catalog.IDPadding = getEnvAsInt("EVENT_ID_PADDING", c.Catalog.IDPadding)
	c.Ledger.RestoreCapacityOnCancel = getEnvAsBool("RESTORE_CAPACITY_ON_CANCEL", c.Ledger.RestoreCapacityOnCancel)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate checks the configuration for values the stores cannot work with.
func (c *Config) Validate() error {
	if c.Catalog.IDPadding < 1 || c.Catalog.IDPadding > 9 {
		return fmt.Errorf("catalog.id_padding must be between 1 and 9, got %d", c.Catalog.IDPadding)
	}
	if c.Store.Backend != "csv" && c.Store.Backend != "sqlite" {
		return fmt.Errorf("store.backend must be %q or %q, got %q", "csv", "sqlite", c.Store.Backend)
	}
	if c.Files.Events == "" || c.Files.Users == "" || c.Files.Registrations == "" {
		return fmt.Errorf("files.events, files.users and files.registrations must all be set")
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

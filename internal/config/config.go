// Package config provides configuration management for the calendar engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	apperrors "fincal/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Sources SourcesConfig `mapstructure:"sources"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SourcesConfig holds data source endpoints and file paths.
type SourcesConfig struct {
	CompanyCatalogURL  string `mapstructure:"company_catalog_url"`
	EarningsFeedURL    string `mapstructure:"earnings_feed_url"`
	PriceHistoryURL    string `mapstructure:"price_history_url"`
	EconomicEventsFile string `mapstructure:"economic_events_file"`
	CatalogPerPage     int    `mapstructure:"catalog_per_page"`
}

// SyncConfig holds staleness and alert re-fire windows.
type SyncConfig struct {
	RefreshWindowDays  int `mapstructure:"refresh_window_days"`
	ThirtyDayAlertGap  int `mapstructure:"thirty_day_alert_gap"`
	YearToDateAlertGap int `mapstructure:"year_to_date_alert_gap"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/fincal"
	}
	return filepath.Join(home, ".config", "fincal")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config file is fine, defaults apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("store.path", filepath.Join(configDir, "fincal.db"))
	v.SetDefault("sources.company_catalog_url", "https://www.quandl.com/api/v2/datasets.json")
	v.SetDefault("sources.earnings_feed_url", "https://www.quandl.com/api/v1/datasets/ZEA")
	v.SetDefault("sources.price_history_url", "https://www.quandl.com/api/v3/datasets/WIKI")
	v.SetDefault("sources.economic_events_file", filepath.Join(configDir, "economic_events.yaml"))
	v.SetDefault("sources.catalog_per_page", 300)
	v.SetDefault("sync.refresh_window_days", 14)
	v.SetDefault("sync.thirty_day_alert_gap", 7)
	v.SetDefault("sync.year_to_date_alert_gap", 15)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FINCAL_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("FINCAL_CATALOG_URL"); v != "" {
		cfg.Sources.CompanyCatalogURL = v
	}
	if v := os.Getenv("FINCAL_EARNINGS_URL"); v != "" {
		cfg.Sources.EarningsFeedURL = v
	}
	if v := os.Getenv("FINCAL_PRICE_URL"); v != "" {
		cfg.Sources.PriceHistoryURL = v
	}
	if v := os.Getenv("FINCAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Sources.CatalogPerPage < 1 {
		return fmt.Errorf("%w: sources.catalog_per_page must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Sync.RefreshWindowDays < 0 {
		return fmt.Errorf("%w: sync.refresh_window_days must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Sync.ThirtyDayAlertGap < 0 || c.Sync.YearToDateAlertGap < 0 {
		return fmt.Errorf("%w: alert re-fire gaps must be non-negative", apperrors.ErrConfigInvalid)
	}
	return nil
}

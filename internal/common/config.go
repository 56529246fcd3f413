// Package common provides shared utilities for Fundcast
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Fundcast
type Config struct {
	Environment  string        `toml:"environment"`
	BaseCurrency string        `toml:"base_currency"` // Base currency for ledger totals (default "CAD")
	Server       ServerConfig  `toml:"server"`
	Clients      ClientsConfig `toml:"clients"`
	Logging      LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Brokerage BrokerageConfig `toml:"brokerage"`
	Rates     RatesConfig     `toml:"rates"`
}

// BrokerageConfig holds brokerage API configuration
type BrokerageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BrokerageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RatesConfig holds historical FX rate provider configuration
type RatesConfig struct {
	BaseURL      string `toml:"base_url"`
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`
	LookbackDays int    `toml:"lookback_days"` // Max days to search backwards for a rate
}

// GetTimeout parses and returns the timeout duration
func (c *RatesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		BaseCurrency: "CAD",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			Brokerage: BrokerageConfig{
				BaseURL:   "https://api01.iq.questrade.com",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Rates: RatesConfig{
				BaseURL:      "https://www.bankofcanada.ca/valet",
				RateLimit:    5,
				Timeout:      "30s",
				LookbackDays: 365,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateBaseCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDCAST_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDCAST_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDCAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDCAST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if bc := os.Getenv("FUNDCAST_BASE_CURRENCY"); bc != "" {
		config.BaseCurrency = strings.ToUpper(bc)
	}

	if v := os.Getenv("FUNDCAST_BROKERAGE_BASE_URL"); v != "" {
		config.Clients.Brokerage.BaseURL = v
	}
	if v := os.Getenv("FUNDCAST_BROKERAGE_API_KEY"); v != "" {
		config.Clients.Brokerage.APIKey = v
	}
	if v := os.Getenv("FUNDCAST_RATES_BASE_URL"); v != "" {
		config.Clients.Rates.BaseURL = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateBaseCurrency ensures BaseCurrency is a 3-letter code, defaulting to "CAD".
func validateBaseCurrency(config *Config) {
	bc := strings.ToUpper(strings.TrimSpace(config.BaseCurrency))
	if len(bc) != 3 {
		bc = "CAD"
	}
	config.BaseCurrency = bc
}

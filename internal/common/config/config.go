// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Torn     TornConfig     `mapstructure:"torn"`
	Cache    CacheConfig    `mapstructure:"cache"`
	State    StateConfig    `mapstructure:"state"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// TornConfig holds the data provider settings.
type TornConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	Breaker       struct {
		MaxFailures int `mapstructure:"max_failures"`
		OpenTimeout int `mapstructure:"open_timeout"` // milliseconds
	} `mapstructure:"breaker"`
}

// CacheConfig controls the per-category cache and its daily reset boundary.
type CacheConfig struct {
	KeyPrefix   string `mapstructure:"key_prefix"`
	ResetHour   int    `mapstructure:"reset_hour"`
	ResetMinute int    `mapstructure:"reset_minute"`
	ResetZone   string `mapstructure:"reset_zone"`
}

// Location resolves ResetZone, falling back to UTC.
func (c CacheConfig) Location() *time.Location {
	if c.ResetZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.ResetZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type StateConfig struct {
	Key         string `mapstructure:"key"`
	DefaultType int    `mapstructure:"default_type"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ResetClock renders the reset time-of-day for log lines.
func (c CacheConfig) ResetClock() string {
	return fmt.Sprintf("%02d:%02d %s", c.ResetHour, c.ResetMinute, c.Location())
}

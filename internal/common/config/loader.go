// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and lets
// environment variables override any key (torn.api_key -> TORN_API_KEY).
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional overlay

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"torn.api_key", "torn.base_url",
		"database.redis.address", "database.redis.password",
		"server.address", "logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)
	v.SetDefault("cache.reset_hour", 18)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "torncorp-analyzer"
	}

	if cfg.Torn.BaseURL == "" {
		cfg.Torn.BaseURL = "https://api.torn.com"
	}
	if cfg.Torn.Timeout == 0 {
		cfg.Torn.Timeout = 15000
	}
	if cfg.Torn.RatePerMinute == 0 {
		cfg.Torn.RatePerMinute = 100
	}
	if cfg.Torn.Breaker.MaxFailures == 0 {
		cfg.Torn.Breaker.MaxFailures = 3
	}
	if cfg.Torn.Breaker.OpenTimeout == 0 {
		cfg.Torn.Breaker.OpenTimeout = 60000
	}

	// Torn resets daily at 18:00 TCT (UTC); reset_hour defaults via viper
	// so that an explicit 0 stays expressible.
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "torn_companies_"
	}
	if cfg.Cache.ResetZone == "" {
		cfg.Cache.ResetZone = "UTC"
	}

	if cfg.State.Key == "" {
		cfg.State.Key = "torn_state"
	}
	if cfg.State.DefaultType == 0 {
		cfg.State.DefaultType = 10
	}

	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields. The Torn API key
// is deliberately optional here: it can be supplied per request.
func validateConfig(cfg *Config) error {
	if cfg.Cache.ResetHour < 0 || cfg.Cache.ResetHour > 23 {
		return fmt.Errorf("cache.reset_hour must be within 0-23, got %d", cfg.Cache.ResetHour)
	}
	if cfg.Cache.ResetMinute < 0 || cfg.Cache.ResetMinute > 59 {
		return fmt.Errorf("cache.reset_minute must be within 0-59, got %d", cfg.Cache.ResetMinute)
	}
	if _, err := time.LoadLocation(cfg.Cache.ResetZone); err != nil {
		return fmt.Errorf("cache.reset_zone: %w", err)
	}
	if cfg.Torn.RatePerMinute < 0 {
		return fmt.Errorf("torn.rate_per_minute must not be negative")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

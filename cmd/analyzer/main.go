// cmd/analyzer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"torncorp-analyzer/internal/analyzer"
	"torncorp-analyzer/internal/cache"
	"torncorp-analyzer/internal/common/config"
	"torncorp-analyzer/internal/common/database"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/common/observability"
	"torncorp-analyzer/internal/provider"
	"torncorp-analyzer/internal/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "torncorp-analyzer",
	Short: "Rank, filter and bookmark Torn companies by category",
	Long: `torncorp-analyzer fetches the companies of a Torn company type, caches
them until the next daily reset and serves ranked, filtered views of them.

Examples:
  torncorp-analyzer serve
  torncorp-analyzer load --type 10 --refresh
  torncorp-analyzer view --format json`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: configs/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every subcommand.
type app struct {
	cfg     *config.Config
	zapLog  *zap.Logger
	log     logger.Logger
	redis   *database.RedisClient
	obs     *observability.Observability
	cache   *cache.Store
	state   *state.Store
	service *analyzer.Service
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// newApp connects to Redis, restores the session and builds the analyzer.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 5, time.Second, log, "Redis connection")
	if err != nil {
		_ = redis.Close()
		return nil, err
	}
	log.Info("redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel metrics disabled", map[string]interface{}{"error": err})
		obs = observability.NewNoop()
	}

	store := cache.NewStore(redis, cache.Config{
		KeyPrefix:   cfg.Cache.KeyPrefix,
		ResetHour:   cfg.Cache.ResetHour,
		ResetMinute: cfg.Cache.ResetMinute,
		Location:    cfg.Cache.Location(),
	}, log)
	log.Info("cache configured", map[string]interface{}{
		"reset":     cfg.Cache.ResetClock(),
		"lastReset": store.LastReset().Format(time.RFC3339),
	})

	st := state.NewStore(redis, state.Config{
		Key:         cfg.State.Key,
		DefaultType: cfg.State.DefaultType,
	}, log)
	if err := st.Load(ctx); err != nil {
		log.Warn("session not restored, using defaults", map[string]interface{}{"error": err})
	}
	if st.Snapshot().APIKey == "" && cfg.Torn.APIKey != "" {
		if _, err := st.SetAPIKey(ctx, cfg.Torn.APIKey); err != nil {
			log.Warn("configured api key not persisted", map[string]interface{}{"error": err})
		}
	}

	client := provider.NewTornClient(&provider.Config{
		BaseURL:       cfg.Torn.BaseURL,
		Timeout:       time.Duration(cfg.Torn.Timeout) * time.Millisecond,
		RatePerMinute: cfg.Torn.RatePerMinute,
		MaxFailures:   uint32(max(cfg.Torn.Breaker.MaxFailures, 0)),
		OpenTimeout:   time.Duration(cfg.Torn.Breaker.OpenTimeout) * time.Millisecond,
	}, log)

	svc := analyzer.NewService(store, client, st, log, analyzer.WithRecorder(obs))

	return &app{
		cfg:     cfg,
		zapLog:  zapLog,
		log:     log,
		redis:   redis,
		obs:     obs,
		cache:   store,
		state:   st,
		service: svc,
	}, nil
}

func (a *app) Close() {
	a.obs.Shutdown()
	if err := a.redis.Close(); err != nil {
		a.log.Warn("error closing redis", map[string]interface{}{"error": err})
	}
	_ = a.zapLog.Sync()
}

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Package cache persists the last fetched company list per category. An
// entry stays fresh until the next daily reset boundary, not for a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/common/metrics"
	"torncorp-analyzer/internal/common/validation"
	"torncorp-analyzer/internal/models"
)

// KV is the key-value slot storage. database.RedisClient satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
}

type Config struct {
	KeyPrefix   string
	ResetHour   int
	ResetMinute int
	Location    *time.Location
}

type Store struct {
	kv     KV
	cfg    Config
	now    func() time.Time
	logger logger.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(kv KV, cfg Config, log logger.Logger, opts ...Option) *Store {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Store{
		kv:     kv,
		cfg:    cfg,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastReset returns the most recent reset boundary at or before now: today's
// reset time-of-day in loc, or yesterday's if now precedes it.
func LastReset(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	reset := time.Date(y, m, d, hour, minute, 0, 0, loc)
	if now.Before(reset) {
		reset = time.Date(y, m, d-1, hour, minute, 0, 0, loc)
	}
	return reset
}

// LastReset is the boundary in effect right now.
func (s *Store) LastReset() time.Time {
	return LastReset(s.now(), s.cfg.ResetHour, s.cfg.ResetMinute, s.cfg.Location)
}

// Key returns the storage key of a category's slot.
func (s *Store) Key(categoryID int) string {
	return s.cfg.KeyPrefix + strconv.Itoa(categoryID)
}

// Get returns the entry for categoryID when it is still fresh. Expired entries
// are deleted and reported absent. Corrupt entries are reported absent and
// left in place for the next Put to overwrite. Only storage transport
// failures produce an error.
func (s *Store) Get(ctx context.Context, categoryID int) (*models.CacheEntry, bool, error) {
	key := s.Key(categoryID)

	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false, apperrors.NewCacheUnavailableError("get", err)
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}

	entry, err := decode(raw)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		s.logger.Warn("ignoring corrupt cache entry", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewCacheCorruptionError(key, err),
		})
		return nil, false, nil
	}

	boundary := s.LastReset()
	if entry.Timestamp < boundary.UnixMilli() {
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		s.logger.Info("cache expired", map[string]interface{}{
			"categoryId": categoryID,
			"lastReset":  boundary.UTC().Format(time.RFC3339),
			"capturedAt": time.UnixMilli(entry.Timestamp).UTC().Format(time.RFC3339),
		})
		if err := s.kv.Del(ctx, key); err != nil {
			s.logger.Warn("failed to purge expired cache entry", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return nil, false, nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry, true, nil
}

func decode(raw string) (*models.CacheEntry, error) {
	result, err := validation.CacheEntrySchema.ValidateBytes([]byte(raw))
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("schema violation: %s", result.Error())
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put overwrites the category's slot with companies stamped at now.
func (s *Store) Put(ctx context.Context, categoryID int, companies []models.Company) error {
	if companies == nil {
		companies = []models.Company{}
	}
	entry := models.CacheEntry{
		Timestamp: s.now().UnixMilli(),
		Companies: companies,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := s.kv.Set(ctx, s.Key(categoryID), data); err != nil {
		metrics.CacheWrites.WithLabelValues("put", "error").Inc()
		return apperrors.NewCacheUnavailableError("set", err)
	}
	metrics.CacheWrites.WithLabelValues("put", "ok").Inc()
	return nil
}

// Purge removes the category's slot. Purging an absent slot is not an error.
func (s *Store) Purge(ctx context.Context, categoryID int) error {
	if err := s.kv.Del(ctx, s.Key(categoryID)); err != nil {
		metrics.CacheWrites.WithLabelValues("purge", "error").Inc()
		return apperrors.NewCacheUnavailableError("del", err)
	}
	metrics.CacheWrites.WithLabelValues("purge", "ok").Inc()
	return nil
}

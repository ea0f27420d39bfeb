// Package analyzer wires the cache, provider and ranking pipeline behind the
// operations the UI layer calls.
package analyzer

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/common/metrics"
	"torncorp-analyzer/internal/models"
	"torncorp-analyzer/internal/provider"
	"torncorp-analyzer/internal/ranking"
	"torncorp-analyzer/internal/state"

	"github.com/google/uuid"
)

// Cache is the per-category company cache. cache.Store satisfies it.
type Cache interface {
	Get(ctx context.Context, categoryID int) (*models.CacheEntry, bool, error)
	Put(ctx context.Context, categoryID int, companies []models.Company) error
	Purge(ctx context.Context, categoryID int) error
}

// Recorder receives pipeline measurements. observability.Observability
// satisfies it.
type Recorder interface {
	RecordLoad(ctx context.Context, source, status string, d time.Duration)
	RecordViewRows(ctx context.Context, rows int)
}

type noopRecorder struct{}

func (noopRecorder) RecordLoad(context.Context, string, string, time.Duration) {}
func (noopRecorder) RecordViewRows(context.Context, int)                       {}

// attempt is the load currently allowed to commit.
type attempt struct {
	seq        uint64
	categoryID int
	cancel     context.CancelFunc
}

type Service struct {
	cache    Cache
	provider provider.Fetcher
	state    *state.Store
	recorder Recorder
	logger   logger.Logger

	mu            sync.Mutex
	seq           uint64
	current       *attempt
	batch         []models.EnrichedCompany
	batchCategory int

	// serialises the stale check with the cache write and batch swap
	commitMu sync.Mutex
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewService(cache Cache, fetcher provider.Fetcher, st *state.Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		provider: fetcher,
		state:    st,
		recorder: noopRecorder{},
		logger:   log.WithFields(map[string]interface{}{"component": "analyzer"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadCategory makes the companies of categoryID the current batch. The
// cache is read through unless forceRefresh is set, in which case the slot is
// purged first. A provider failure leaves the previous batch in place. A
// successful fetch of zero companies empties the batch and returns an
// EMPTY_RESULT error. Starting a load cancels any load still in flight; the
// older caller gets FETCH_SUPERSEDED and its result is discarded.
func (s *Service) LoadCategory(ctx context.Context, categoryID int, credential string, forceRefresh bool) ([]models.EnrichedCompany, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, apperrors.NewConfigurationError("empty API key")
	}

	start := time.Now()
	loadCtx, at := s.begin(ctx, categoryID)
	defer s.end(at)

	log := s.logger.WithFields(map[string]interface{}{
		"attemptId":  uuid.NewString(),
		"seq":        at.seq,
		"categoryId": categoryID,
	})
	log.Info("loading category", map[string]interface{}{"forceRefresh": forceRefresh})

	companies, source, err := s.obtain(loadCtx, log, categoryID, credential, forceRefresh)
	if err != nil {
		if s.stale(at) {
			return nil, s.superseded(ctx, at, source, start)
		}
		s.recorder.RecordLoad(ctx, source, string(apperrors.Normalize(err).Code), time.Since(start))
		log.Warn("category load failed", map[string]interface{}{"error": err})
		return nil, err
	}

	enriched := ranking.Enrich(companies)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.stale(at) {
		return nil, s.superseded(ctx, at, source, start)
	}

	if len(companies) == 0 {
		s.swapBatch(categoryID, enriched)
		s.recorder.RecordLoad(ctx, source, string(apperrors.ErrCodeEmptyResult), time.Since(start))
		log.Info("category has no companies", nil)
		return enriched, apperrors.NewEmptyResultError(categoryID)
	}

	if source == sourceProvider {
		if err := s.cache.Put(loadCtx, categoryID, companies); err != nil {
			log.Warn("failed to cache companies", map[string]interface{}{"error": err})
		}
	}

	s.swapBatch(categoryID, enriched)
	s.recorder.RecordLoad(ctx, source, "ok", time.Since(start))
	log.Info("category loaded", map[string]interface{}{
		"source":     source,
		"count":      len(enriched),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return enriched, nil
}

const (
	sourceCache    = "cache"
	sourceProvider = "provider"
)

// obtain returns the raw companies from the cache or the provider. Cache
// failures are logged and fall through to the provider.
func (s *Service) obtain(ctx context.Context, log logger.Logger, categoryID int, credential string, forceRefresh bool) ([]models.Company, string, error) {
	if forceRefresh {
		if err := s.cache.Purge(ctx, categoryID); err != nil {
			log.Warn("failed to purge cache before refresh", map[string]interface{}{"error": err})
		}
	} else {
		entry, found, err := s.cache.Get(ctx, categoryID)
		if err != nil {
			log.Warn("cache unavailable, fetching live", map[string]interface{}{"error": err})
		} else if found {
			log.Debug("cache hit", map[string]interface{}{
				"capturedAt": time.UnixMilli(entry.Timestamp).UTC().Format(time.RFC3339),
			})
			return entry.Companies, sourceCache, nil
		}
	}

	companies, err := s.provider.Fetch(ctx, categoryID, credential)
	return companies, sourceProvider, err
}

func (s *Service) begin(ctx context.Context, categoryID int) (context.Context, *attempt) {
	loadCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.cancel()
	}
	s.seq++
	at := &attempt{seq: s.seq, categoryID: categoryID, cancel: cancel}
	s.current = at
	return loadCtx, at
}

func (s *Service) end(at *attempt) {
	s.mu.Lock()
	if s.current == at {
		s.current = nil
	}
	s.mu.Unlock()
	at.cancel()
}

func (s *Service) stale(at *attempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq != at.seq
}

func (s *Service) superseded(ctx context.Context, at *attempt, source string, start time.Time) error {
	s.mu.Lock()
	latest := s.seq
	s.mu.Unlock()

	metrics.LoadsSuperseded.Inc()
	s.recorder.RecordLoad(ctx, source, string(apperrors.ErrCodeFetchSuperseded), time.Since(start))
	s.logger.Info("discarding superseded load", map[string]interface{}{
		"categoryId": at.categoryID,
		"seq":        at.seq,
		"latest":     latest,
	})
	return apperrors.NewFetchSupersededError(at.categoryID, at.seq, latest)
}

func (s *Service) swapBatch(categoryID int, batch []models.EnrichedCompany) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = batch
	s.batchCategory = categoryID
	// one series: the category currently shown
	metrics.BatchSize.Reset()
	metrics.BatchSize.WithLabelValues(strconv.Itoa(categoryID)).Set(float64(len(batch)))
}

// Batch returns the current enriched batch and its category.
func (s *Service) Batch() ([]models.EnrichedCompany, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch, s.batchCategory
}

// Reload loads the selected category with the stored API key.
func (s *Service) Reload(ctx context.Context, forceRefresh bool) ([]models.EnrichedCompany, error) {
	session := s.state.Snapshot()
	return s.LoadCategory(ctx, session.SelectedType, session.APIKey, forceRefresh)
}

// SelectCategory stores the selection and loads it once.
func (s *Service) SelectCategory(ctx context.Context, categoryID int) ([]models.EnrichedCompany, error) {
	return s.LoadSelected(ctx, categoryID, false)
}

// LoadSelected stores categoryID as the selection when it differs and loads
// it with the stored API key.
func (s *Service) LoadSelected(ctx context.Context, categoryID int, forceRefresh bool) ([]models.EnrichedCompany, error) {
	if s.state.Snapshot().SelectedType != categoryID {
		if _, err := s.state.SetSelectedType(ctx, categoryID); err != nil {
			s.logger.Warn("selection not persisted", map[string]interface{}{"error": err})
		}
	}
	return s.Reload(ctx, forceRefresh)
}

// SetCredential stores the API key and loads the selected category once.
func (s *Service) SetCredential(ctx context.Context, key string) ([]models.EnrichedCompany, error) {
	if _, err := s.state.SetAPIKey(ctx, strings.TrimSpace(key)); err != nil {
		s.logger.Warn("api key not persisted", map[string]interface{}{"error": err})
	}
	return s.Reload(ctx, false)
}

// PurgeCache drops the cached slot of categoryID. The current batch stays.
func (s *Service) PurgeCache(ctx context.Context, categoryID int) error {
	if err := s.cache.Purge(ctx, categoryID); err != nil {
		return err
	}
	s.logger.Info("cache purged", map[string]interface{}{"categoryId": categoryID})
	return nil
}

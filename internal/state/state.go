// Package state holds the process-wide session: selected category, API key,
// filters, sort and bookmarks. It is loaded once at startup and written back
// after every mutation.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"torncorp-analyzer/internal/bookmarks"
	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/common/validation"
	"torncorp-analyzer/internal/filter"
	"torncorp-analyzer/internal/models"
	"torncorp-analyzer/internal/sorting"
)

// KV is the document storage. database.RedisClient satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Session is the persisted document.
type Session struct {
	SelectedType int                   `json:"selectedType"`
	APIKey       string                `json:"apiKey"`
	Filters      models.FilterCriteria `json:"filters"`
	Sort         models.SortSpec       `json:"sort"`
	Marked       *bookmarks.Set        `json:"marked"`
}

// Defaults returns a fresh session.
func Defaults(defaultType int) Session {
	return Session{
		SelectedType: defaultType,
		Filters:      models.DefaultFilters(),
		Sort:         models.DefaultSort(),
		Marked:       bookmarks.NewSet(),
	}
}

func (s Session) clone() Session {
	out := s
	if s.Marked != nil {
		out.Marked = s.Marked.Clone()
	} else {
		out.Marked = bookmarks.NewSet()
	}
	return out
}

type Config struct {
	Key         string
	DefaultType int
}

type Store struct {
	mu      sync.Mutex
	kv      KV
	cfg     Config
	session Session
	logger  logger.Logger
}

func NewStore(kv KV, cfg Config, log logger.Logger) *Store {
	if cfg.Key == "" {
		cfg.Key = "torn_state"
	}
	if cfg.DefaultType <= 0 {
		cfg.DefaultType = 10
	}
	return &Store{
		kv:      kv,
		cfg:     cfg,
		session: Defaults(cfg.DefaultType),
		logger:  log.WithFields(map[string]interface{}{"component": "state"}),
	}
}

// Load replaces the in-memory session with the persisted one. A missing or
// corrupt document yields defaults; only a storage failure is an error, and
// the defaults stay in effect even then.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Defaults(s.cfg.DefaultType)

	raw, found, err := s.kv.Get(ctx, s.cfg.Key)
	if err != nil {
		return apperrors.NewCacheUnavailableError("get", err)
	}
	if !found {
		return nil
	}

	session, err := s.decode(raw)
	if err != nil {
		s.logger.Warn("ignoring corrupt session state", map[string]interface{}{
			"key":   s.cfg.Key,
			"error": err,
		})
		return nil
	}
	s.session = session
	s.logger.Debug("session state loaded", map[string]interface{}{
		"selectedType": session.SelectedType,
		"marked":       session.Marked.Len(),
	})
	return nil
}

// sessionSections lists the persisted keys in load order.
var sessionSections = []string{"selectedType", "apiKey", "filters", "sort", "marked"}

// decode rejects only a document that is not a JSON object. A section that
// fails its schema or does not decode keeps its default and the rest of the
// document is still used.
func (s *Store) decode(raw string) (Session, error) {
	result, err := validation.SessionStateSchema.ValidateBytes([]byte(raw))
	if err != nil {
		return Session{}, err
	}
	if !result.Valid {
		return Session{}, fmt.Errorf("schema violation: %s", result.Error())
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Session{}, err
	}

	session := Defaults(s.cfg.DefaultType)
	targets := map[string]interface{}{
		"selectedType": &session.SelectedType,
		"apiKey":       &session.APIKey,
		"filters":      &session.Filters,
		"sort":         &session.Sort,
		"marked":       &session.Marked,
	}
	for _, name := range sessionSections {
		section, ok := doc[name]
		if !ok {
			continue
		}
		if err := decodeSection(name, section, targets[name]); err != nil {
			s.logger.Warn("resetting invalid session section", map[string]interface{}{
				"key":     s.cfg.Key,
				"section": name,
				"error":   err,
			})
			reset := Defaults(s.cfg.DefaultType)
			switch name {
			case "selectedType":
				session.SelectedType = reset.SelectedType
			case "apiKey":
				session.APIKey = reset.APIKey
			case "filters":
				session.Filters = reset.Filters
			case "sort":
				session.Sort = reset.Sort
			case "marked":
				session.Marked = reset.Marked
			}
		}
	}
	return s.sanitize(session), nil
}

func decodeSection(name string, raw json.RawMessage, target interface{}) error {
	result, err := validation.SessionSectionSchemas[name].ValidateBytes(raw)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("schema violation: %s", result.Error())
	}
	return json.Unmarshal(raw, target)
}

// sanitize resets any value that would be rejected if set through the
// public operations, and normalizes the sort spelling.
func (s *Store) sanitize(session Session) Session {
	if session.SelectedType <= 0 {
		session.SelectedType = s.cfg.DefaultType
	}
	if filter.Validate(session.Filters) != nil {
		session.Filters = models.DefaultFilters()
	}
	if field, err := sorting.ParseField(string(session.Sort.Field)); err != nil {
		session.Sort = models.DefaultSort()
	} else {
		session.Sort.Field = field
	}
	if direction, err := sorting.ParseDirection(string(session.Sort.Direction)); err != nil {
		session.Sort.Direction = models.Descending
	} else {
		session.Sort.Direction = direction
	}
	if session.Marked == nil {
		session.Marked = bookmarks.NewSet()
	}
	return session
}

// Snapshot returns a copy safe to read without the lock.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// Update applies fn to the session and flushes it. The in-memory change
// stands even when the flush fails.
func (s *Store) Update(ctx context.Context, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.session.clone()
	fn(&next)
	s.session = next

	if err := s.flush(ctx); err != nil {
		s.logger.Error("failed to persist session state", map[string]interface{}{
			"key":   s.cfg.Key,
			"error": err,
		})
		return next.clone(), apperrors.NewStatePersistenceError(err)
	}
	return next.clone(), nil
}

func (s *Store) flush(ctx context.Context) error {
	data, err := json.Marshal(s.session)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.cfg.Key, data)
}

func (s *Store) SetSelectedType(ctx context.Context, categoryID int) (Session, error) {
	return s.Update(ctx, func(sess *Session) { sess.SelectedType = categoryID })
}

func (s *Store) SetAPIKey(ctx context.Context, key string) (Session, error) {
	return s.Update(ctx, func(sess *Session) { sess.APIKey = key })
}

func (s *Store) SetFilters(ctx context.Context, criteria models.FilterCriteria) (Session, error) {
	return s.Update(ctx, func(sess *Session) { sess.Filters = criteria })
}

func (s *Store) ResetFilters(ctx context.Context) (Session, error) {
	return s.SetFilters(ctx, models.DefaultFilters())
}

func (s *Store) SetSort(ctx context.Context, spec models.SortSpec) (Session, error) {
	return s.Update(ctx, func(sess *Session) { sess.Sort = spec })
}

// ToggleBookmark flips the mark on id and reports whether it is now marked.
func (s *Store) ToggleBookmark(ctx context.Context, id int64) (bool, Session, error) {
	var marked bool
	session, err := s.Update(ctx, func(sess *Session) { marked = sess.Marked.Toggle(id) })
	return marked, session, err
}

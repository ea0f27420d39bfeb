package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"torncorp-analyzer/internal/analyzer"
	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/models"

	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request bodies; filters and sort specs are tiny.
const maxBodyBytes = 64 << 10

// Analyzer is the subset of analyzer.Service the handlers call.
type Analyzer interface {
	LoadSelected(ctx context.Context, categoryID int, forceRefresh bool) ([]models.EnrichedCompany, error)
	Reload(ctx context.Context, forceRefresh bool) ([]models.EnrichedCompany, error)
	SetCredential(ctx context.Context, key string) ([]models.EnrichedCompany, error)
	View(ctx context.Context) analyzer.View
	ApplyFilters(ctx context.Context, criteria models.FilterCriteria) (analyzer.View, error)
	ResetFilters(ctx context.Context) analyzer.View
	SetSort(ctx context.Context, field string, direction *string) (analyzer.View, error)
	ToggleBookmark(ctx context.Context, id int64) (bool, analyzer.View)
	PurgeCache(ctx context.Context, categoryID int) error
}

type Handlers struct {
	svc    Analyzer
	store  Pinger
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

type loadResponse struct {
	Notice string `json:"notice,omitempty"`
	analyzer.View
}

type bookmarkResponse struct {
	Marked bool `json:"marked"`
	analyzer.View
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type sortRequest struct {
	Field     string  `json:"field"`
	Direction *string `json:"direction"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CompanyTypes)
}

// Companies loads a category: ?type= switches the selection, ?refresh=true
// bypasses the cache.
func (h *Handlers) Companies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	refresh := false
	if raw := q.Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errors.WriteError(w, r, apperrors.NewInvalidFilterFormatError(fmt.Sprintf("refresh: %q is not a boolean", raw)))
			return
		}
		refresh = v
	}

	var err error
	if raw := q.Get("type"); raw != "" {
		categoryID, convErr := strconv.Atoi(raw)
		if convErr != nil || categoryID <= 0 {
			h.errors.WriteError(w, r, apperrors.NewInvalidFilterFormatError(fmt.Sprintf("type: %q is not a company type id", raw)))
			return
		}
		_, err = h.svc.LoadSelected(r.Context(), categoryID, refresh)
	} else {
		_, err = h.svc.Reload(r.Context(), refresh)
	}
	h.writeLoad(w, r, err)
}

func (h *Handlers) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.WriteError(w, r, apperrors.NewConfigurationError(err.Error()))
		return
	}
	_, err := h.svc.SetCredential(r.Context(), req.APIKey)
	h.writeLoad(w, r, err)
}

// writeLoad renders the outcome of a load. An empty category is not a
// failure: the view is returned with a notice.
func (h *Handlers) writeLoad(w http.ResponseWriter, r *http.Request, err error) {
	resp := loadResponse{}
	if err != nil {
		stdErr, ok := apperrors.As(err)
		if !ok || stdErr.Code != apperrors.ErrCodeEmptyResult {
			h.errors.WriteError(w, r, err)
			return
		}
		resp.Notice = stdErr.Message
	}
	resp.View = h.svc.View(r.Context())
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) View(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.View(r.Context()))
}

func (h *Handlers) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	criteria := models.DefaultFilters()
	if err := decodeBody(w, r, &criteria); err != nil {
		h.errors.WriteError(w, r, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}
	view, err := h.svc.ApplyFilters(r.Context(), criteria)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) ResetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ResetFilters(r.Context()))
}

func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.WriteError(w, r, apperrors.NewInvalidSortFieldError(err.Error()))
		return
	}
	view, err := h.svc.SetSort(r.Context(), req.Field, req.Direction)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	marked, view := h.svc.ToggleBookmark(r.Context(), id)
	writeJSON(w, http.StatusOK, bookmarkResponse{Marked: marked, View: view})
}

func (h *Handlers) PurgeCache(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(mux.Vars(r)["type"])
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := h.svc.PurgeCache(r.Context(), categoryID); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

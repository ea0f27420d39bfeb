package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"torncorp-analyzer/internal/analyzer"
	"torncorp-analyzer/internal/cache"
	"torncorp-analyzer/internal/common/database"
	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/models"
	"torncorp-analyzer/internal/state"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	companies map[int][]models.Company
	err       error
}

func (f *stubFetcher) Fetch(_ context.Context, categoryID int, _ string) ([]models.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.companies[categoryID], nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

type testEnv struct {
	handler http.Handler
	fetcher *stubFetcher
	mr      *miniredis.Miniredis
	state   *state.Store
}

func newTestEnv(t *testing.T) *testEnv {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewTestLogger(t)
	fetcher := &stubFetcher{companies: map[int][]models.Company{
		10: {
			{ID: 1, Name: "Alpha", CompanyType: 10, Rating: 9, WeeklyIncome: 700, DailyIncome: 100, DaysOld: 40},
			{ID: 2, Name: "Bravo", CompanyType: 10, Rating: 7, WeeklyIncome: 1400, DailyIncome: 100, DaysOld: 4},
		},
	}}
	st := state.NewStore(client, state.Config{Key: "torn_state", DefaultType: 10}, log)
	store := cache.NewStore(client, cache.Config{KeyPrefix: "torn_companies_", ResetHour: 18, Location: time.UTC}, log)
	svc := analyzer.NewService(store, fetcher, st, log)

	server := NewServer(Config{Address: ":0"}, svc, client, log)
	return &testEnv{handler: server.Handler(), fetcher: fetcher, mr: mr, state: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	return body["error"].(map[string]interface{})["code"].(string)
}

func rowNames(body map[string]interface{}) []string {
	var names []string
	for _, r := range body["rows"].([]interface{}) {
		names = append(names, r.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_StoreDown(t *testing.T) {
	server := NewServer(Config{}, nil, failingPinger{}, logger.NewNoOpLogger())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTypes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/types", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var types []models.CompanyType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	assert.Equal(t, models.CompanyTypes, types)
}

func TestCompanies_RequiresCredential(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/companies", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperrors.ErrCodeConfiguration), errorCode(t, rec))
}

func TestCredentialThenCompanies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/credential", `{"apiKey": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, []string{"Bravo", "Alpha"}, rowNames(body))
	assert.True(t, env.mr.Exists("torn_companies_10"))

	rec = env.do(t, http.MethodGet, "/api/companies?refresh=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompanies_EmptyCategoryIsANotice(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.state.SetAPIKey(context.Background(), "abc")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/companies?type=33", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "No companies found for this type.", body["notice"])
	assert.Equal(t, float64(33), body["categoryId"])
	assert.Equal(t, 33, env.state.Snapshot().SelectedType)
}

func TestCompanies_ProviderError(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.state.SetAPIKey(context.Background(), "abc")
	require.NoError(t, err)
	env.fetcher.err = apperrors.NewProviderAPIError(2, "Incorrect key")

	rec := env.do(t, http.MethodGet, "/api/companies?type=10", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Incorrect key", body["error"].(map[string]interface{})["message"])
}

func TestCompanies_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/companies?type=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/companies?refresh=maybe", "").Code)
}

func TestFiltersSortAndBookmarks(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/credential", `{"apiKey": "abc"}`).Code)

	rec := env.do(t, http.MethodPut, "/api/filters", `{"minStars": 8, "maxAge": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Alpha"}, rowNames(decode(t, rec)))

	rec = env.do(t, http.MethodPut, "/api/filters", `{"minStars": 8, "maxStars": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperrors.ErrCodeInvalidFilterFormat), errorCode(t, rec))

	rec = env.do(t, http.MethodPut, "/api/filters", `{"stars": 8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rowNames(decode(t, rec)), 2)

	rec = env.do(t, http.MethodPut, "/api/sort", `{"field": "days_old", "direction": "desc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Alpha", "Bravo"}, rowNames(decode(t, rec)))

	rec = env.do(t, http.MethodPut, "/api/sort", `{"field": "salary"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperrors.ErrCodeInvalidSortField), errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/bookmarks/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["marked"])
	assert.Len(t, body["bookmarked"], 1)

	rec = env.do(t, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{float64(2)}, decode(t, rec)["marked"])
}

func TestPurgeCache(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/credential", `{"apiKey": "abc"}`).Code)
	require.True(t, env.mr.Exists("torn_companies_10"))

	rec := env.do(t, http.MethodDelete, "/api/cache/10", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.mr.Exists("torn_companies_10"))
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/bookmarks/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

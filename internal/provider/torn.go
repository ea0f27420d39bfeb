// Package provider adapts the Torn public API into company records.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "torncorp-analyzer/internal/common/errors"
	apphttp "torncorp-analyzer/internal/common/http"
	"torncorp-analyzer/internal/common/logger"
	"torncorp-analyzer/internal/common/metrics"
	"torncorp-analyzer/internal/models"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Fetcher supplies the raw company list of one category.
type Fetcher interface {
	Fetch(ctx context.Context, categoryID int, credential string) ([]models.Company, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerMinute <= 0 disables client-side limiting.
	RatePerMinute int
	MaxFailures   uint32
	OpenTimeout   time.Duration
}

type TornClient struct {
	config  *Config
	http    *apphttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

func NewTornClient(config *Config, log logger.Logger) *TornClient {
	limit := rate.Inf
	if config.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.RatePerMinute))
	}
	maxFailures := config.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}

	c := &TornClient{
		config:  config,
		http:    apphttp.NewClient(config.Timeout),
		limiter: rate.NewLimiter(limit, 1),
		logger:  log.WithFields(map[string]interface{}{"component": "torn-api"}),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "torn-api",
		Timeout: config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a caller abandoning its request says nothing about the API's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return c
}

type apiResponse struct {
	Company map[string]rawCompany `json:"company"`
	Error   *apiError             `json:"error"`
}

type apiError struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// rawCompany mirrors the provider payload; absent numbers decode as zero.
type rawCompany struct {
	Name              string  `json:"name"`
	CompanyType       float64 `json:"company_type"`
	Rating            float64 `json:"rating"`
	DaysOld           float64 `json:"days_old"`
	EmployeesHired    float64 `json:"employees_hired"`
	EmployeesCapacity float64 `json:"employees_capacity"`
	DailyIncome       float64 `json:"daily_income"`
	WeeklyIncome      float64 `json:"weekly_income"`
	DailyCustomers    float64 `json:"daily_customers"`
	WeeklyCustomers   float64 `json:"weekly_customers"`
}

// Fetch calls GET /company/{id}?selections=companies. Every failure is
// returned as a PROVIDER_ERROR carrying the provider's message; nothing is
// retried here.
func (c *TornClient) Fetch(ctx context.Context, categoryID int, credential string) ([]models.Company, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, apperrors.NewConfigurationError("empty API key")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewProviderError("Failed to communicate with Torn API", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var resp apiResponse
		if err := c.http.GetJSON(ctx, c.companiesURL(categoryID, credential), &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	metrics.ProviderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, c.transportError(categoryID, err)
	}

	resp := result.(*apiResponse)
	if resp.Error != nil {
		metrics.ProviderRequests.WithLabelValues("api_error").Inc()
		c.logger.Warn("torn api returned error", map[string]interface{}{
			"categoryId": categoryID,
			"code":       resp.Error.Code,
			"message":    resp.Error.Error,
		})
		return nil, apperrors.NewProviderAPIError(resp.Error.Code, resp.Error.Error)
	}

	metrics.ProviderRequests.WithLabelValues("ok").Inc()
	companies := c.toCompanies(categoryID, resp.Company)

	c.logger.Info("fetched companies", map[string]interface{}{
		"categoryId": categoryID,
		"count":      len(companies),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return companies, nil
}

func (c *TornClient) companiesURL(categoryID int, credential string) string {
	q := url.Values{}
	q.Set("selections", "companies")
	q.Set("key", credential)
	return fmt.Sprintf("%s/company/%d?%s", strings.TrimRight(c.config.BaseURL, "/"), categoryID, q.Encode())
}

func (c *TornClient) transportError(categoryID int, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.ProviderRequests.WithLabelValues("breaker_open").Inc()
		return apperrors.NewProviderError("Torn API temporarily unavailable", err)
	}

	if errors.Is(err, context.Canceled) {
		metrics.ProviderRequests.WithLabelValues("canceled").Inc()
		c.logger.Debug("torn api request canceled", map[string]interface{}{"categoryId": categoryID})
		return apperrors.NewProviderError("Torn API request canceled", err)
	}

	metrics.ProviderRequests.WithLabelValues("transport_error").Inc()
	c.logger.Error("torn api request failed", map[string]interface{}{
		"categoryId": categoryID,
		"error":      err,
	})
	return apperrors.NewProviderError("Failed to communicate with Torn API", err)
}

// toCompanies converts the id-keyed payload into records ordered by id.
func (c *TornClient) toCompanies(categoryID int, raw map[string]rawCompany) []models.Company {
	companies := make([]models.Company, 0, len(raw))
	for idStr, val := range raw {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			c.logger.Warn("skipping company with non-numeric id", map[string]interface{}{
				"id": idStr,
			})
			continue
		}

		companyType := int(val.CompanyType)
		if companyType == 0 {
			companyType = categoryID
		}

		companies = append(companies, models.Company{
			ID:              id,
			Name:            val.Name,
			CompanyType:     companyType,
			Rating:          val.Rating,
			DaysOld:         toInt(val.DaysOld),
			Employees:       toInt(val.EmployeesHired),
			Capacity:        toInt(val.EmployeesCapacity),
			DailyIncome:     toInt(val.DailyIncome),
			WeeklyIncome:    toInt(val.WeeklyIncome),
			DailyCustomers:  toInt(val.DailyCustomers),
			WeeklyCustomers: toInt(val.WeeklyCustomers),
		})
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].ID < companies[j].ID
	})
	return companies
}

func toInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}

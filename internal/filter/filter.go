// Package filter narrows an enriched batch with inclusive range bounds and a
// name query. Filters never reorder their input.
package filter

import (
	"fmt"
	"math"
	"strings"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/models"
)

type bound struct {
	field string
	min   float64
	max   *float64
	value func(c models.EnrichedCompany) float64
}

func bounds(criteria models.FilterCriteria) []bound {
	return []bound{
		{"stars", criteria.MinStars, criteria.MaxStars,
			func(c models.EnrichedCompany) float64 { return c.Rating }},
		{"dailyIncome", criteria.MinDailyIncome, criteria.MaxDailyIncome,
			func(c models.EnrichedCompany) float64 { return float64(c.DailyIncome) }},
		{"weeklyIncome", criteria.MinWeeklyIncome, criteria.MaxWeeklyIncome,
			func(c models.EnrichedCompany) float64 { return float64(c.WeeklyIncome) }},
		{"dailyCustomers", criteria.MinDailyCustomers, criteria.MaxDailyCustomers,
			func(c models.EnrichedCompany) float64 { return float64(c.DailyCustomers) }},
		{"age", criteria.MinAge, criteria.MaxAge,
			func(c models.EnrichedCompany) float64 { return float64(c.DaysOld) }},
	}
}

// ApplyBounds keeps the rows inside every numeric bound. A minimum only
// applies when positive; a maximum only when set.
func ApplyBounds(rows []models.EnrichedCompany, criteria models.FilterCriteria) []models.EnrichedCompany {
	active := make([]bound, 0, 5)
	for _, b := range bounds(criteria) {
		if b.min > 0 || b.max != nil {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		return rows
	}

	out := make([]models.EnrichedCompany, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, active) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAll(row models.EnrichedCompany, active []bound) bool {
	for _, b := range active {
		v := b.value(row)
		if b.min > 0 && v < b.min {
			return false
		}
		if b.max != nil && v > *b.max {
			return false
		}
	}
	return true
}

// MatchName keeps the rows whose name contains query, ignoring case. An
// empty query matches everything.
func MatchName[T interface{ GetName() string }](rows []T, query string) []T {
	if query == "" {
		return rows
	}
	q := strings.ToLower(query)

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.GetName()), q) {
			out = append(out, row)
		}
	}
	return out
}

// Apply runs the numeric bounds, then the name query.
func Apply(rows []models.EnrichedCompany, criteria models.FilterCriteria) []models.EnrichedCompany {
	return MatchName(ApplyBounds(rows, criteria), criteria.Name)
}

// Validate rejects bounds a caller could not have meant.
func Validate(criteria models.FilterCriteria) error {
	for _, b := range bounds(criteria) {
		if math.IsNaN(b.min) || math.IsInf(b.min, 0) || b.min < 0 {
			return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s minimum must be a non-negative number", b.field))
		}
		if b.max == nil {
			continue
		}
		if math.IsNaN(*b.max) || math.IsInf(*b.max, 0) || *b.max < 0 {
			return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s maximum must be a non-negative number", b.field))
		}
		if *b.max < b.min {
			return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s minimum %g exceeds maximum %g", b.field, b.min, *b.max))
		}
	}
	return nil
}

// Package sorting orders a filtered batch and assigns display ranks.
package sorting

import (
	"fmt"
	"sort"
	"strings"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort returns rows ordered by spec with DisplayRank set to the 1-based
// position. Equal values keep their input order. Text fields use English
// collation, every other field compares numerically.
func Sort(rows []models.EnrichedCompany, spec models.SortSpec) []models.RankedCompany {
	out := make([]models.RankedCompany, len(rows))
	for i, r := range rows {
		out[i] = models.RankedCompany{EnrichedCompany: r}
	}

	sign := 1
	if spec.Direction == models.Descending {
		sign = -1
	}

	var compare func(a, b models.EnrichedCompany) int
	if isText(spec.Field) {
		// a Collator keeps internal buffers; one per call
		col := collate.New(language.English)
		compare = func(a, b models.EnrichedCompany) int {
			return col.CompareString(a.Name, b.Name)
		}
	} else {
		compare = func(a, b models.EnrichedCompany) int {
			va, vb := numeric(a, spec.Field), numeric(b, spec.Field)
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return sign*compare(out[i].EnrichedCompany, out[j].EnrichedCompany) < 0
	})

	for i := range out {
		out[i].DisplayRank = i + 1
	}
	return out
}

// RankIndex maps company id to display rank.
func RankIndex(ranked []models.RankedCompany) map[int64]int {
	index := make(map[int64]int, len(ranked))
	for _, r := range ranked {
		if r.DisplayRank > 0 {
			index[r.ID] = r.DisplayRank
		}
	}
	return index
}

// Strip drops the display ranks.
func Strip(ranked []models.RankedCompany) []models.EnrichedCompany {
	out := make([]models.EnrichedCompany, len(ranked))
	for i, r := range ranked {
		out[i] = r.EnrichedCompany
	}
	return out
}

func isText(field models.SortField) bool {
	return field == models.SortByName
}

// numeric reads a sortable value; unknown fields read as 0.
func numeric(c models.EnrichedCompany, field models.SortField) float64 {
	switch field {
	case models.SortByRating:
		return c.Rating
	case models.SortByDailyIncome:
		return float64(c.DailyIncome)
	case models.SortByWeeklyIncome:
		return float64(c.WeeklyIncome)
	case models.SortByDailyCustomers:
		return float64(c.DailyCustomers)
	case models.SortByWeeklyCustomers:
		return float64(c.WeeklyCustomers)
	case models.SortByDaysOld:
		return float64(c.DaysOld)
	case models.SortByTornRank:
		return float64(c.TornRank)
	case models.SortByEmployees:
		return float64(c.Employees)
	case models.SortByCapacity:
		return float64(c.Capacity)
	case models.SortByPerformance:
		return c.Performance
	}
	return 0
}

// ParseField accepts the wire name of a sort field.
func ParseField(s string) (models.SortField, error) {
	field := models.SortField(strings.TrimSpace(s))
	for _, f := range models.SortFields {
		if f == field {
			return f, nil
		}
	}
	return "", apperrors.NewInvalidSortFieldError(fmt.Sprintf("unknown sort field %q", s))
}

// ParseDirection accepts "asc" or "desc", case-insensitively.
func ParseDirection(s string) (models.SortDirection, error) {
	switch models.SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case models.Ascending:
		return models.Ascending, nil
	case models.Descending:
		return models.Descending, nil
	}
	return "", apperrors.NewInvalidSortFieldError(fmt.Sprintf("unknown sort direction %q", s))
}

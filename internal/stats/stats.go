// Package stats computes the summary cards and range-slider limits shown
// next to the company table.
package stats

import (
	"math"
	"strconv"
	"strings"

	"torncorp-analyzer/internal/models"
)

// Highlight is one summary card.
type Highlight struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Value     string `json:"value"`
	Subtext   string `json:"subtext"`
	CompanyID int64  `json:"companyId"`
}

// Highlights picks the leaders among the displayed rows. It returns nil for
// an empty view. On ties the earliest row wins.
func Highlights(rows []models.RankedCompany) []Highlight {
	if len(rows) == 0 {
		return nil
	}

	highest := func(value func(models.RankedCompany) int64) models.RankedCompany {
		best := rows[0]
		for _, r := range rows[1:] {
			if value(r) > value(best) {
				best = r
			}
		}
		return best
	}

	weeklyRev := highest(func(r models.RankedCompany) int64 { return r.WeeklyIncome })
	dailyRev := highest(func(r models.RankedCompany) int64 { return r.DailyIncome })
	weeklyCust := highest(func(r models.RankedCompany) int64 { return r.WeeklyCustomers })
	dailyCust := highest(func(r models.RankedCompany) int64 { return r.DailyCustomers })
	youngest := highest(func(r models.RankedCompany) int64 { return -r.DaysOld })

	return []Highlight{
		{ID: "hwr", Title: "High W. Rev", Value: "$" + Compact(weeklyRev.WeeklyIncome), Subtext: weeklyRev.Name, CompanyID: weeklyRev.ID},
		{ID: "hdr", Title: "High D. Rev", Value: "$" + Compact(dailyRev.DailyIncome), Subtext: dailyRev.Name, CompanyID: dailyRev.ID},
		{ID: "hwc", Title: "High W. Cust", Value: Compact(weeklyCust.WeeklyCustomers), Subtext: weeklyCust.Name, CompanyID: weeklyCust.ID},
		{ID: "hdc", Title: "High D. Cust", Value: Compact(dailyCust.DailyCustomers), Subtext: dailyCust.Name, CompanyID: dailyCust.ID},
		{ID: "yng", Title: "Youngest", Value: strconv.FormatInt(youngest.DaysOld, 10) + "d", Subtext: youngest.Name, CompanyID: youngest.ID},
	}
}

var compactUnits = []struct {
	size   float64
	suffix string
}{
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
	{1e12, "T"},
}

// Compact renders n in short form with at most one decimal: 999, 1.2K,
// 3.5M, 1B.
func Compact(n int64) string {
	sign := ""
	v := float64(n)
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v < 1e3 {
		return sign + strconv.FormatInt(int64(v), 10)
	}

	unit := 0
	for unit+1 < len(compactUnits) && v >= compactUnits[unit+1].size {
		unit++
	}
	scaled := math.Round(v/compactUnits[unit].size*10) / 10
	// 999.95K rounds up into the next unit
	if scaled >= 1000 && unit+1 < len(compactUnits) {
		unit++
		scaled = math.Round(v/compactUnits[unit].size*10) / 10
	}

	text := strconv.FormatFloat(scaled, 'f', 1, 64)
	text = strings.TrimSuffix(text, ".0")
	return sign + text + compactUnits[unit].suffix
}

// Limits are the upper ends of the filter sliders.
type Limits struct {
	MaxDailyIncome    int64 `json:"maxIncomeD"`
	MaxWeeklyIncome   int64 `json:"maxIncomeW"`
	MaxDailyCustomers int64 `json:"maxCust"`
	MaxAge            int64 `json:"maxAge"`
}

// DefaultLimits apply before any batch is loaded.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyIncome:    1000000,
		MaxWeeklyIncome:   7000000,
		MaxDailyCustomers: 1000,
		MaxAge:            5000,
	}
}

// ComputeLimits takes the batch maxima, never below a per-field floor.
func ComputeLimits(companies []models.EnrichedCompany) Limits {
	if len(companies) == 0 {
		return DefaultLimits()
	}

	l := Limits{
		MaxDailyIncome:    1000,
		MaxWeeklyIncome:   10000,
		MaxDailyCustomers: 100,
		MaxAge:            100,
	}
	for _, c := range companies {
		l.MaxDailyIncome = max(l.MaxDailyIncome, c.DailyIncome)
		l.MaxWeeklyIncome = max(l.MaxWeeklyIncome, c.WeeklyIncome)
		l.MaxDailyCustomers = max(l.MaxDailyCustomers, c.DailyCustomers)
		l.MaxAge = max(l.MaxAge, c.DaysOld)
	}
	return l
}

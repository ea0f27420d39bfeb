package stats

import (
	"testing"

	"torncorp-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(c models.Company) models.RankedCompany {
	return models.RankedCompany{EnrichedCompany: models.EnrichedCompany{Company: c}}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1234, "1.2K"},
		{15500, "15.5K"},
		{999950, "1M"},
		{3500000, "3.5M"},
		{7000000000, "7B"},
		{2100000000000, "2.1T"},
		{-4200, "-4.2K"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in))
		})
	}
}

func TestHighlights(t *testing.T) {
	rows := []models.RankedCompany{
		ranked(models.Company{ID: 1, Name: "Old Rich", DaysOld: 900, WeeklyIncome: 7500000, DailyIncome: 100,
			WeeklyCustomers: 10, DailyCustomers: 1}),
		ranked(models.Company{ID: 2, Name: "Young Busy", DaysOld: 3, WeeklyIncome: 10, DailyIncome: 2000,
			WeeklyCustomers: 4000, DailyCustomers: 600}),
	}

	cards := Highlights(rows)
	require.Len(t, cards, 5)

	byID := make(map[string]Highlight)
	for _, c := range cards {
		byID[c.ID] = c
	}
	assert.Equal(t, Highlight{ID: "hwr", Title: "High W. Rev", Value: "$7.5M", Subtext: "Old Rich", CompanyID: 1}, byID["hwr"])
	assert.Equal(t, "$2K", byID["hdr"].Value)
	assert.Equal(t, "Young Busy", byID["hdr"].Subtext)
	assert.Equal(t, "4K", byID["hwc"].Value)
	assert.Equal(t, "600", byID["hdc"].Value)
	assert.Equal(t, "3d", byID["yng"].Value)
	assert.Equal(t, int64(2), byID["yng"].CompanyID)
}

func TestHighlights_TiesPickFirstRow(t *testing.T) {
	rows := []models.RankedCompany{
		ranked(models.Company{ID: 8, Name: "first", DaysOld: 5}),
		ranked(models.Company{ID: 3, Name: "second", DaysOld: 5}),
	}
	for _, c := range Highlights(rows) {
		assert.Equal(t, int64(8), c.CompanyID, c.ID)
	}
}

func TestHighlights_Empty(t *testing.T) {
	assert.Nil(t, Highlights(nil))
}

func TestComputeLimits(t *testing.T) {
	assert.Equal(t, DefaultLimits(), ComputeLimits(nil))

	small := []models.EnrichedCompany{{Company: models.Company{DailyIncome: 5, WeeklyIncome: 5, DailyCustomers: 5, DaysOld: 5}}}
	assert.Equal(t, Limits{MaxDailyIncome: 1000, MaxWeeklyIncome: 10000, MaxDailyCustomers: 100, MaxAge: 100}, ComputeLimits(small))

	big := []models.EnrichedCompany{
		{Company: models.Company{DailyIncome: 2500, WeeklyIncome: 90000, DailyCustomers: 10, DaysOld: 3000}},
		{Company: models.Company{DailyIncome: 100, WeeklyIncome: 20000, DailyCustomers: 450, DaysOld: 7}},
	}
	assert.Equal(t, Limits{MaxDailyIncome: 2500, MaxWeeklyIncome: 90000, MaxDailyCustomers: 450, MaxAge: 3000}, ComputeLimits(big))
}

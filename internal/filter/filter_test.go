package filter

import (
	"math"
	"testing"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id int64, name string, rating float64) models.EnrichedCompany {
	return models.EnrichedCompany{Company: models.Company{ID: id, Name: name, Rating: rating}}
}

func ids(rows []models.EnrichedCompany) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func sampleRows() []models.EnrichedCompany {
	return []models.EnrichedCompany{
		{Company: models.Company{ID: 1, Name: "Sunny Farms", Rating: 4.9, DailyIncome: 100, WeeklyIncome: 700,
			DailyCustomers: 5, DaysOld: 30}},
		{Company: models.Company{ID: 2, Name: "Moonlight Bar", Rating: 5.0, DailyIncome: 0, WeeklyIncome: 0,
			DailyCustomers: 0, DaysOld: 400}},
		{Company: models.Company{ID: 3, Name: "SUNSET Diner", Rating: 5.1, DailyIncome: 5000, WeeklyIncome: 35000,
			DailyCustomers: 50, DaysOld: 1200}},
	}
}

func TestApplyBounds_MinStarsScenario(t *testing.T) {
	rows := []models.EnrichedCompany{row(1, "a", 4.9), row(2, "b", 5.0), row(3, "c", 5.1)}

	got := ApplyBounds(rows, models.FilterCriteria{MinStars: 5})
	assert.Equal(t, []int64{2, 3}, ids(got))
}

func TestApplyBounds_DefaultIsIdentity(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, rows, ApplyBounds(rows, models.DefaultFilters()))
	assert.Equal(t, rows, Apply(rows, models.DefaultFilters()))
}

func TestApplyBounds_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     []int64
	}{
		{"max stars inclusive", models.FilterCriteria{MaxStars: models.Bound(5.0)}, []int64{1, 2}},
		{"zero max is a real bound", models.FilterCriteria{MaxDailyIncome: models.Bound(0)}, []int64{2}},
		{"min weekly income", models.FilterCriteria{MinWeeklyIncome: 700}, []int64{1, 3}},
		{"max weekly income", models.FilterCriteria{MaxWeeklyIncome: models.Bound(700)}, []int64{1, 2}},
		{"daily customers range", models.FilterCriteria{MinDailyCustomers: 1, MaxDailyCustomers: models.Bound(10)}, []int64{1}},
		{"age range", models.FilterCriteria{MinAge: 30, MaxAge: models.Bound(400)}, []int64{1, 2}},
		{"combined with AND", models.FilterCriteria{MinStars: 5, MinDailyIncome: 1}, []int64{3}},
		{"nothing passes", models.FilterCriteria{MinStars: 9}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyBounds(sampleRows(), tt.criteria)))
		})
	}
}

func TestApplyBounds_PreservesOrder(t *testing.T) {
	rows := []models.EnrichedCompany{row(9, "x", 7), row(3, "y", 1), row(5, "z", 8), row(1, "w", 9)}

	got := ApplyBounds(rows, models.FilterCriteria{MinStars: 5})
	assert.Equal(t, []int64{9, 5, 1}, ids(got))
}

func TestMatchName(t *testing.T) {
	rows := sampleRows()

	assert.Equal(t, []int64{1, 3}, ids(MatchName(rows, "sun")))
	assert.Equal(t, []int64{2}, ids(MatchName(rows, "LIGHT b")))
	assert.Equal(t, []int64{1, 2, 3}, ids(MatchName(rows, "")))
	assert.Empty(t, MatchName(rows, "nope"))
}

func TestMatchName_RankedRows(t *testing.T) {
	rows := []models.RankedCompany{
		{EnrichedCompany: row(1, "Alpha", 1), DisplayRank: 1},
		{EnrichedCompany: row(2, "Beta", 1), DisplayRank: 2},
	}
	got := MatchName(rows, "bet")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].DisplayRank)
}

func TestApply_NameAfterBounds(t *testing.T) {
	got := Apply(sampleRows(), models.FilterCriteria{Name: "sun", MinStars: 5})
	assert.Equal(t, []int64{3}, ids(got))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		criteria models.FilterCriteria
		wantErr  bool
	}{
		{"defaults", models.DefaultFilters(), false},
		{"min equals max", models.FilterCriteria{MinAge: 5, MaxAge: models.Bound(5)}, false},
		{"zero max", models.FilterCriteria{MaxWeeklyIncome: models.Bound(0)}, false},
		{"negative min", models.FilterCriteria{MinDailyIncome: -1}, true},
		{"negative max", models.FilterCriteria{MaxStars: models.Bound(-2)}, true},
		{"min above max", models.FilterCriteria{MinStars: 8, MaxStars: models.Bound(4)}, true},
		{"not a number", models.FilterCriteria{MinAge: math.NaN()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.criteria)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidFilterFormat))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

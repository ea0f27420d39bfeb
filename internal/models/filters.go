// internal/models/filters.go
package models

// FilterCriteria holds independent inclusive bounds. A nil maximum means
// "no upper bound"; it is persisted as null and never as zero.
type FilterCriteria struct {
	Name              string   `json:"name"`
	MinStars          float64  `json:"minStars"`
	MaxStars          *float64 `json:"maxStars"`
	MinDailyIncome    float64  `json:"minDailyIncome"`
	MaxDailyIncome    *float64 `json:"maxDailyIncome"`
	MinWeeklyIncome   float64  `json:"minWeeklyIncome"`
	MaxWeeklyIncome   *float64 `json:"maxWeeklyIncome"`
	MinDailyCustomers float64  `json:"minDailyCustomers"`
	MaxDailyCustomers *float64 `json:"maxDailyCustomers"`
	MinAge            float64  `json:"minAge"`
	MaxAge            *float64 `json:"maxAge"`
}

// DefaultFilters leaves every bound open.
func DefaultFilters() FilterCriteria {
	return FilterCriteria{}
}

// IsDefault reports whether no bound or name query is set.
func (f FilterCriteria) IsDefault() bool {
	return f.Name == "" &&
		f.MinStars <= 0 && f.MaxStars == nil &&
		f.MinDailyIncome <= 0 && f.MaxDailyIncome == nil &&
		f.MinWeeklyIncome <= 0 && f.MaxWeeklyIncome == nil &&
		f.MinDailyCustomers <= 0 && f.MaxDailyCustomers == nil &&
		f.MinAge <= 0 && f.MaxAge == nil
}

// Bound returns a pointer for an optional maximum.
func Bound(v float64) *float64 {
	return &v
}

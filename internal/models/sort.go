// internal/models/sort.go
package models

type SortField string

const (
	SortByName            SortField = "name"
	SortByRating          SortField = "rating"
	SortByDailyIncome     SortField = "daily_income"
	SortByWeeklyIncome    SortField = "weekly_income"
	SortByDailyCustomers  SortField = "daily_customers"
	SortByWeeklyCustomers SortField = "weekly_customers"
	SortByDaysOld         SortField = "days_old"
	SortByTornRank        SortField = "torn_rank"
	SortByEmployees       SortField = "employees"
	SortByCapacity        SortField = "capacity"
	SortByPerformance     SortField = "performance"
)

// SortFields lists every selectable field in display order.
var SortFields = []SortField{
	SortByTornRank, SortByName, SortByRating, SortByDailyIncome, SortByWeeklyIncome,
	SortByDailyCustomers, SortByWeeklyCustomers, SortByDaysOld, SortByEmployees,
	SortByCapacity, SortByPerformance,
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func DefaultSort() SortSpec {
	return SortSpec{Field: SortByWeeklyIncome, Direction: Descending}
}

// Select applies a header click: re-selecting the current field flips the
// direction, a new field starts descending. An explicit direction wins.
func (s SortSpec) Select(field SortField, direction *SortDirection) SortSpec {
	next := s
	switch {
	case direction != nil:
		next.Field = field
		next.Direction = *direction
	case field == s.Field:
		next.Direction = s.Direction.Flip()
	default:
		next.Field = field
		next.Direction = Descending
	}
	return next
}

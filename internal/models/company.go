// internal/models/company.go
package models

// Company is one record as supplied by the data provider. Values are
// created fresh on every fetch and never mutated afterwards.
type Company struct {
	ID              int64   `json:"ID"`
	Name            string  `json:"name"`
	CompanyType     int     `json:"company_type"`
	Rating          float64 `json:"rating"` // 0-10
	DaysOld         int64   `json:"days_old"`
	Employees       int64   `json:"employees"`
	Capacity        int64   `json:"capacity"`
	DailyIncome     int64   `json:"daily_income"`
	WeeklyIncome    int64   `json:"weekly_income"`
	DailyCustomers  int64   `json:"daily_customers"`
	WeeklyCustomers int64   `json:"weekly_customers"`
}

func (c Company) GetName() string { return c.Name }

// GroupRanks positions a company among companies sharing its rounded rating.
// All ranks are 1-based; zero means the group could not be resolved.
type GroupRanks struct {
	RankAge       int `json:"rank_age"`       // youngest first
	RankRevenue   int `json:"rank_revenue"`   // highest weekly income first
	RankCustomers int `json:"rank_customers"` // most weekly customers first
	TotalInGroup  int `json:"total_in_group"`
}

// EnrichedCompany is a Company plus the statistics derived for its batch.
type EnrichedCompany struct {
	Company
	TornRank    int        `json:"torn_rank"`
	Performance float64    `json:"performance"`
	MarkedRanks GroupRanks `json:"marked_ranks"`
}

// RankedCompany carries the position of a company in the current view.
type RankedCompany struct {
	EnrichedCompany
	DisplayRank int `json:"display_rank"`
}

// CacheEntry is the persisted form of one category's last fetch.
type CacheEntry struct {
	Timestamp int64     `json:"timestamp"` // epoch millis
	Companies []Company `json:"companies"`
}

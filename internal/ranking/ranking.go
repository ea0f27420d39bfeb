// Package ranking derives per-batch statistics for a company list: the
// global rank, the performance ratio and the ranks inside each rating group.
package ranking

import (
	"math"
	"sort"

	"torncorp-analyzer/internal/models"
)

// Enrich annotates every company of one fetch batch. The result has the same
// order as the input; the input slice is not modified.
func Enrich(companies []models.Company) []models.EnrichedCompany {
	tornRanks := GlobalRanks(companies)
	groupRanks := GroupRanksByRating(companies)

	out := make([]models.EnrichedCompany, len(companies))
	for i, c := range companies {
		out[i] = models.EnrichedCompany{
			Company:     c,
			TornRank:    tornRanks[i],
			Performance: Performance(c.DailyIncome, c.WeeklyIncome),
			MarkedRanks: groupRanks[i],
		}
	}
	return out
}

// GlobalRanks returns the 1-based rank of each input position ordered by
// rating desc, then weekly income desc. Equal keys keep input order.
func GlobalRanks(companies []models.Company) []int {
	order := indexes(len(companies))
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := companies[order[a]], companies[order[b]]
		if ca.Rating != cb.Rating {
			return ca.Rating > cb.Rating
		}
		return ca.WeeklyIncome > cb.WeeklyIncome
	})

	ranks := make([]int, len(companies))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// Performance compares the daily income with the daily share of the weekly
// income, in percent. A zero weekly income yields 0.
func Performance(daily, weekly int64) float64 {
	avg := float64(weekly) / 7
	if avg <= 0 {
		return 0
	}
	return (float64(daily) - avg) / avg * 100
}

// GroupKey is the rating group of a company: its rating rounded half away
// from zero.
func GroupKey(rating float64) int {
	return int(math.Round(rating))
}

// GroupRanksByRating ranks companies inside their rating group: youngest
// first, highest weekly income first and most weekly customers first.
func GroupRanksByRating(companies []models.Company) []models.GroupRanks {
	groups := make(map[int][]int)
	for i, c := range companies {
		key := GroupKey(c.Rating)
		groups[key] = append(groups[key], i)
	}

	ranks := make([]models.GroupRanks, len(companies))
	for _, members := range groups {
		total := len(members)

		rankWithin(members, func(a, b models.Company) bool {
			return a.DaysOld < b.DaysOld
		}, companies, func(idx, rank int) {
			ranks[idx].RankAge = rank
			ranks[idx].TotalInGroup = total
		})
		rankWithin(members, func(a, b models.Company) bool {
			return a.WeeklyIncome > b.WeeklyIncome
		}, companies, func(idx, rank int) {
			ranks[idx].RankRevenue = rank
		})
		rankWithin(members, func(a, b models.Company) bool {
			return a.WeeklyCustomers > b.WeeklyCustomers
		}, companies, func(idx, rank int) {
			ranks[idx].RankCustomers = rank
		})
	}
	return ranks
}

func rankWithin(members []int, less func(a, b models.Company) bool, companies []models.Company, assign func(idx, rank int)) {
	order := append([]int(nil), members...)
	sort.SliceStable(order, func(a, b int) bool {
		return less(companies[order[a]], companies[order[b]])
	})
	for pos, idx := range order {
		assign(idx, pos+1)
	}
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

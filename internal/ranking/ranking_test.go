package ranking

import (
	"math/rand"
	"sort"
	"testing"

	"torncorp-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func company(id int64, rating float64, weekly int64) models.Company {
	return models.Company{ID: id, Name: "c", CompanyType: 10, Rating: rating, WeeklyIncome: weekly}
}

func TestGlobalRanks_Scenario(t *testing.T) {
	batch := []models.Company{
		company(1, 9.6, 100),
		company(2, 9.4, 200),
		company(3, 5.0, 50),
	}

	enriched := Enrich(batch)
	require.Len(t, enriched, 3)
	assert.Equal(t, 1, enriched[0].TornRank)
	assert.Equal(t, 2, enriched[1].TornRank)
	assert.Equal(t, 3, enriched[2].TornRank)
}

func TestGlobalRanks_WeeklyIncomeBreaksRatingTie(t *testing.T) {
	batch := []models.Company{
		company(1, 8, 100),
		company(2, 8, 300),
		company(3, 8, 200),
	}
	assert.Equal(t, []int{3, 1, 2}, GlobalRanks(batch))
}

func TestGlobalRanks_FullTieKeepsInputOrder(t *testing.T) {
	batch := []models.Company{company(9, 7, 10), company(4, 7, 10)}
	assert.Equal(t, []int{1, 2}, GlobalRanks(batch))
}

func TestPerformance(t *testing.T) {
	tests := []struct {
		name   string
		daily  int64
		weekly int64
		want   float64
	}{
		{"on average", 100, 700, 0},
		{"double the average", 200, 700, 100},
		{"half the average", 50, 700, -50},
		{"no weekly income", 5000, 0, 0},
		{"nothing at all", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Performance(tt.daily, tt.weekly), 1e-9)
		})
	}
}

func TestGroupRanks_Scenario(t *testing.T) {
	batch := []models.Company{
		{ID: 1, Rating: 8.2, DaysOld: 10},
		{ID: 2, Rating: 7.8, DaysOld: 5},
	}

	enriched := Enrich(batch)
	assert.Equal(t, 2, enriched[0].MarkedRanks.RankAge)
	assert.Equal(t, 1, enriched[1].MarkedRanks.RankAge)
	assert.Equal(t, 2, enriched[0].MarkedRanks.TotalInGroup)
	assert.Equal(t, 2, enriched[1].MarkedRanks.TotalInGroup)
}

func TestGroupRanks_GroupsAreIndependent(t *testing.T) {
	batch := []models.Company{
		{ID: 1, Rating: 10, WeeklyIncome: 5, WeeklyCustomers: 1, DaysOld: 300},
		{ID: 2, Rating: 3, WeeklyIncome: 900, WeeklyCustomers: 90, DaysOld: 1},
		{ID: 3, Rating: 9.5, WeeklyIncome: 1, WeeklyCustomers: 7, DaysOld: 100},
	}

	ranks := GroupRanksByRating(batch)
	// 9.5 rounds to 10, sharing a group with the first record
	assert.Equal(t, models.GroupRanks{RankAge: 2, RankRevenue: 1, RankCustomers: 2, TotalInGroup: 2}, ranks[0])
	assert.Equal(t, models.GroupRanks{RankAge: 1, RankRevenue: 1, RankCustomers: 1, TotalInGroup: 1}, ranks[1])
	assert.Equal(t, models.GroupRanks{RankAge: 1, RankRevenue: 2, RankCustomers: 1, TotalInGroup: 2}, ranks[2])
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, 8, GroupKey(7.5))
	assert.Equal(t, 7, GroupKey(7.49))
	assert.Equal(t, 0, GroupKey(0.4))
	assert.Equal(t, 10, GroupKey(10))
}

func TestEnrich_EmptyBatch(t *testing.T) {
	assert.Empty(t, Enrich(nil))
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	batch := []models.Company{company(2, 3, 10), company(1, 9, 20)}
	before := append([]models.Company(nil), batch...)

	enriched := Enrich(batch)
	assert.Equal(t, before, batch)
	assert.Equal(t, batch[0], enriched[0].Company)
	assert.Equal(t, batch[1], enriched[1].Company)
}

func TestEnrich_Deterministic(t *testing.T) {
	batch := randomBatch(rand.New(rand.NewSource(7)), 50)
	assert.Equal(t, Enrich(batch), Enrich(batch))
}

func TestEnrich_RankPermutationProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 25; round++ {
		batch := randomBatch(rng, 1+rng.Intn(60))
		enriched := Enrich(batch)

		global := make([]int, len(enriched))
		for i, e := range enriched {
			global[i] = e.TornRank
		}
		assertPermutation(t, global)

		// consistent with rating desc, weekly income desc
		byRank := append([]models.EnrichedCompany(nil), enriched...)
		sort.Slice(byRank, func(a, b int) bool { return byRank[a].TornRank < byRank[b].TornRank })
		for i := 1; i < len(byRank); i++ {
			prev, cur := byRank[i-1], byRank[i]
			require.True(t, prev.Rating > cur.Rating ||
				(prev.Rating == cur.Rating && prev.WeeklyIncome >= cur.WeeklyIncome))
		}

		groups := make(map[int][]models.EnrichedCompany)
		for _, e := range enriched {
			groups[GroupKey(e.Rating)] = append(groups[GroupKey(e.Rating)], e)
		}
		for _, members := range groups {
			var age, rev, cust []int
			for _, m := range members {
				assert.Equal(t, len(members), m.MarkedRanks.TotalInGroup)
				age = append(age, m.MarkedRanks.RankAge)
				rev = append(rev, m.MarkedRanks.RankRevenue)
				cust = append(cust, m.MarkedRanks.RankCustomers)
			}
			assertPermutation(t, age)
			assertPermutation(t, rev)
			assertPermutation(t, cust)
		}
	}
}

func assertPermutation(t *testing.T, ranks []int) {
	t.Helper()
	sorted := append([]int(nil), ranks...)
	sort.Ints(sorted)
	for i, r := range sorted {
		require.Equal(t, i+1, r, "ranks %v are not a permutation of 1..%d", ranks, len(ranks))
	}
}

func randomBatch(rng *rand.Rand, n int) []models.Company {
	batch := make([]models.Company, n)
	for i := range batch {
		batch[i] = models.Company{
			ID:              int64(i + 1),
			Name:            "company",
			CompanyType:     10,
			Rating:          float64(rng.Intn(21)) / 2,
			DaysOld:         int64(rng.Intn(50)),
			DailyIncome:     int64(rng.Intn(1000)),
			WeeklyIncome:    int64(rng.Intn(5) * 1000),
			WeeklyCustomers: int64(rng.Intn(10)),
		}
	}
	return batch
}

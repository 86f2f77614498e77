package listing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startupverse/dashboard/pkg/sdk"
)

func day(d int) sdk.Timestamp {
	return sdk.Timestamp{Time: time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)}
}

func fixtures() []sdk.Startup {
	return []sdk.Startup{
		{ID: "1", Name: "Healthify", Sector: "HealthTech", Stage: "Seed", Status: "Approved", SubmittedAt: day(2), Traction: sdk.Traction{MRR: 500}},
		{ID: "2", Name: "GreenGrid", Sector: "CleanTech", Stage: "Series A", Status: "Pending", SubmittedAt: day(5), Traction: sdk.Traction{MRR: 9000}},
		{ID: "3", Name: "LedgerLoop", Sector: "FinTech", Stage: "Seed", Status: "Pending", SubmittedAt: day(5), Traction: sdk.Traction{MRR: 1200}},
		{ID: "4", Name: "NeuroNest", Sector: "AI/ML", Stage: "Pre-Seed", Status: "Rejected", SubmittedAt: day(1), Traction: sdk.Traction{MRR: 1200}},
	}
}

func ids(items []sdk.Startup) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.ID)
	}
	return out
}

func TestStartups(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "all filters off keeps order", criteria: Criteria{SearchTerm: "", Sector: All, Stage: All}, want: []string{"1", "2", "3", "4"}},
		{name: "empty filters pass through", criteria: Criteria{}, want: []string{"1", "2", "3", "4"}},
		{name: "search is case insensitive", criteria: Criteria{SearchTerm: "health", Sector: All, Stage: All}, want: []string{"1"}},
		{name: "search ignores case of the term", criteria: Criteria{SearchTerm: "LOOP"}, want: []string{"3"}},
		{name: "search term is not trimmed", criteria: Criteria{SearchTerm: "health "}, want: []string{}},
		{name: "sector exact match", criteria: Criteria{Sector: "FinTech", Stage: All}, want: []string{"3"}},
		{name: "sector is not a substring match", criteria: Criteria{Sector: "Tech"}, want: []string{}},
		{name: "stage filter", criteria: Criteria{Sector: All, Stage: "Seed"}, want: []string{"1", "3"}},
		{name: "combined filters", criteria: Criteria{Sector: "HealthTech", Stage: "Seed", SearchTerm: "ify"}, want: []string{"1"}},
		{name: "no match", criteria: Criteria{SearchTerm: "zzz"}, want: []string{}},
		{name: "recent sorts descending and is stable", criteria: Criteria{Sort: SortRecent}, want: []string{"2", "3", "1", "4"}},
		{name: "traction sorts by mrr descending and is stable", criteria: Criteria{Sort: SortTraction}, want: []string{"2", "3", "4", "1"}},
		{name: "unknown sort keeps order", criteria: Criteria{Sort: "alphabetical"}, want: []string{"1", "2", "3", "4"}},
		{name: "where expression", criteria: Criteria{Where: `status == "Pending"`}, want: []string{"2", "3"}},
		{name: "where with sort", criteria: Criteria{Where: `status != "Rejected"`, Sort: SortTraction}, want: []string{"2", "3", "1"}},
		{name: "where missing attribute matches nothing", criteria: Criteria{Where: `founder == "x"`}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Startups(fixtures(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := fixtures()
	before := ids(items)

	_, err := Startups(items, Criteria{Sort: SortTraction, SearchTerm: "e"})
	require.NoError(t, err)
	assert.Equal(t, before, ids(items))
}

func TestApply_Idempotent(t *testing.T) {
	criteria := []Criteria{
		{SearchTerm: "e", Stage: "Seed"},
		{Sector: "CleanTech"},
		{Sort: SortRecent},
		{Sort: SortTraction, Where: `stage == "Seed"`},
	}
	for _, c := range criteria {
		once, err := Startups(fixtures(), c)
		require.NoError(t, err)
		twice, err := Startups(once, c)
		require.NoError(t, err)
		assert.Equal(t, ids(once), ids(twice))
	}
}

func TestApply_RecentIsNonIncreasing(t *testing.T) {
	got, err := Startups(fixtures(), Criteria{Sort: SortRecent})
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].SubmittedAt.After(got[i-1].SubmittedAt.Time))
	}
}

func TestApply_InvalidWhere(t *testing.T) {
	_, err := Startups(fixtures(), Criteria{Where: `status ==`})
	require.Error(t, err)

	var exprErr *ExpressionError
	assert.True(t, errors.As(err, &exprErr))
	assert.Equal(t, `status ==`, exprErr.Expression)
}

func TestApply_WhereCacheIsBounded(t *testing.T) {
	items := fixtures()
	for i := 0; i < evaluatorCacheSize*4; i++ {
		_, err := Startups(items, Criteria{Where: fmt.Sprintf(`status == "x%d"`, i)})
		require.NoError(t, err)
	}
	assert.Equal(t, evaluatorCacheSize, evaluatorCache.Len())

	// Evicted expressions still compile on demand.
	got, err := Startups(items, Criteria{Where: `status == "x0"`})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApply_NilAccessorsDisableFilters(t *testing.T) {
	items := []int{3, 1, 2}
	got, err := Apply(items, Criteria{SearchTerm: "x", Sector: "y", Sort: SortRecent, Where: `a == "b"`}, Fields[int]{})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)
}

func TestMemoFields(t *testing.T) {
	companies := map[string]string{"s1": "Healthify", "s2": "GreenGrid"}
	memos := []sdk.Memo{
		{ID: "m1", StartupID: "s1", Type: "Memo 1"},
		{ID: "m2", StartupID: "s2", Type: "Memo 2"},
		{ID: "m3", StartupID: "gone", Type: "Memo 1"},
	}

	memoIDs := func(ms []sdk.Memo) []string {
		out := []string{}
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}

	got, err := Apply(memos, Criteria{SearchTerm: "green"}, MemoFields(companies))
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, memoIDs(got))

	got, err = Apply(memos, Criteria{SearchTerm: "memo 1"}, MemoFields(companies))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, memoIDs(got))
}

package financial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/models"
)

func quote(id, parent string, version int, updated time.Time) models.Quote {
	return models.Quote{
		Record:   models.Record{ID: id, UpdatedAt: updated},
		ParentID: parent,
		Version:  version,
	}
}

func TestLatestVersions(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	quotes := []models.Quote{
		quote("a1", "", 1, t0),
		quote("a2", "a1", 2, t0),
		quote("b1", "", 1, t0),
		quote("a3", "a1", 2, t0.Add(time.Hour)),
		quote("a0", "a1", 1, t0.Add(2*time.Hour)),
	}

	latest := LatestVersions(quotes)
	require.Len(t, latest, 2)
	require.Equal(t, "a3", latest[0].ID)
	require.Equal(t, "b1", latest[1].ID)
	require.Empty(t, LatestVersions(nil))
}

func TestFilterFields(t *testing.T) {
	quotes := []models.Quote{
		{
			Record:      models.Record{ID: "1"},
			ClientName:  "Acme",
			SiteName:    "HQ",
			Object:      "Maintenance",
			Splits:      []models.Split{{Name: "Daikin 12k"}},
			SupplyItems: []models.SupplyItem{{Record: models.Record{ID: "s1"}, Description: "Copper pipe"}},
		},
		{
			Record:     models.Record{ID: "2"},
			ClientName: "Globex",
			SiteName:   "Plant",
			Object:     "Installation",
			Splits:     []models.Split{{Code: "LG-9"}},
		},
	}
	now := time.Now()

	ids := func(in []models.Quote) []string {
		out := make([]string, len(in))
		for i, q := range in {
			out[i] = q.ID
		}
		return out
	}

	require.Equal(t, []string{"1", "2"}, ids(Filter{}.Apply(quotes, now)))
	require.Equal(t, []string{"1"}, ids(Filter{Search: "COPPER"}.Apply(quotes, now)))
	require.Equal(t, []string{"1"}, ids(Filter{Search: "daikin"}.Apply(quotes, now)))
	require.Equal(t, []string{"2"}, ids(Filter{Search: "glob"}.Apply(quotes, now)))
	require.Equal(t, []string{"2"}, ids(Filter{Site: "Plant"}.Apply(quotes, now)))
	require.Equal(t, []string{"1"}, ids(Filter{Client: "Acme", Object: "Maintenance"}.Apply(quotes, now)))
	require.Equal(t, []string{"2"}, ids(Filter{Equipment: "LG-9"}.Apply(quotes, now)))
	require.Equal(t, []string{"1"}, ids(Filter{ItemID: "s1"}.Apply(quotes, now)))
	require.Empty(t, Filter{ItemDescription: "Valve"}.Apply(quotes, now))
}

func TestFilterPeriods(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	quotes := []models.Quote{
		{Record: models.Record{ID: "today"}, Date: "2024-06-15T08:00:00Z"},
		{Record: models.Record{ID: "days"}, Date: "2024-06-10"},
		{Record: models.Record{ID: "weeks"}, Date: "2024-05-25"},
		{Record: models.Record{ID: "months"}, Date: "2023-12-01 10:00:00"},
		{Record: models.Record{ID: "old"}, Date: "2022-01-01"},
		{Record: models.Record{ID: "undated"}},
	}

	count := func(f Filter) int { return len(f.Apply(quotes, now)) }

	require.Equal(t, 6, count(Filter{Period: PeriodAll}))
	require.Equal(t, 1, count(Filter{Period: PeriodToday}))
	require.Equal(t, 2, count(Filter{Period: PeriodWeek}))
	require.Equal(t, 3, count(Filter{Period: PeriodMonth}))
	require.Equal(t, 4, count(Filter{Period: PeriodYear}))
	require.Equal(t, 2, count(Filter{Period: PeriodCustom, Start: "2024-05-01", End: "2024-06-10"}))
	require.Equal(t, 6, count(Filter{Period: PeriodCustom, Start: "2024-05-01"}))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	require.Equal(t, PeriodAll, p)

	p, err = ParsePeriod(" Month ")
	require.NoError(t, err)
	require.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("decade")
	require.Error(t, err)
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Period: " Week "}
	f.Normalize()
	require.Equal(t, PeriodWeek, f.Period)

	f = Filter{Period: "Decade"}
	f.Normalize()
	require.Equal(t, Period("Decade"), f.Period)
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]models.Quote{
		{TotalSuppliesHT: 100, TotalLaborHT: 50},
		{
			SupplyItems: []models.SupplyItem{{TotalPriceDollar: 30}, {TotalPriceDollar: 20}},
			LaborItems:  []models.LaborItem{{TotalPriceDollar: 10}},
		},
	})

	require.Equal(t, Summary{
		TotalQuotes:       2,
		TotalSupplies:     150,
		TotalLabor:        60,
		TotalRevenue:      210,
		AverageQuoteValue: 105,
	}, summary)

	require.Equal(t, Summary{}, Summarize(nil))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-03-01T10:00:00+02:00")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), got)

	_, ok = ParseDate("01/03/2024")
	require.False(t, ok)
}

// Package financial aggregates revenue figures over the cached quotes.
package financial

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/pkg/validator"
)

// Period selects a date window relative to now.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"

	periodNames = "all today week month year custom"
)

// ParsePeriod normalises a period name. Empty means PeriodAll.
func ParsePeriod(value string) (Period, error) {
	p := strings.ToLower(strings.TrimSpace(value))
	if p == "" {
		return PeriodAll, nil
	}
	if err := validator.ValidateVar(p, "oneof="+periodNames); err != nil {
		return "", fmt.Errorf("financial: unknown period %q", value)
	}
	return Period(p), nil
}

// Filter narrows the quote list. Empty fields match everything.
type Filter struct {
	Search          string `json:"search"`
	Site            string `json:"site"`
	Client          string `json:"client"`
	Object          string `json:"object"`
	Equipment       string `json:"equipment"`
	ItemID          string `json:"itemId"`
	ItemDescription string `json:"itemDescription"`
	Period          Period `json:"period" validate:"omitempty,oneof=all today week month year custom"`
	Start           string `json:"start"`
	End             string `json:"end"`
}

// Normalize canonicalises Period. An unknown period is left untouched for validation to reject.
func (f *Filter) Normalize() {
	if p, err := ParsePeriod(string(f.Period)); err == nil {
		f.Period = p
	}
}

// Summary is the revenue breakdown of a quote list.
type Summary struct {
	TotalQuotes       int     `json:"totalQuotes"`
	TotalSupplies     float64 `json:"totalSupplies"`
	TotalLabor        float64 `json:"totalLabor"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageQuoteValue float64 `json:"averageQuoteValue"`
}

// LatestVersions keeps one quote per revision group: the highest Version, ties broken by
// the later UpdatedAt. Groups keep the order in which they first appear.
func LatestVersions(quotes []models.Quote) []models.Quote {
	index := make(map[string]int, len(quotes))
	latest := make([]models.Quote, 0, len(quotes))

	for _, quote := range quotes {
		key := quote.GroupKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(latest)
			latest = append(latest, quote)
			continue
		}
		current := latest[pos]
		if quote.Version > current.Version ||
			(quote.Version == current.Version && quote.UpdatedAt.After(current.UpdatedAt)) {
			latest[pos] = quote
		}
	}
	return latest
}

// Apply returns the quotes matching every criterion of the filter.
func (f Filter) Apply(quotes []models.Quote, now time.Time) []models.Quote {
	from, to, bounded := f.window(now)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	matched := make([]models.Quote, 0, len(quotes))
	for _, quote := range quotes {
		if search != "" && !matchesSearch(quote, search) {
			continue
		}
		if f.Site != "" && quote.SiteName != f.Site {
			continue
		}
		if f.Client != "" && quote.ClientName != f.Client {
			continue
		}
		if f.Object != "" && quote.Object != f.Object {
			continue
		}
		if f.Equipment != "" && !hasEquipment(quote, f.Equipment) {
			continue
		}
		if (f.ItemID != "" || f.ItemDescription != "") && !hasItem(quote, f.ItemID, f.ItemDescription) {
			continue
		}
		if bounded && !f.inWindow(quote, now, from, to) {
			continue
		}
		matched = append(matched, quote)
	}
	return matched
}

// window returns the inclusive date bounds of the period. bounded is false when no date
// filtering applies.
func (f Filter) window(now time.Time) (from, to time.Time, bounded bool) {
	switch f.Period {
	case PeriodToday:
		return time.Time{}, time.Time{}, true
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), time.Time{}, true
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), time.Time{}, true
	case PeriodYear:
		return now.Add(-365 * 24 * time.Hour), time.Time{}, true
	case PeriodCustom:
		start, okStart := ParseDate(f.Start)
		end, okEnd := ParseDate(f.End)
		if !okStart || !okEnd {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func (f Filter) inWindow(quote models.Quote, now, from, to time.Time) bool {
	date, ok := ParseDate(quote.Date)
	if !ok {
		return false
	}
	if f.Period == PeriodToday {
		local := date.In(now.Location())
		y1, m1, d1 := local.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	if date.Before(from) {
		return false
	}
	return to.IsZero() || !date.After(to)
}

func matchesSearch(quote models.Quote, needle string) bool {
	for _, field := range []string{quote.ClientName, quote.SiteName, quote.Object} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, split := range quote.Splits {
		if strings.Contains(strings.ToLower(split.Label()), needle) {
			return true
		}
	}
	for _, item := range quote.SupplyItems {
		if strings.Contains(strings.ToLower(item.Description), needle) {
			return true
		}
	}
	return false
}

func hasEquipment(quote models.Quote, label string) bool {
	for _, split := range quote.Splits {
		if split.Label() == label {
			return true
		}
	}
	return false
}

func hasItem(quote models.Quote, id, description string) bool {
	for _, item := range quote.SupplyItems {
		if (id != "" && item.ID == id) || (description != "" && item.Description == description) {
			return true
		}
	}
	return false
}

// Summarize totals a quote list. Precomputed HT totals are used when positive; otherwise
// the line totals are summed.
func Summarize(quotes []models.Quote) Summary {
	summary := Summary{TotalQuotes: len(quotes)}
	for _, quote := range quotes {
		summary.TotalSupplies += suppliesTotal(quote)
		summary.TotalLabor += laborTotal(quote)
	}
	summary.TotalRevenue = summary.TotalSupplies + summary.TotalLabor
	if summary.TotalQuotes > 0 {
		summary.AverageQuoteValue = summary.TotalRevenue / float64(summary.TotalQuotes)
	}
	return summary
}

func suppliesTotal(quote models.Quote) float64 {
	if quote.TotalSuppliesHT > 0 {
		return quote.TotalSuppliesHT
	}
	var total float64
	for _, item := range quote.SupplyItems {
		total += item.TotalPriceDollar
	}
	return total
}

func laborTotal(quote models.Quote) float64 {
	if quote.TotalLaborHT > 0 {
		return quote.TotalLaborHT
	}
	var total float64
	for _, item := range quote.LaborItems {
		total += item.TotalPriceDollar
	}
	return total
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
}

// ParseDate accepts the date formats quotes are stored with. Values without a zone are UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

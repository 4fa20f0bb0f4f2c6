package summary

import (
	"time"

	"spendtrack/internal/core"
)

// RecentCount is how many records the recent-activity card shows.
const RecentCount = 5

// Options tunes Build.
type Options struct {
	// TopN bounds the category ranking; non-positive means DefaultTopN.
	TopN int
	// Label names monthly buckets; nil means DefaultMonthLabel.
	Label MonthLabelFunc
	// Recent bounds the recent-activity list; zero means RecentCount.
	Recent int
}

// CategorySlice is one category's share of the all-time total.
type CategorySlice struct {
	Name    string     `json:"name"`
	Amount  core.Money `json:"amount"`
	Percent float64    `json:"percent"`
}

// Dashboard is every aggregate the dashboard renders, computed from one
// snapshot of records.
type Dashboard struct {
	Year              int                   `json:"year"`
	Month             time.Month            `json:"month"`
	ThisMonthTotal    core.Money            `json:"this_month_total"`
	ThisMonthCount    int                   `json:"this_month_count"`
	LastMonthTotal    core.Money            `json:"last_month_total"`
	MonthOverMonth    float64               `json:"month_over_month_change"`
	Total             core.Money            `json:"total"`
	Count             int                   `json:"count"`
	Average           float64               `json:"average"`
	TopCategories     []core.CategoryAmount `json:"top_categories"`
	CategoryBreakdown []CategorySlice       `json:"category_breakdown"`
	MonthlyTotals     map[string]core.Money `json:"monthly_totals"`
	MonthlySeries     []core.MonthAmount    `json:"monthly_series"`
	Recent            []core.Expense        `json:"recent"`
}

// Build computes the dashboard for xs as seen at now.
func Build(xs []core.Expense, now time.Time, opts Options) Dashboard {
	recent := opts.Recent
	if recent == 0 {
		recent = RecentCount
	}
	year, month := now.Year(), now.Month()
	prevYear, prevMonth := core.PreviousMonth(year, month)

	total := TotalOf(xs)
	ranked := RankCategories(xs)
	breakdown := make([]CategorySlice, 0, len(ranked))
	for _, c := range ranked {
		breakdown = append(breakdown, CategorySlice{
			Name:    c.Name,
			Amount:  c.Amount,
			Percent: Share(c.Amount, total),
		})
	}

	return Dashboard{
		Year:              year,
		Month:             month,
		ThisMonthTotal:    MonthTotal(xs, year, month),
		ThisMonthCount:    MonthCount(xs, year, month),
		LastMonthTotal:    MonthTotal(xs, prevYear, prevMonth),
		MonthOverMonth:    MonthOverMonthChange(xs, now),
		Total:             total,
		Count:             len(xs),
		Average:           AverageExpense(xs).InexactFloat64(),
		TopCategories:     TopCategories(xs, opts.TopN),
		CategoryBreakdown: breakdown,
		MonthlyTotals:     MonthlyTotals(xs, opts.Label),
		MonthlySeries:     MonthlySeries(xs, opts.Label),
		Recent:            Recent(xs, recent),
	}
}

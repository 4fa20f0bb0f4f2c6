// Package summary turns a snapshot of expense records into the aggregate
// views shown on the dashboard and the expense list.
//
// Every function is pure: inputs are never mutated, nothing is cached, and
// the only notion of "now" is the reference instant passed by the caller.
// Amounts are summed as integer cents so totals are exact; division goes
// through shopspring/decimal.
package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

const (
	// AllCategories matches every record in Filter.
	AllCategories = "all"

	// DefaultTopN is used by TopCategories when n is not positive.
	DefaultTopN = 5
)

// MonthLabelFunc maps an economic date to the bucket label used by
// MonthlyTotals.
type MonthLabelFunc func(core.Date) string

// DefaultMonthLabel is the three-letter English month abbreviation ("Mar").
// It deliberately ignores the year.
func DefaultMonthLabel(d core.Date) string {
	return d.Format("Jan")
}

// LayoutLabel builds a MonthLabelFunc from a time layout, e.g. "Jan 2006".
func LayoutLabel(layout string) MonthLabelFunc {
	if layout == "" {
		return DefaultMonthLabel
	}
	return func(d core.Date) string { return d.Format(layout) }
}

// TotalOf sums the amounts of xs.
func TotalOf(xs []core.Expense) core.Money {
	var total int64
	for _, e := range xs {
		total += e.Amount.Cents
	}
	return core.Money{Cents: total}
}

// CategoryTotals sums amounts per category. Only categories present in xs
// appear as keys.
func CategoryTotals(xs []core.Expense) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, e := range xs {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// MonthlyTotals sums amounts per label(e.Date). With the default label two
// records from March of different years land in the same bucket; pass a
// year-aware label or use MonthlySeries to keep them apart.
func MonthlyTotals(xs []core.Expense, label MonthLabelFunc) map[string]core.Money {
	if label == nil {
		label = DefaultMonthLabel
	}
	out := make(map[string]core.Money)
	for _, e := range xs {
		k := label(e.Date)
		out[k] = out[k].Add(e.Amount)
	}
	return out
}

// MonthlySeries returns per (year, month) totals in chronological order,
// labelled with label (DefaultMonthLabel when nil).
func MonthlySeries(xs []core.Expense, label MonthLabelFunc) []core.MonthAmount {
	if label == nil {
		label = DefaultMonthLabel
	}
	type key struct {
		year  int
		month time.Month
	}
	sums := make(map[key]int64)
	for _, e := range xs {
		if e.Date.IsZero() {
			continue
		}
		k := key{e.Date.Time.Year(), e.Date.Time.Month()}
		sums[k] += e.Amount.Cents
	}
	out := make([]core.MonthAmount, 0, len(sums))
	for k, cents := range sums {
		out = append(out, core.MonthAmount{
			Year:   k.year,
			Month:  k.month,
			Label:  label(core.NewDate(k.year, int(k.month), 1)),
			Amount: core.Money{Cents: cents},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// RankCategories returns every category total, largest first. Equal totals
// keep the order in which their categories first appear in xs.
func RankCategories(xs []core.Expense) []core.CategoryAmount {
	pos := make(map[string]int)
	var ranked []core.CategoryAmount
	for _, e := range xs {
		i, ok := pos[e.Category]
		if !ok {
			i = len(ranked)
			pos[e.Category] = i
			ranked = append(ranked, core.CategoryAmount{Name: e.Category})
		}
		ranked[i].Amount = ranked[i].Amount.Add(e.Amount)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.Cents > ranked[j].Amount.Cents
	})
	return ranked
}

// TopCategories returns at most n entries of RankCategories. A non-positive
// n means DefaultTopN.
func TopCategories(xs []core.Expense, n int) []core.CategoryAmount {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := RankCategories(xs)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// AverageExpense is TotalOf(xs) / len(xs) in currency units, or zero for an
// empty slice. The result is not rounded; presentation picks the precision.
func AverageExpense(xs []core.Expense) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	return TotalOf(xs).Decimal().Div(decimal.NewFromInt(int64(len(xs))))
}

// MonthTotal sums the records whose date falls in the given month.
func MonthTotal(xs []core.Expense, year int, month time.Month) core.Money {
	var total int64
	for _, e := range xs {
		if e.Date.SameMonth(year, month) {
			total += e.Amount.Cents
		}
	}
	return core.Money{Cents: total}
}

// MonthCount counts the records whose date falls in the given month.
func MonthCount(xs []core.Expense, year int, month time.Month) int {
	n := 0
	for _, e := range xs {
		if e.Date.SameMonth(year, month) {
			n++
		}
	}
	return n
}

// MonthOverMonthChange compares the calendar month of ref with the month
// before it and returns the signed percentage change. When the previous
// month sums to zero the change is zero.
func MonthOverMonthChange(xs []core.Expense, ref time.Time) float64 {
	year, month := ref.Year(), ref.Month()
	prevYear, prevMonth := core.PreviousMonth(year, month)

	current := MonthTotal(xs, year, month)
	previous := MonthTotal(xs, prevYear, prevMonth)
	return PercentChange(current, previous)
}

// PercentChange is (current - previous) / previous * 100, or zero when
// previous is zero.
func PercentChange(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	prev := decimal.NewFromInt(previous.Cents)
	pct := decimal.NewFromInt(current.Cents).Sub(prev).
		Div(prev).
		Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64()
}

// Share returns part as a percentage of whole, zero when whole is zero.
func Share(part, whole core.Money) float64 {
	if whole.Cents == 0 {
		return 0
	}
	return decimal.NewFromInt(part.Cents).
		Div(decimal.NewFromInt(whole.Cents)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

// Filter keeps the records in category (or every category for
// AllCategories) whose title or description contains search, ignoring case.
// An empty search matches everything. Order is preserved and the result
// never aliases xs.
func Filter(xs []core.Expense, search, category string) []core.Expense {
	needle := strings.ToLower(search)
	out := make([]core.Expense, 0, len(xs))
	for _, e := range xs {
		if category != AllCategories && e.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Recent returns the n most recently created records, newest first.
// Records with equal CreatedAt keep their input order.
func Recent(xs []core.Expense, n int) []core.Expense {
	sorted := make([]core.Expense, len(xs))
	copy(sorted, xs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package records

import (
	"sort"

	"spendtrack/internal/core"
)

// SortNewestFirst orders records by date, then creation time, both
// descending. Stores use it so every backend lists in the same order.
func SortNewestFirst(xs []core.Expense) {
	sort.SliceStable(xs, func(i, j int) bool {
		a, b := xs[i], xs[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

package google

import (
	"fmt"
	"strings"
	"time"

	"spendtrack/internal/core"
)

// Column order of the mirror sheet.
var columns = []string{"ID", "Date", "Title", "Amount", "Category", "Description", "Owner", "Created"}

const (
	lastColumn = "H"
	amountCol  = 3
)

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

// expenseRow renders e in column order. Amount is a plain number so sheet
// formulas can sum it.
func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.Title,
		e.Amount.Units(),
		e.Category,
		e.Description,
		e.OwnerID,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// The header row never matches.
func findRow(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if i == 0 && len(row) > 0 && cellString(row[0]) == columns[0] {
			continue
		}
		if len(row) > 0 && cellString(row[0]) == id {
			return i + 1
		}
	}
	return 0
}

// rowMatches reports whether an existing row already holds e. Amounts are
// compared in cents so 4.5 and "4.50" are equal.
func rowMatches(row []any, e core.Expense) bool {
	want := expenseRow(e)
	if len(row) < len(want) {
		return false
	}
	for i := range want {
		if i == amountCol {
			if core.CoerceAmount(row[i]).Cents != e.Amount.Cents {
				return false
			}
			continue
		}
		if cellString(row[i]) != cellString(want[i]) {
			return false
		}
	}
	return true
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

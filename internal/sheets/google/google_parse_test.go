package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
)

func sampleExpense() core.Expense {
	return core.Expense{
		ID:          "exp-1",
		OwnerID:     "user-1",
		Title:       "Coffee",
		Amount:      core.Money{Cents: 450},
		Category:    "Food & Dining",
		Description: "morning",
		Date:        core.NewDate(2024, 3, 5),
		CreatedAt:   time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC),
	}
}

func TestExpenseRow(t *testing.T) {
	row := expenseRow(sampleExpense())
	if len(row) != len(columns) {
		t.Fatalf("row has %d cells, want %d", len(row), len(columns))
	}
	if row[0] != "exp-1" || row[1] != "2024-03-05" || row[3] != 4.5 || row[7] != "2024-03-05T08:30:00Z" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		headerRow(),
		{"exp-1", "2024-03-05"},
		{},
		{" exp-2 ", "2024-03-06"},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"exp-1", 2},
		{"exp-2", 4},
		{"missing", 0},
		{"", 0},
		{"ID", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowMatches(t *testing.T) {
	e := sampleExpense()
	same := expenseRow(e)
	same[3] = "4.50"
	if !rowMatches(same, e) {
		t.Error("row with equal amount in another format should match")
	}

	changed := expenseRow(e)
	changed[2] = "Tea"
	if rowMatches(changed, e) {
		t.Error("changed title should not match")
	}

	if rowMatches([]any{"exp-1"}, e) {
		t.Error("short row should not match")
	}

	cheaper := expenseRow(e)
	cheaper[3] = 4.0
	if rowMatches(cheaper, e) {
		t.Error("changed amount should not match")
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableKeyFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:      "sheet",
		ServiceAccountFile: t.TempDir() + "/missing.json",
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet", sheetName: "Expenses"}
	if _, err := c.Upsert(context.Background(), sampleExpense()); err == nil {
		t.Error("Upsert without service should fail")
	}
	if err := c.Remove(context.Background(), "exp-1"); err == nil {
		t.Error("Remove without service should fail")
	}
	if got := c.rowRange(7); got != "Expenses!A7:H7" {
		t.Errorf("rowRange = %q", got)
	}
}

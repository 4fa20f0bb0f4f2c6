package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

func TestReferenceMonth(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth time.Month
	}{
		{"no params", url.Values{}, 2024, time.March},
		{"explicit month", url.Values{"year": {"2023"}, "month": {"12"}}, 2023, time.December},
		{"month only", url.Values{"month": {"1"}}, 2024, time.January},
		{"invalid values are ignored", url.Values{"year": {"abc"}, "month": {"13"}}, 2024, time.March},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReferenceMonth(tt.query, now)
			if got.Year() != tt.wantYear || got.Month() != tt.wantMonth {
				t.Errorf("ReferenceMonth() = %v, want %d-%02d", got, tt.wantYear, tt.wantMonth)
			}
		})
	}
	if got := ReferenceMonth(url.Values{}, now); !got.Equal(now) {
		t.Errorf("current month should keep now, got %v", got)
	}
}

func TestParseListFilter(t *testing.T) {
	f := ParseListFilter(url.Values{"q": {"coffee\x00"}})
	if f.Query != "coffee" || f.Category != "all" {
		t.Errorf("filter = %+v", f)
	}
	// Surrounding spaces are part of the search text.
	f = ParseListFilter(url.Values{"q": {" tax "}})
	if f.Query != " tax " {
		t.Errorf("query = %q, want %q", f.Query, " tax ")
	}
	f = ParseListFilter(url.Values{"category": {" Travel "}})
	if f.Category != "Travel" {
		t.Errorf("category = %q", f.Category)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "title=Test+Expense&amount=12.50&category=Food"
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("IsJSON() should be false for form data")
	}
	if got := parser.Get("title"); got != "Test Expense" {
		t.Errorf("Get(title) = %q, want %q", got, "Test Expense")
	}
	if got := parser.Get("amount"); got != "12.50" {
		t.Errorf("Get(amount) = %q, want %q", got, "12.50")
	}
	if got := parser.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q", got)
	}
}

func TestRequestBodyParser_JSONData(t *testing.T) {
	body := `{"title": "Test Expense", "amount": 12.5, "id": "abc123", "flag": true}`
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("IsJSON() should be true for JSON data")
	}

	tests := map[string]string{"title": "Test Expense", "amount": "12.5", "id": "abc123", "flag": "true", "nope": ""}
	for key, want := range tests {
		if got := parser.Get(key); got != want {
			t.Errorf("Get(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_EmptyAndInvalid(t *testing.T) {
	parser := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("")))
	if err := parser.Parse(); err != nil {
		t.Errorf("Parse() on empty body error = %v", err)
	}
	if parser.Get("anything") != "" {
		t.Error("empty body should yield empty values")
	}

	parser = NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"invalid json`)))
	if err := parser.Parse(); err == nil {
		t.Error("Parse() should fail for invalid JSON")
	}
	if err := parser.Parse(); err == nil {
		t.Error("second Parse() should return the cached error")
	}
}

func TestParseExpenseFields(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	tests := []struct {
		name    string
		body    string
		wantErr error
		check   func(t *testing.T, f records.Fields)
	}{
		{
			name: "all fields",
			body: "title=Coffee&amount=3,40&category=Food&description=latte&date=2024-03-01",
			check: func(t *testing.T, f records.Fields) {
				if f.Title != "Coffee" || f.Amount.Cents != 340 || f.Category != "Food" || f.Description != "latte" || f.Date.String() != "2024-03-01" {
					t.Errorf("fields = %+v", f)
				}
			},
		},
		{
			name: "blank date and amount",
			body: "title=Gift&category=Other",
			check: func(t *testing.T, f records.Fields) {
				if f.Amount.Cents != 0 || !f.Date.Equal(today.Time) {
					t.Errorf("fields = %+v", f)
				}
			},
		},
		{name: "negative amount", body: "title=x&amount=-1&category=Other", wantErr: core.ErrInvalidAmount},
		{name: "bad amount", body: "title=x&amount=1e3&category=Other", wantErr: core.ErrInvalidAmount},
		{name: "bad date", body: "title=x&amount=1&category=Other&date=03/01/2024", wantErr: core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			if err := p.Parse(); err != nil {
				t.Fatal(err)
			}
			f, err := ParseExpenseFields(p, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, f)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "₹0.00"},
		{5, "₹0.05"},
		{123456, "₹1,234.56"},
		{100000000, "₹1,000,000.00"},
		{-2550, "-₹25.50"},
	}
	for _, tt := range tests {
		if got := formatMoney(core.Money{Cents: tt.cents}, "₹"); got != tt.want {
			t.Errorf("formatMoney(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
	money := moneyFormatter("₹")
	if got := money(6.5); got != "₹6.50" {
		t.Errorf("money(6.5) = %q", got)
	}
	if got := money(0.013333); got != "₹0.01" {
		t.Errorf("money(0.013333) = %q", got)
	}
	if got := money(core.Money{Cents: 5}); got != "₹0.05" {
		t.Errorf("money(Money) = %q", got)
	}
	if got := formatChange(12.34); got != "+12.3%" {
		t.Errorf("formatChange = %q", got)
	}
	if got := formatChange(-5); got != "-5.0%" {
		t.Errorf("formatChange = %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}

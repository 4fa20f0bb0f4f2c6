package summary

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

func exp(title string, cents int64, category, date string) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{Title: title, Amount: core.Money{Cents: cents}, Category: category, Date: d}
}

// sample mirrors the worked example: Coffee 4.50, Bus 3, Taxi 12.
func sample() []core.Expense {
	return []core.Expense{
		exp("Coffee", 450, "Food", "2024-03-02"),
		exp("Bus", 300, "Transport", "2024-03-05"),
		exp("Taxi", 1200, "Transport", "2024-02-20"),
	}
}

func TestWorkedExampleFromJSON(t *testing.T) {
	raw := `[
		{"title":"Coffee","amount":"4.50","category":"Food","date":"2024-03-02"},
		{"title":"Bus","amount":3,"category":"Transport","date":"2024-03-05"},
		{"title":"Taxi","amount":12,"category":"Transport","date":"2024-02-20"}
	]`
	var xs []core.Expense
	if err := json.Unmarshal([]byte(raw), &xs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	totals := CategoryTotals(xs)
	want := map[string]core.Money{"Food": {Cents: 450}, "Transport": {Cents: 1500}}
	if !reflect.DeepEqual(totals, want) {
		t.Fatalf("CategoryTotals = %v, want %v", totals, want)
	}

	top := TopCategories(xs, 1)
	if len(top) != 1 || top[0].Name != "Transport" || top[0].Amount.Cents != 1500 {
		t.Fatalf("TopCategories(_, 1) = %v", top)
	}

	if avg := AverageExpense(xs); !avg.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("AverageExpense = %s, want 6.5", avg)
	}

	ref := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	if got := MonthOverMonthChange(xs, ref); got != -37.5 {
		t.Fatalf("MonthOverMonthChange = %v, want -37.5", got)
	}

	got := Filter(xs, "tax", AllCategories)
	if len(got) != 1 || got[0].Title != "Taxi" {
		t.Fatalf("Filter(tax) = %v", got)
	}
}

func TestCategoryTotalsPartitionsTotal(t *testing.T) {
	sets := [][]core.Expense{
		nil,
		sample(),
		{exp("refund", -500, "Food", "2024-01-01"), exp("lunch", 1200, "Food", "2024-01-02")},
		{exp("a", 1, "x", "2024-01-01"), exp("b", 2, "y", "2023-01-01"), exp("c", 3, "", "2022-05-05")},
	}
	for i, xs := range sets {
		var sum int64
		for _, m := range CategoryTotals(xs) {
			sum += m.Cents
		}
		if sum != TotalOf(xs).Cents {
			t.Fatalf("set %d: category sum %d != total %d", i, sum, TotalOf(xs).Cents)
		}
	}
}

func TestCategoryTotalsNoZeroFill(t *testing.T) {
	totals := CategoryTotals(sample())
	if _, ok := totals["Shopping"]; ok {
		t.Fatal("absent category must not be a key")
	}
	if len(totals) != 2 {
		t.Fatalf("len = %d, want 2", len(totals))
	}
}

func TestNegativeAmountsPropagate(t *testing.T) {
	xs := []core.Expense{exp("refund", -250, "Food", "2024-03-01")}
	if got := CategoryTotals(xs)["Food"].Cents; got != -250 {
		t.Fatalf("got %d", got)
	}
	if got := TotalOf(xs).Cents; got != -250 {
		t.Fatalf("got %d", got)
	}
}

func TestMonthlyTotals(t *testing.T) {
	xs := append(sample(), exp("Rent", 10000, "Bills", "2023-03-01"))

	merged := MonthlyTotals(xs, nil)
	want := map[string]core.Money{"Mar": {Cents: 10750}, "Feb": {Cents: 1200}}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("default labels = %v, want %v", merged, want)
	}

	split := MonthlyTotals(xs, LayoutLabel("Jan 2006"))
	want = map[string]core.Money{
		"Mar 2024": {Cents: 750},
		"Feb 2024": {Cents: 1200},
		"Mar 2023": {Cents: 10000},
	}
	if !reflect.DeepEqual(split, want) {
		t.Fatalf("year labels = %v, want %v", split, want)
	}
}

func TestMonthlyTotalsUsesDateNotCreatedAt(t *testing.T) {
	e := exp("Late entry", 100, "Food", "2024-01-31")
	e.CreatedAt = time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)
	got := MonthlyTotals([]core.Expense{e}, nil)
	if _, ok := got["Jan"]; !ok {
		t.Fatalf("expected Jan bucket, got %v", got)
	}
}

func TestMonthlySeriesChronological(t *testing.T) {
	xs := append(sample(), exp("Rent", 10000, "Bills", "2023-03-01"))
	series := MonthlySeries(xs, nil)
	if len(series) != 3 {
		t.Fatalf("len = %d", len(series))
	}
	wantOrder := []string{"2023-3", "2024-2", "2024-3"}
	for i, m := range series {
		if got := fmt.Sprintf("%d-%d", m.Year, m.Month); got != wantOrder[i] {
			t.Fatalf("series[%d] = %s, want %s", i, got, wantOrder[i])
		}
	}
	if series[0].Label != "Mar" || series[2].Amount.Cents != 750 {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestTopCategories(t *testing.T) {
	xs := []core.Expense{
		exp("a", 500, "B", "2024-01-01"),
		exp("b", 500, "A", "2024-01-01"),
		exp("c", 900, "C", "2024-01-01"),
		exp("d", 100, "D", "2024-01-01"),
		exp("e", 200, "E", "2024-01-01"),
		exp("f", 300, "F", "2024-01-01"),
		exp("g", 50, "G", "2024-01-01"),
	}

	cases := []struct {
		n    int
		want []string
	}{
		{1, []string{"C"}},
		{3, []string{"C", "B", "A"}},
		{0, []string{"C", "B", "A", "F", "E"}},
		{-1, []string{"C", "B", "A", "F", "E"}},
		{100, []string{"C", "B", "A", "F", "E", "D", "G"}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d", tc.n), func(t *testing.T) {
			got := TopCategories(xs, tc.n)
			names := make([]string, len(got))
			for i, c := range got {
				names[i] = c.Name
			}
			if !reflect.DeepEqual(names, tc.want) {
				t.Fatalf("got %v, want %v", names, tc.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].Amount.Cents < got[i].Amount.Cents {
					t.Fatalf("not descending at %d: %v", i, got)
				}
			}
		})
	}

	if got := TopCategories(nil, 5); len(got) != 0 {
		t.Fatalf("empty input gave %v", got)
	}
}

func TestAverageExpense(t *testing.T) {
	if got := AverageExpense(nil); !got.IsZero() {
		t.Fatalf("empty average = %s", got)
	}
	xs := []core.Expense{exp("a", 1, "x", "2024-01-01"), exp("b", 1, "x", "2024-01-01"), exp("c", 2, "x", "2024-01-01")}
	got := AverageExpense(xs)
	want := TotalOf(xs).Decimal().Div(decimal.NewFromInt(3))
	if !got.Equal(want) {
		t.Fatalf("average = %s, want %s", got, want)
	}
	// 0.04 / 3 is not a whole cent and must not be rounded to one.
	if !got.GreaterThan(decimal.RequireFromString("0.0133")) || !got.LessThan(decimal.RequireFromString("0.0134")) {
		t.Fatalf("average = %s, want about 0.01333", got)
	}
	xs = []core.Expense{exp("a", 1, "x", "2024-01-01"), exp("b", 0, "x", "2024-01-01")}
	if got := AverageExpense(xs); !got.Equal(decimal.RequireFromString("0.005")) {
		t.Fatalf("average = %s, want 0.005", got)
	}
}

func TestMonthOverMonthChange(t *testing.T) {
	cases := []struct {
		name string
		xs   []core.Expense
		ref  time.Time
		want float64
	}{
		{
			name: "no previous month",
			xs:   []core.Expense{exp("a", 5000, "x", "2024-03-01")},
			ref:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "january compares with previous december",
			xs: []core.Expense{
				exp("a", 1500, "x", "2024-01-10"),
				exp("b", 1000, "x", "2023-12-24"),
				exp("c", 9999, "x", "2024-12-24"),
			},
			ref:  time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
			want: 50,
		},
		{
			name: "doubling",
			xs:   []core.Expense{exp("a", 200, "x", "2024-06-01"), exp("b", 100, "x", "2024-05-31")},
			ref:  time.Date(2024, time.June, 30, 23, 0, 0, 0, time.UTC),
			want: 100,
		},
		{
			name: "nothing this month",
			xs:   []core.Expense{exp("b", 100, "x", "2024-05-31")},
			ref:  time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			want: -100,
		},
		{
			name: "same month last year is ignored",
			xs:   []core.Expense{exp("a", 100, "x", "2024-06-01"), exp("b", 100, "x", "2023-05-01")},
			ref:  time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MonthOverMonthChange(tc.xs, tc.ref); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	xs := sample()
	xs[0].Description = "Morning latte at the station"

	cases := []struct {
		name     string
		search   string
		category string
		want     []string
	}{
		{"all", "", AllCategories, []string{"Coffee", "Bus", "Taxi"}},
		{"category only", "", "Transport", []string{"Bus", "Taxi"}},
		{"case insensitive title", "TAX", AllCategories, []string{"Taxi"}},
		{"matches description", "latte", AllCategories, []string{"Coffee"}},
		{"search and category", "station", "Transport", nil},
		{"unknown category", "", "Travel", nil},
		{"category is exact", "", "transport", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(xs, tc.search, tc.category)
			var titles []string
			for _, e := range got {
				titles = append(titles, e.Title)
			}
			if !reflect.DeepEqual(titles, tc.want) {
				t.Fatalf("got %v, want %v", titles, tc.want)
			}
			again := Filter(got, tc.search, tc.category)
			if !reflect.DeepEqual(again, got) {
				t.Fatalf("filter is not idempotent: %v vs %v", again, got)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	xs := sample()
	before := append([]core.Expense(nil), xs...)
	out := Filter(xs, "", AllCategories)
	out[0].Title = "changed"
	if !reflect.DeepEqual(xs, before) {
		t.Fatal("input was mutated")
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	var xs []core.Expense
	for i := 0; i < 7; i++ {
		e := exp(fmt.Sprintf("e%d", i), 100, "x", "2024-03-01")
		e.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		xs = append(xs, e)
	}
	got := Recent(xs, 5)
	if len(got) != 5 || got[0].Title != "e6" || got[4].Title != "e2" {
		t.Fatalf("Recent = %v", got)
	}
	if xs[0].Title != "e0" {
		t.Fatal("input reordered")
	}
}

func TestBuild(t *testing.T) {
	xs := sample()
	for i := range xs {
		xs[i].CreatedAt = time.Date(2024, time.March, 10, i, 0, 0, 0, time.UTC)
	}
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	d := Build(xs, now, Options{})

	if d.ThisMonthTotal.Cents != 750 || d.ThisMonthCount != 2 {
		t.Fatalf("this month = %d/%d", d.ThisMonthTotal.Cents, d.ThisMonthCount)
	}
	if d.LastMonthTotal.Cents != 1200 || d.MonthOverMonth != -37.5 {
		t.Fatalf("last month = %d change = %v", d.LastMonthTotal.Cents, d.MonthOverMonth)
	}
	if d.Total.Cents != 1950 || d.Count != 3 || d.Average != 6.5 {
		t.Fatalf("totals = %+v", d)
	}
	if len(d.CategoryBreakdown) != 2 || d.CategoryBreakdown[0].Name != "Transport" {
		t.Fatalf("breakdown = %+v", d.CategoryBreakdown)
	}
	var pct float64
	for _, s := range d.CategoryBreakdown {
		pct += s.Percent
	}
	if pct < 99.99 || pct > 100.01 {
		t.Fatalf("percentages sum to %v", pct)
	}
	if len(d.Recent) != 3 || d.Recent[0].Title != "Taxi" {
		t.Fatalf("recent = %v", d.Recent)
	}
	if d.MonthlyTotals["Mar"].Cents != 750 {
		t.Fatalf("monthly = %v", d.MonthlyTotals)
	}
}

func TestBuildEmpty(t *testing.T) {
	d := Build(nil, time.Now(), Options{})
	if d.Total.Cents != 0 || d.Average != 0 || d.MonthOverMonth != 0 {
		t.Fatalf("empty dashboard = %+v", d)
	}
	if len(d.TopCategories) != 0 || len(d.Recent) != 0 {
		t.Fatalf("empty dashboard lists = %+v", d)
	}
}

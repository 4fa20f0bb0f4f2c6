package http

import (
	"context"
	"net/http"
	"time"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/summary"
)

// chartMonths bounds the monthly bar chart to the most recent months.
const chartMonths = 12

type barView struct {
	Label  string
	Amount core.Money
	// Height is the bar height relative to the tallest month, 0..100.
	Height float64
}

type sliceView struct {
	Name    string
	Icon    string
	Color   string
	Amount  core.Money
	Percent float64
}

type dashboardView struct {
	summary.Dashboard
	MonthName string
	Increase  bool
	Months    []barView
	Top       []sliceView
	Breakdown []sliceView
	Latest    []expenseView
}

func (s *Server) buildDashboard(ctx context.Context, ownerID string, ref time.Time) (summary.Dashboard, core.CategoryIndex, error) {
	xs, cats, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return summary.Dashboard{}, nil, err
	}
	d := summary.Build(xs, ref, summary.Options{
		TopN:  s.opts.TopCategories,
		Label: summary.LayoutLabel(s.opts.MonthLabelFormat),
	})
	return d, core.IndexCategories(cats), nil
}

func newDashboardView(d summary.Dashboard, idx core.CategoryIndex) dashboardView {
	v := dashboardView{
		Dashboard: d,
		MonthName: time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
		Increase:  d.MonthOverMonth > 0,
		Latest:    viewsOf(d.Recent, idx),
	}

	series := d.MonthlySeries
	if len(series) > chartMonths {
		series = series[len(series)-chartMonths:]
	}
	var tallest core.Money
	for _, m := range series {
		if m.Amount.Cents > tallest.Cents {
			tallest = m.Amount
		}
	}
	for _, m := range series {
		v.Months = append(v.Months, barView{
			Label:  m.Label,
			Amount: m.Amount,
			Height: summary.Share(m.Amount, tallest),
		})
	}

	for i, c := range d.TopCategories {
		v.Top = append(v.Top, sliceView{
			Name:   c.Name,
			Icon:   idx.Icon(c.Name),
			Color:  idx.Color(c.Name, i),
			Amount: c.Amount,
		})
	}
	for i, c := range d.CategoryBreakdown {
		v.Breakdown = append(v.Breakdown, sliceView{
			Name:    c.Name,
			Icon:    idx.Icon(c.Name),
			Color:   core.PaletteColor(i),
			Amount:  c.Amount,
			Percent: c.Percent,
		})
	}
	return v
}

// handleDashboard renders the overview cards, charts, quick stats and
// recent activity.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	d, idx, err := s.buildDashboard(ctx, user.ID, ReferenceMonth(r.URL.Query(), s.now()))
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}

	name := "dashboard_page"
	if isHTMX(r) && r.Header.Get("HX-Target") == "dashboard" {
		name = "dashboard_body"
	}
	s.render(w, r, http.StatusOK, name, page{
		Title:  "Dashboard",
		Active: "dashboard",
		User:   user,
		Data:   newDashboardView(d, idx),
	})
}

// handleAPISummary returns the dashboard aggregates as JSON.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	d, _, err := s.buildDashboard(ctx, user.ID, ReferenceMonth(r.URL.Query(), s.now()))
	if err != nil {
		s.writeError(w, r, applog.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		summary.Dashboard
		CurrencySymbol string `json:"currency_symbol"`
	}{d, s.opts.CurrencySymbol})
}

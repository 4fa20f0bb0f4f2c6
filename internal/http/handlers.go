package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/records"
)

// page wraps every full-page template's data.
type page struct {
	Title  string
	Active string
	User   auth.User
	Data   any
}

// expenseView is a record plus its display hints.
type expenseView struct {
	core.Expense
	Icon  string
	Color string
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":  moneyFormatter(s.opts.CurrencySymbol),
		"change": formatChange,
		"pct":    func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"day":    func(d core.Date) string { return d.Format("02 Jan 2006") },
	}
}

func viewsOf(xs []core.Expense, idx core.CategoryIndex) []expenseView {
	out := make([]expenseView, 0, len(xs))
	for i, e := range xs {
		out = append(out, expenseView{
			Expense: e,
			Icon:    idx.Icon(e.Category),
			Color:   idx.Color(e.Category, i),
		})
	}
	return out
}

// currentUser returns the user stored by the auth middleware.
func currentUser(r *http.Request) (auth.User, error) {
	u, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.User{}, auth.ErrUnauthenticated
	}
	return u, nil
}

// loadSnapshot reads the owner's records and the reference categories
// concurrently. Category failures only cost icons, so they are logged and
// swallowed.
func (s *Server) loadSnapshot(ctx context.Context, ownerID string) ([]core.Expense, []core.Category, error) {
	var (
		xs   []core.Expense
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		xs, err = s.svc.List(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.svc.Categories(gctx)
		if err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Failed to load categories", "error", err)
			cats = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return xs, cats, nil
}

// render executes a template into a buffer so template failures become a
// clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.NewFields().
				WithComponent(applog.ComponentTemplate).
				WithOperation(applog.OpRender).
				WithError(err).
				ToSlice()...)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors to HTTP statuses and user-facing text.
func errorStatus(err error) (int, string) {
	switch {
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity, "Invalid data: " + err.Error()
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound, "Expense not found"
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, core.ErrMissingOwner):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "The request took too long"
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	ctx := r.Context()
	fields := applog.NewFields().
		WithComponent(applog.ComponentHTTP).
		WithOperation(op).
		WithError(err).
		ToSlice()
	if status >= http.StatusInternalServerError {
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed", fields...)
	} else {
		applog.FromContext(ctx).InfoContext(ctx, "Request rejected", fields...)
	}

	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	ErrorResponse(status, msg).Write(w)
}

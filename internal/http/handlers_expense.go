package http

import (
	"context"
	"net/http"
	"sort"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/summary"
)

type listView struct {
	Filter     ListFilter
	Categories []string
	Rows       []expenseView
	Shown      int
	Count      int
	Total      core.Money
}

type formView struct {
	Action      string
	Editing     bool
	ID          string
	Title       string
	Amount      string
	Category    string
	Description string
	Date        string
	Categories  []core.Category
	Error       string
}

// categoryOptions lists reference category names followed by any names
// that only appear on records, so older records stay filterable.
func categoryOptions(cats []core.Category, xs []core.Expense) []string {
	idx := core.IndexCategories(cats)
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	var extra []string
	seen := make(map[string]bool)
	for _, e := range xs {
		if e.Category == "" || idx.Has(e.Category) || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		extra = append(extra, e.Category)
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	xs, cats, err := s.loadSnapshot(ctx, user.ID)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	filter := ParseListFilter(r.URL.Query())
	shown := summary.Filter(xs, filter.Query, filter.Category)
	view := listView{
		Filter:     filter,
		Categories: categoryOptions(cats, xs),
		Rows:       viewsOf(shown, core.IndexCategories(cats)),
		Shown:      len(shown),
		Count:      len(xs),
		Total:      summary.TotalOf(shown),
	}

	name := "expenses_page"
	if isHTMX(r) && r.Header.Get("HX-Target") == "expense-list" {
		name = "expense_list"
	}
	s.render(w, r, http.StatusOK, name, page{
		Title:  "Expenses",
		Active: "expenses",
		User:   user,
		Data:   view,
	})
}

func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	xs, err := s.svc.List(ctx, user.ID)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	filter := ParseListFilter(r.URL.Query())
	shown := summary.Filter(xs, filter.Query, filter.Category)
	writeJSON(w, http.StatusOK, struct {
		Expenses []core.Expense `json:"expenses"`
		Total    core.Money     `json:"total"`
		Shown    int            `json:"shown"`
		Count    int            `json:"count"`
	}{shown, summary.TotalOf(shown), len(shown), len(xs)})
}

func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	cats := s.formCategories(r)
	s.render(w, r, http.StatusOK, "expense_form_page", page{
		Title:  "Add expense",
		Active: "new",
		User:   user,
		Data: formView{
			Action:     "/expenses",
			Date:       core.DateOf(s.now()).String(),
			Categories: cats,
		},
	})
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	e, err := s.svc.Get(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.render(w, r, http.StatusOK, "expense_form_page", page{
		Title:  "Edit expense",
		Active: "expenses",
		User:   user,
		Data: formView{
			Action:      "/expenses/" + e.ID,
			Editing:     true,
			ID:          e.ID,
			Title:       e.Title,
			Amount:      e.Amount.String(),
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date.String(),
			Categories:  s.formCategories(r),
		},
	})
}

func (s *Server) formCategories(r *http.Request) []core.Category {
	cats, err := s.svc.Categories(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to load categories", "error", err)
		return nil
	}
	return cats
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badRequest(w, r)
		return
	}

	f, err := ParseExpenseFields(p, core.DateOf(s.now()))
	var e core.Expense
	if err == nil {
		e, err = s.svc.CreateExpense(r.Context(), user.ID, f)
	}
	if err != nil {
		s.formError(w, r, user, p, formView{Action: "/expenses"}, applog.OpCreate, err)
		return
	}
	s.logMutation(r, "Expense created", applog.OpCreate, user, e)

	switch {
	case p.IsJSON() || wantsJSON(r):
		writeJSON(w, http.StatusCreated, e)
	case isHTMX(r):
		NewHTMXResponse().
			Status(http.StatusCreated).
			TriggerExpenseCreated(e.ID).
			TriggerFormReset().
			TriggerSummaryRefresh().
			TriggerSuccessNotification("Expense added: " + e.Title).
			Redirect("/expenses").
			Write(w)
	default:
		http.Redirect(w, r, "/expenses", http.StatusSeeOther)
	}
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	id := r.PathValue("id")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badRequest(w, r)
		return
	}

	f, err := ParseExpenseFields(p, core.DateOf(s.now()))
	var e core.Expense
	if err == nil {
		e, err = s.svc.UpdateExpense(r.Context(), id, user.ID, f)
	}
	if err != nil {
		s.formError(w, r, user, p, formView{Action: "/expenses/" + id, Editing: true, ID: id}, applog.OpUpdate, err)
		return
	}
	s.logMutation(r, "Expense updated", applog.OpUpdate, user, e)

	switch {
	case p.IsJSON() || wantsJSON(r):
		writeJSON(w, http.StatusOK, e)
	case isHTMX(r):
		NewHTMXResponse().
			TriggerExpenseUpdated(e.ID).
			TriggerSummaryRefresh().
			TriggerSuccessNotification("Expense updated: " + e.Title).
			Redirect("/expenses").
			Write(w)
	default:
		http.Redirect(w, r, "/expenses", http.StatusSeeOther)
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	e, err := s.svc.DeleteExpense(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.logMutation(r, "Expense deleted", applog.OpDelete, user, e)

	switch {
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	case isHTMX(r):
		// Empty body: the row swaps itself out.
		NewHTMXResponse().
			TriggerExpenseDeleted(e.ID).
			TriggerSummaryRefresh().
			TriggerSuccessNotification("Expense deleted").
			Write(w)
	default:
		http.Redirect(w, r, "/expenses", http.StatusSeeOther)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request format"})
		return
	}
	BadRequestError("Invalid request format").Write(w)
}

// formError re-renders the form with the submitted values when a plain
// browser form fails validation. Everything else goes through writeError.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, user auth.User, p *RequestBodyParser, view formView, op string, err error) {
	if !core.IsValidationError(err) || p.IsJSON() || wantsJSON(r) || isHTMX(r) {
		s.writeError(w, r, op, err)
		return
	}
	_, view.Error = errorStatus(err)
	view.Title = p.Get("title")
	view.Amount = p.Get("amount")
	view.Category = p.Get("category")
	view.Description = p.Get("description")
	view.Date = p.Get("date")
	view.Categories = s.formCategories(r)

	title := "Add expense"
	if view.Editing {
		title = "Edit expense"
	}
	s.render(w, r, http.StatusUnprocessableEntity, "expense_form_page", page{
		Title:  title,
		Active: "new",
		User:   user,
		Data:   view,
	})
}

func (s *Server) logMutation(r *http.Request, msg, op string, user auth.User, e core.Expense) {
	applog.FromContext(r.Context()).InfoContext(r.Context(), msg,
		applog.NewFields().
			WithComponent(applog.ComponentExpense).
			WithOperation(op).
			WithOwner(user.ID).
			WithExpense(e.ID, e.Title, e.Amount.Cents, e.Category).
			ToSlice()...)
}

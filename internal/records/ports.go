// Package records declares the ports between the application and whatever
// persists expense records and category reference data.
package records

import (
	"context"
	"errors"
	"strings"

	"spendtrack/internal/core"
)

// ErrNotFound is returned when a record does not exist or belongs to another
// owner. The two cases are indistinguishable to callers on purpose.
var ErrNotFound = errors.New("record not found")

// Fields are the user-editable parts of an expense.
type Fields struct {
	Title       string
	Amount      core.Money
	Category    string
	Description string
	Date        core.Date
}

// FieldsOf extracts the editable fields of e.
func FieldsOf(e core.Expense) Fields {
	return Fields{
		Title:       e.Title,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
	}
}

// Apply copies f onto e, trimming text fields.
func (f Fields) Apply(e core.Expense) core.Expense {
	e.Title = strings.TrimSpace(f.Title)
	e.Amount = f.Amount
	e.Category = strings.TrimSpace(f.Category)
	e.Description = strings.TrimSpace(f.Description)
	e.Date = f.Date
	return e
}

// Ports for outbound adapters.
type (
	// Store is owner-scoped CRUD over expense records.
	Store interface {
		// List returns the owner's records, newest date first.
		List(ctx context.Context, ownerID string) ([]core.Expense, error)
		Get(ctx context.Context, id, ownerID string) (core.Expense, error)
		// Create assigns ID and CreatedAt when they are empty.
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
		Update(ctx context.Context, id, ownerID string, f Fields) (core.Expense, error)
		// Delete removes the record and returns it as it was.
		Delete(ctx context.Context, id, ownerID string) (core.Expense, error)
	}

	CategoryReader interface {
		// Categories returns reference categories ordered by name.
		Categories(ctx context.Context) ([]core.Category, error)
	}

	// Mirror receives a copy of each stored record, keyed by record ID.
	Mirror interface {
		Upsert(ctx context.Context, e core.Expense) (ref string, err error)
		Remove(ctx context.Context, id string) error
	}
)

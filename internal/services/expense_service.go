package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

// Publisher announces record changes to the sync worker.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, id, ownerID string) error
	PublishExpenseDelete(ctx context.Context, id, ownerID string) error
}

// ExpenseService orchestrates expense operations across the record store
// and the message broker.
type ExpenseService struct {
	store      records.Store
	categories records.CategoryReader
	publisher  Publisher
}

// NewExpenseService wires the service. categories and publisher may be nil.
func NewExpenseService(store records.Store, categories records.CategoryReader, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:      store,
		categories: categories,
		publisher:  publisher,
	}
}

// List returns the owner's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, ownerID string) ([]core.Expense, error) {
	if ownerID == "" {
		return nil, core.ErrMissingOwner
	}
	return s.store.List(ctx, ownerID)
}

func (s *ExpenseService) Get(ctx context.Context, id, ownerID string) (core.Expense, error) {
	return s.store.Get(ctx, id, ownerID)
}

// Categories returns the reference categories, or none without a reader.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	if s.categories == nil {
		return nil, nil
	}
	return s.categories.Categories(ctx)
}

// CreateExpense saves an expense and publishes a sync message.
func (s *ExpenseService) CreateExpense(ctx context.Context, ownerID string, f records.Fields) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrMissingOwner
	}
	e := f.Apply(core.Expense{OwnerID: ownerID})
	if err := s.validate(ctx, e); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publishSyncMessage(ctx, saved); err != nil {
		// Don't fail the request - expense is saved locally
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
	}
	return saved, nil
}

// UpdateExpense replaces the editable fields of an owned expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id, ownerID string, f records.Fields) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrMissingOwner
	}
	if err := s.validate(ctx, f.Apply(core.Expense{OwnerID: ownerID})); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.Update(ctx, id, ownerID, f)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	if err := s.publishSyncMessage(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
	}
	return saved, nil
}

// DeleteExpense removes an owned expense and publishes a delete message.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id, ownerID string) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrMissingOwner
	}
	deleted, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}

	if err := s.publishDeleteMessage(ctx, deleted); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", deleted.ID, "error", err)
	}
	return deleted, nil
}

// validate runs field validation and, when reference data is available,
// checks the category against it.
func (s *ExpenseService) validate(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(cats) == 0 {
		return nil
	}
	if !core.IndexCategories(cats).Has(strings.TrimSpace(e.Category)) {
		return fmt.Errorf("%w: %q", core.ErrInvalidCategory, e.Category)
	}
	return nil
}

func (s *ExpenseService) publishSyncMessage(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Publisher not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishExpenseSync(ctx, e.ID, e.OwnerID)
}

func (s *ExpenseService) publishDeleteMessage(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Publisher not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishExpenseDelete(ctx, e.ID, e.OwnerID)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

// SyncStore is the part of the SQLite repository the worker needs.
type SyncStore interface {
	GetByID(ctx context.Context, id string) (core.Expense, error)
	PendingSync(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker copies expenses from SQLite into the mirror.
type SyncWorker struct {
	storage   SyncStore
	mirror    records.Mirror
	batchSize int
}

func NewSyncWorker(storage SyncStore, mirror records.Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
// A record deleted before the message arrived is skipped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"owner_id", msg.OwnerID)

	expense, err := w.storage.GetByID(ctx, msg.ID)
	if errors.Is(err, records.ErrNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, skipping sync", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.syncExpense(ctx, expense); err != nil {
		return fmt.Errorf("sync expense to mirror: %w", err)
	}
	return nil
}

// HandleDeleteMessage processes a single expense delete message from AMQP
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.ExpenseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if err := w.mirror.Remove(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete expense from mirror",
			"id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		return fmt.Errorf("delete expense from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Successfully deleted expense from mirror",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}

// ProcessPendingExpenses processes any expenses that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	_, _, err := w.syncPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck syncs a larger batch of pending expenses at worker
// startup, to recover from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.syncPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, e := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := w.syncExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, expense core.Expense) error {
	ref, err := w.mirror.Upsert(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("upsert to mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, expense.ID); err != nil {
		// Don't return error here - the sync actually worked
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", expense.ID,
		"mirror_ref", ref,
		"title", expense.Title,
		"amount_cents", expense.Amount.Cents)
	return nil
}

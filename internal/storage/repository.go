package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/core"
	"spendtrack/internal/records"

	_ "modernc.org/sqlite"
)

// Sync states of a stored expense with respect to the mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var (
	_ records.Store          = (*SQLiteRepository)(nil)
	_ records.CategoryReader = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const expenseColumns = `id, user_id, title, amount_cents, category, description, date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e               core.Expense
		amount          any
		date, createdAt string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &amount, &e.Category, &e.Description, &date, &createdAt); err != nil {
		return core.Expense{}, err
	}
	// SQLite keeps whatever type was written; rows edited by hand may hold
	// text or reals in amount_cents.
	e.Amount = core.CoerceCents(amount)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q of expense %s: %w", date, e.ID, err)
	}
	e.Date = d
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = ts
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id, ownerID string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, ownerID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, records.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// GetByID loads a record regardless of owner. Only the sync worker uses it.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, records.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.OwnerID == "" {
		return core.Expense{}, core.ErrMissingOwner
	}
	e = records.FieldsOf(e).Apply(e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, title, amount_cents, category, description, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Title, e.Amount.Cents, e.Category, e.Description,
		e.Date.String(), e.CreatedAt.UTC().Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id, ownerID string, f records.Fields) (core.Expense, error) {
	current, err := r.Get(ctx, id, ownerID)
	if err != nil {
		return core.Expense{}, err
	}
	updated := f.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		    SET title = ?, amount_cents = ?, category = ?, description = ?, date = ?,
		        updated_at = ?, version = version + 1, sync_status = ?
		  WHERE id = ? AND user_id = ?`,
		updated.Title, updated.Amount.Cents, updated.Category, updated.Description, updated.Date.String(),
		r.now().UTC().Format(time.RFC3339Nano), SyncPending, id, ownerID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Expense{}, records.ErrNotFound
	}
	return updated, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, ownerID string) (core.Expense, error) {
	current, err := r.Get(ctx, id, ownerID)
	if err != nil {
		return core.Expense{}, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Expense{}, records.ErrNotFound
	}
	return current, nil
}

// Categories implements records.CategoryReader
func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCategories inserts or refreshes reference categories by name.
func (r *SQLiteRepository) UpsertCategories(ctx context.Context, cats []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cats {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, icon, color) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET icon = excluded.icon, color = excluded.color`,
			id, name, c.Icon, c.Color); err != nil {
			return fmt.Errorf("upsert category %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// PendingSync returns up to limit records not yet mirrored, oldest first.
// Records whose last sync failed are retried too.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE sync_status IN (?, ?) ORDER BY created_at ASC LIMIT ?`,
		SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncSynced)
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

// SyncStatus returns the sync state of a record.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM expenses WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", records.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string) error {
	var syncedAt any
	if status == SyncSynced {
		syncedAt = r.now().UTC().Format(time.RFC3339Nano)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ?, synced_at = COALESCE(?, synced_at) WHERE id = ?`,
		status, syncedAt, id)
	if err != nil {
		return fmt.Errorf("mark expense %s %s: %w", id, status, err)
	}
	return nil
}

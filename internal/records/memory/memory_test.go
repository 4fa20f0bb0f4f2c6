package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

func newExpense(owner, title string, date core.Date) core.Expense {
	return core.Expense{
		OwnerID:  owner,
		Title:    title,
		Amount:   core.Money{Cents: 123},
		Category: "Food & Dining",
		Date:     date,
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New(core.DefaultCategories())

	created, err := s.Create(ctx, newExpense("alice", "  Lunch ", core.NewDate(2024, 3, 2)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("create did not assign id/created_at: %+v", created)
	}
	if created.Title != "Lunch" {
		t.Fatalf("title not trimmed: %q", created.Title)
	}

	got, err := s.Get(ctx, created.ID, "alice")
	if err != nil || got.ID != created.ID {
		t.Fatalf("get: %+v %v", got, err)
	}

	if _, err := s.Get(ctx, created.ID, "bob"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("other owner get: %v", err)
	}

	f := records.FieldsOf(got)
	f.Amount = core.Money{Cents: 999}
	updated, err := s.Update(ctx, created.ID, "alice", f)
	if err != nil || updated.Amount.Cents != 999 || updated.CreatedAt != created.CreatedAt {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if _, err := s.Update(ctx, created.ID, "bob", f); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("other owner update: %v", err)
	}

	f.Title = ""
	if _, err := s.Update(ctx, created.ID, "alice", f); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("invalid update: %v", err)
	}

	if _, err := s.Delete(ctx, created.ID, "bob"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("other owner delete: %v", err)
	}
	removed, err := s.Delete(ctx, created.ID, "alice")
	if err != nil || removed.ID != created.ID {
		t.Fatalf("delete: %+v %v", removed, err)
	}
	if _, err := s.Get(ctx, created.ID, "alice"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestMemoryStoreCreateRequiresOwner(t *testing.T) {
	s := New(nil)
	if _, err := s.Create(context.Background(), newExpense("", "x", core.NewDate(2024, 1, 1))); !errors.Is(err, core.ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
}

func TestMemoryStoreListScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	for _, e := range []core.Expense{
		newExpense("alice", "old", core.NewDate(2024, 1, 5)),
		newExpense("alice", "new", core.NewDate(2024, 3, 5)),
		newExpense("bob", "bob's", core.NewDate(2024, 3, 6)),
		newExpense("alice", "new-later", core.NewDate(2024, 3, 5)),
	} {
		if _, err := s.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	xs, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new-later", "new", "old"}
	if len(xs) != len(want) {
		t.Fatalf("len = %d", len(xs))
	}
	for i, e := range xs {
		if e.Title != want[i] {
			t.Fatalf("xs[%d] = %s, want %s", i, e.Title, want[i])
		}
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No files -> defaults
	s := NewFromFiles(dir)
	cats, _ := s.Categories(context.Background())
	if len(cats) != len(core.DefaultCategories()) {
		t.Fatalf("expected defaults when files missing, got %d", len(cats))
	}

	content := "# name|icon|color\nTravel|✈️|#14b8a6\nBooks|📚\nTravel|x|y\n\n  \n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.Categories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Books" || cats[1].Name != "Travel" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	if cats[1].Icon != "✈️" || cats[1].Color != "#14b8a6" || cats[0].Color != "" {
		t.Fatalf("unexpected fields: %+v", cats)
	}
}

func TestReadSeedFile(t *testing.T) {
	dir := t.TempDir()
	if cats := ReadSeedFile(dir); cats != nil {
		t.Fatalf("missing file should yield nil, got %+v", cats)
	}
	if got := SeedCategories(dir); len(got) != len(core.DefaultCategories()) {
		t.Fatalf("SeedCategories without file = %d categories", len(got))
	}
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Home Office|🖥️\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cats := ReadSeedFile(dir)
	if len(cats) != 1 || cats[0].ID != "home-office" || cats[0].Icon != "🖥️" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
}

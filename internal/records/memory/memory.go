// Package memory is a process-local record store used for development and
// tests. Categories can be seeded from a text file.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

var (
	_ records.Store          = (*Store)(nil)
	_ records.CategoryReader = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	cats  []core.Category
	items []core.Expense
	now   func() time.Time
}

func New(cats []core.Category) *Store {
	return &Store{cats: dedupe(cats), now: time.Now}
}

// NewFromFiles seeds categories from base/seed_categories.txt.
func NewFromFiles(base string) *Store {
	return New(SeedCategories(base))
}

// SeedCategories reads base/seed_categories.txt, falling back to the
// built-in defaults when the file is missing or empty.
func SeedCategories(base string) []core.Category {
	cats := ReadSeedFile(base)
	if len(cats) == 0 {
		return core.DefaultCategories()
	}
	return cats
}

// ReadSeedFile parses base/seed_categories.txt, one "name|icon|color" per
// line with # comments. A missing file yields nil.
func ReadSeedFile(base string) []core.Category {
	return readCategories(filepath.Join(base, "seed_categories.txt"))
}

func (s *Store) List(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	records.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, id, ownerID string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id, ownerID)
	if i < 0 {
		return core.Expense{}, records.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
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
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Update(_ context.Context, id, ownerID string, f records.Fields) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id, ownerID)
	if i < 0 {
		return core.Expense{}, records.ErrNotFound
	}
	updated := f.Apply(s.items[i])
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.items[i] = updated
	return updated, nil
}

func (s *Store) Delete(_ context.Context, id, ownerID string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id, ownerID)
	if i < 0 {
		return core.Expense{}, records.ErrNotFound
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return removed, nil
}

// Categories returns the seeded categories ordered by name.
func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Category(nil), s.cats...)
	core.SortCategories(out)
	return out, nil
}

func (s *Store) indexOf(id, ownerID string) int {
	for i, e := range s.items {
		if e.ID == id && e.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		c := core.Category{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			c.Icon = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Color = strings.TrimSpace(parts[2])
		}
		c.ID = slug(c.Name)
		out = append(out, c)
	}
	return dedupe(out)
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// dedupe drops blank and repeated names, keeping the first occurrence.
func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

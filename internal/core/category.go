package core

import (
	"sort"
	"strings"
)

// DefaultCategoryIcon is shown for categories missing from the reference list.
const DefaultCategoryIcon = "📦"

// Palette cycles through chart colours by slice index.
var Palette = []string{"#8b5cf6", "#3b82f6", "#ef4444", "#f59e0b", "#10b981", "#ec4899"}

// PaletteColor returns the palette entry for position i.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// DefaultCategories seeds stores that have no reference data of their own.
func DefaultCategories() []Category {
	return []Category{
		{ID: "bills", Name: "Bills & Utilities", Icon: "💡", Color: "#f59e0b"},
		{ID: "education", Name: "Education", Icon: "📚", Color: "#6366f1"},
		{ID: "entertainment", Name: "Entertainment", Icon: "🎬", Color: "#ec4899"},
		{ID: "food", Name: "Food & Dining", Icon: "🍔", Color: "#ef4444"},
		{ID: "health", Name: "Healthcare", Icon: "🏥", Color: "#10b981"},
		{ID: "other", Name: "Other", Icon: DefaultCategoryIcon, Color: "#6b7280"},
		{ID: "shopping", Name: "Shopping", Icon: "🛍️", Color: "#8b5cf6"},
		{ID: "transport", Name: "Transportation", Icon: "🚗", Color: "#3b82f6"},
		{ID: "travel", Name: "Travel", Icon: "✈️", Color: "#14b8a6"},
	}
}

// CategoryIndex looks categories up by exact name.
type CategoryIndex map[string]Category

// IndexCategories builds a lookup table. Later duplicates are ignored.
func IndexCategories(cats []Category) CategoryIndex {
	idx := make(CategoryIndex, len(cats))
	for _, c := range cats {
		if _, ok := idx[c.Name]; ok {
			continue
		}
		idx[c.Name] = c
	}
	return idx
}

// Icon returns the icon for name, or DefaultCategoryIcon when the category is
// unknown or has no icon.
func (idx CategoryIndex) Icon(name string) string {
	if c, ok := idx[name]; ok && c.Icon != "" {
		return c.Icon
	}
	return DefaultCategoryIcon
}

// Color returns the configured colour for name, falling back to the palette.
func (idx CategoryIndex) Color(name string, position int) string {
	if c, ok := idx[name]; ok && c.Color != "" {
		return c.Color
	}
	return PaletteColor(position)
}

// Has reports whether name is a known category.
func (idx CategoryIndex) Has(name string) bool {
	_, ok := idx[name]
	return ok
}

// SortCategories orders categories by name, case-insensitively, in place.
func SortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
}

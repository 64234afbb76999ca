package manifest

import "strings"

// Category is the logical grouping of a script, derived from the leading
// directory segment of its relative path. It exists for reporting and for
// category-scoped partial reruns; execution order never depends on it.
type Category string

const (
	// CategoryTable covers scripts under tables/
	CategoryTable Category = "table"

	// CategoryFunction covers scripts under functions/
	CategoryFunction Category = "function"

	// CategoryProcedure covers scripts under procedures/
	CategoryProcedure Category = "procedure"

	// CategoryInit covers scripts under init/
	CategoryInit Category = "init"

	// CategoryView covers scripts under views/
	CategoryView Category = "view"

	// CategoryOther covers scripts with an unrecognized leading directory.
	// Unknown segments are never dropped; they classify as Other so new
	// script kinds remain forward compatible.
	CategoryOther Category = "other"
)

var categories = map[string]Category{
	"tables":     CategoryTable,
	"functions":  CategoryFunction,
	"procedures": CategoryProcedure,
	"init":       CategoryInit,
	"views":      CategoryView,
}

// Classify derives the category for a relative script path from its first
// path segment. It's a total function: every input yields a category, with
// CategoryOther as the fallback.
//
// Example:
//
//	manifest.Classify("tables/datasets.sql")  // CategoryTable
//	manifest.Classify("views/augmented.sql")  // CategoryView
//	manifest.Classify("misc/notes.sql")       // CategoryOther
func Classify(relativePath string) Category {
	segment, _, found := strings.Cut(relativePath, "/")
	if !found {
		return CategoryOther
	}

	if c, ok := categories[segment]; ok {
		return c
	}

	return CategoryOther
}

// ParseCategory converts a user-supplied name (e.g. a CLI flag value) into a
// Category. The boolean reports whether the name matched a known category.
func ParseCategory(name string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(name))) {
	case CategoryTable, CategoryFunction, CategoryProcedure, CategoryInit, CategoryView, CategoryOther:
		return Category(strings.ToLower(strings.TrimSpace(name))), true
	}

	return "", false
}

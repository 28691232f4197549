// Package ingredient turns free-form image recognition output into ingredient records.
package ingredient

import (
	"strings"

	"github.com/samber/lo"

	"wastetofeast/internal/recipe"
	"wastetofeast/internal/shelflife"
)

// Record is a detected ingredient with its storage durations.
type Record struct {
	Name      string              `json:"name"`
	ShelfLife shelflife.ShelfLife `json:"shelfLife"`
}

// Extract splits comma-separated model output into normalized ingredient
// records. Empty and duplicate names are dropped. It returns
// recipe.ErrNoIngredientsDetected when nothing is left.
func Extract(text string) ([]Record, error) {
	names := lo.FilterMap(strings.Split(text, ","), func(token string, _ int) (string, bool) {
		name := Normalize(token)
		return name, name != ""
	})
	names = lo.Uniq(names)

	if len(names) == 0 {
		return nil, recipe.ErrNoIngredientsDetected
	}

	return lo.Map(names, func(name string, _ int) Record {
		return Record{Name: name, ShelfLife: shelflife.LookupOrUnknown(name)}
	}), nil
}

// Normalize lowercases a name, collapses internal whitespace and trims stray
// commas and trailing periods. Normalize(Normalize(s)) == Normalize(s).
func Normalize(token string) string {
	name := strings.ToLower(strings.Join(strings.Fields(token), " "))
	name = strings.TrimRight(name, ". ,")
	return strings.TrimLeft(name, ", ")
}

// Names joins record names the way the recipe form expects them.
func Names(records []Record) string {
	return strings.Join(lo.Map(records, func(r Record, _ int) string { return r.Name }), ", ")
}

// Package shelflife holds the static storage-duration table for common ingredients.
package shelflife

import (
	"sort"
	"strings"
)

// Varies is reported for every storage condition of an unknown ingredient.
const Varies = "Varies"

// ShelfLife is how long an ingredient keeps at room temperature, refrigerated and frozen.
type ShelfLife struct {
	Room         string `json:"room"`
	Refrigerated string `json:"refrigerated"`
	Frozen       string `json:"frozen"`
}

// Unknown is the shelf life reported for ingredients missing from the table.
var Unknown = ShelfLife{Room: Varies, Refrigerated: Varies, Frozen: Varies}

var table = map[string]ShelfLife{
	"tomatoes":        {"5-7 days", "1-2 weeks", "6-8 months"},
	"lettuce":         {"1-2 days", "7-10 days", "Not recommended"},
	"onions":          {"2-3 months", "1-2 months", "8-12 months"},
	"garlic":          {"3-5 months", "1-2 months", "10-12 months"},
	"ginger":          {"1 week", "1 month", "6 months"},
	"carrots":         {"3-5 days", "2-3 weeks", "8-12 months"},
	"potatoes":        {"2-3 weeks", "3-4 months", "10-12 months"},
	"mushrooms":       {"2-3 days", "7-10 days", "8-12 months"},
	"peppers":         {"4-5 days", "1-2 weeks", "10-12 months"},
	"celery":          {"1-2 days", "1-2 weeks", "10-12 months"},
	"herbs":           {"2-3 days", "1-2 weeks", "6 months"},
	"lemons":          {"1 week", "2-3 weeks", "3-4 months"},
	"limes":           {"1 week", "2-3 weeks", "3-4 months"},
	"apples":          {"1-2 weeks", "4-6 weeks", "8 months"},
	"sunflowerseeds":  {"2-3 months", "4-6 months", "1 year"},
	"quinoa":          {"2-3 years", "3-4 years", "4-5 years"},
	"driedapricots":   {"6-12 months", "1-2 years", "1-2 years"},
	"eggplants":       {"2-3 days", "5-7 days", "6-8 months"},
	"pumpkin":         {"2-3 months", "3-4 months", "6-8 months"},
	"smallredpeppers": {"1-2 weeks", "2-3 weeks", "6 months"},
	"leeks":           {"3-5 days", "1-2 weeks", "3-4 months"},
	"brazilnuts":      {"6-9 months", "9-12 months", "1-2 years"},
	"beetroot":        {"3-5 days", "2-3 weeks", "6-8 months"},
	"cheese":          {"2-4 hours", "1-4 weeks", "6-8 months"},
	"flaxseeds":       {"6-12 months", "1-2 years", "1-2 years"},
	"mint":            {"7-10 days", "2-3 weeks", "3-4 months"},
	"rosemary":        {"1-2 weeks", "2-3 weeks", "4-6 months"},
}

// Lookup returns the shelf life of a normalized ingredient name. Names are also
// tried with spaces removed, so "dried apricots" finds "driedapricots".
func Lookup(name string) (ShelfLife, bool) {
	if sl, ok := table[name]; ok {
		return sl, true
	}
	sl, ok := table[strings.ReplaceAll(name, " ", "")]
	return sl, ok
}

// LookupOrUnknown is Lookup with Unknown substituted for missing names.
func LookupOrUnknown(name string) ShelfLife {
	if sl, ok := Lookup(name); ok {
		return sl
	}
	return Unknown
}

// Names returns every ingredient in the table, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

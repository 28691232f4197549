package shelflife

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	sl, ok := Lookup("tomatoes")
	assert.True(t, ok)
	assert.Equal(t, ShelfLife{Room: "5-7 days", Refrigerated: "1-2 weeks", Frozen: "6-8 months"}, sl)

	sl, ok = Lookup("sunflower seeds")
	assert.True(t, ok)
	assert.Equal(t, "1 year", sl.Frozen)

	_, ok = Lookup("dragonfruit")
	assert.False(t, ok)
}

func TestLookupOrUnknown(t *testing.T) {
	assert.Equal(t, Unknown, LookupOrUnknown("unknownveg"))
	assert.Equal(t, "Varies", LookupOrUnknown("unknownveg").Room)
	assert.Equal(t, "2-3 months", LookupOrUnknown("onions").Room)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 27)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "rosemary")
}

package dataset

import (
	"strings"

	"github.com/google/btree"
	"golang.org/x/text/cases"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	}
	return "", false
}

type sortItem struct {
	Pos    int
	Value  Value
	folded string
}

// SortIndex keeps the positions of a dataset ordered by one field.
type SortIndex struct {
	Field     string
	Direction Direction
	Btree     *btree.BTreeG[*sortItem]
}

// Compare orders two non-null values: numbers numerically, text case
// insensitively, numbers before text.
func Compare(a, b Value) int {
	return compareItems(newSortItem(0, a), newSortItem(0, b))
}

func newSortItem(pos int, v Value) *sortItem {
	item := &sortItem{Pos: pos, Value: v}
	if s, ok := v.Text(); ok {
		item.folded = cases.Fold().String(s)
	}
	return item
}

func compareItems(a, b *sortItem) int {
	switch {
	case a.Value.kind == Number && b.Value.kind == Number:
		switch {
		case a.Value.num < b.Value.num:
			return -1
		case a.Value.num > b.Value.num:
			return 1
		}
		return 0
	case a.Value.kind == Number:
		return -1
	case b.Value.kind == Number:
		return 1
	}
	return strings.Compare(a.folded, b.folded)
}

func NewSortIndex(d *Dataset, field string, direction Direction) *SortIndex {

	field = CanonicalField(field)

	index := btree.NewG(32, func(a, b *sortItem) bool {
		aNull, bNull := a.Value.IsNull(), b.Value.IsNull()
		if aNull != bNull {
			return bNull // nulls last in both directions
		}
		if !aNull {
			c := compareItems(a, b)
			if direction == Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.Pos < b.Pos
	})

	for pos, record := range d.Records {
		index.ReplaceOrInsert(newSortItem(pos, record.Get(field)))
	}

	return &SortIndex{
		Field:     field,
		Direction: direction,
		Btree:     index,
	}
}

// SortIndex returns the memoized index for field and direction.
func (d *Dataset) SortIndex(field string, direction Direction) *SortIndex {
	key := "sort:" + CanonicalField(field) + ":" + string(direction)
	return d.Memo(key, func() interface{} {
		return NewSortIndex(d, field, direction)
	}).(*SortIndex)
}

// Traverse visits positions in sorted order until f returns false.
func (s *SortIndex) Traverse(f func(pos int) bool) {
	s.Btree.Ascend(func(item *sortItem) bool {
		return f(item.Pos)
	})
}

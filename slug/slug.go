// Package slug derives the human readable key of a vehicle record and
// resolves it back to exactly one record.
package slug

import (
	"errors"
	"sort"
	"strings"

	"github.com/fulldump/mpgfinder/dataset"
)

var ErrSlugNotFound = errors.New("slug not found")
var ErrSlugAmbiguous = errors.New("slug is ambiguous")

type Status string

const (
	Found     Status = "found"
	NotFound  Status = "not_found"
	Ambiguous Status = "ambiguous"
)

// Derive lowercases each part, turns whitespace runs into hyphens and joins
// the parts with hyphens: ("Ford", "Focus", "2010") -> "ford-focus-2010".
func Derive(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = strings.Join(strings.Fields(strings.ToLower(part)), "-")
	}
	return strings.Join(normalized, "-")
}

// Of derives the slug of a record from make, model and year.
func Of(record dataset.Record) string {
	return Derive(record.Make(), record.Model(), record.Year())
}

type Resolution struct {
	Status    Status
	Slug      string
	Record    dataset.Record
	Positions []int
}

// Err maps the non found outcomes to their sentinel errors.
func (r Resolution) Err() error {
	switch r.Status {
	case NotFound:
		return ErrSlugNotFound
	case Ambiguous:
		return ErrSlugAmbiguous
	}
	return nil
}

// Resolve scans records for target. More than one match is reported as
// ambiguous, never resolved to the first one.
func Resolve(target string, records []dataset.Record) Resolution {
	positions := []int{}
	for pos, record := range records {
		if Of(record) == target {
			positions = append(positions, pos)
		}
	}
	return resolution(target, records, positions)
}

func resolution(target string, records []dataset.Record, positions []int) Resolution {
	r := Resolution{
		Slug:      target,
		Positions: positions,
	}
	switch len(positions) {
	case 0:
		r.Status = NotFound
	case 1:
		r.Status = Found
		r.Record = records[positions[0]]
	default:
		r.Status = Ambiguous
	}
	return r
}

// Index maps every slug of a dataset to the positions that derive it.
type Index struct {
	records []dataset.Record
	entries map[string][]int
}

func NewIndex(records []dataset.Record) *Index {
	index := &Index{
		records: records,
		entries: make(map[string][]int, len(records)),
	}
	for pos, record := range records {
		s := Of(record)
		index.entries[s] = append(index.entries[s], pos)
	}
	return index
}

// IndexOf returns the memoized index of a dataset.
func IndexOf(d *dataset.Dataset) *Index {
	return d.Memo("slug.index", func() interface{} {
		return NewIndex(d.Records)
	}).(*Index)
}

func (i *Index) Resolve(target string) Resolution {
	positions := append([]int{}, i.entries[target]...)
	return resolution(target, i.records, positions)
}

func (i *Index) Len() int {
	return len(i.entries)
}

// Slugs returns every slug that resolves to exactly one record, in dataset
// order.
func (i *Index) Slugs() []string {
	result := []string{}
	for _, record := range i.records {
		s := Of(record)
		if len(i.entries[s]) == 1 {
			result = append(result, s)
		}
	}
	return result
}

// Collisions lists the slugs shared by two or more records, sorted.
func (i *Index) Collisions() []string {
	result := []string{}
	for s, positions := range i.entries {
		if len(positions) > 1 {
			result = append(result, s)
		}
	}
	sort.Strings(result)
	return result
}

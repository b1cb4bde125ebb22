// Package query turns facet selections, a search term and an optional sort
// into a deterministic filtered view of a dataset.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/SierraSoftworks/connor"
	"golang.org/x/text/cases"

	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/facet"
)

var ErrBadSort = errors.New("bad sort")
var ErrBadWhere = errors.New("bad where")

type Sort struct {
	Field     string            `json:"field"`
	Direction dataset.Direction `json:"direction"`
}

type Query struct {
	Facets facet.Selection        `json:"facets"`
	Search string                 `json:"search"`
	Fuel   string                 `json:"fuel,omitempty"`
	Sort   *Sort                  `json:"sort,omitempty"`
	Where  map[string]interface{} `json:"where,omitempty"`
}

// View is the ordered subsequence of records that satisfy a query.
type View struct {
	Positions []int
	Records   []dataset.Record
	Facets    facet.Result
}

func (v *View) Len() int {
	return len(v.Records)
}

// Fingerprint identifies the filter-defining inputs of a query. Two queries
// with the same fingerprint select the same records; sort is not part of it.
func Fingerprint(q Query) string {
	where := ""
	if len(q.Where) > 0 {
		b, err := json.Marshal(q.Where) // map keys are sorted
		if err == nil {
			where = string(b)
		}
	}
	f := q.Facets.Normalized()
	b, _ := json.Marshal([]string{f.Make, f.Model, f.Year, dataset.Normalize(q.Fuel), normalizeSearch(q.Search), where})
	return string(b)
}

func cacheKey(datasetID string, q Query) string {
	key := datasetID + "|" + Fingerprint(q)
	if q.Sort != nil {
		key += "|" + dataset.CanonicalField(q.Sort.Field) + ":" + string(q.Sort.Direction)
	}
	return key
}

func normalizeSearch(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// MatchesSearch is true when term is empty or a case insensitive substring of
// make, model or year.
func MatchesSearch(record dataset.Record, term string) bool {
	term = normalizeSearch(term)
	return matchesFolded(record, term)
}

func matchesFolded(record dataset.Record, folded string) bool {
	if folded == "" {
		return true
	}
	fold := cases.Fold()
	for _, field := range []string{facet.Make, facet.Model, facet.Year} {
		if strings.Contains(fold.String(record.Get(field).String()), folded) {
			return true
		}
	}
	return false
}

// Filter is a pure function of (dataset, query).
func Filter(d *dataset.Dataset, q Query) (*View, error) {

	var direction dataset.Direction
	if q.Sort != nil {
		if !d.Schema.Has(q.Sort.Field) {
			return nil, fmt.Errorf("%w: field '%s' does not exist", ErrBadSort, q.Sort.Field)
		}
		var ok bool
		direction, ok = dataset.ParseDirection(string(q.Sort.Direction))
		if !ok {
			return nil, fmt.Errorf("%w: direction '%s' must be asc or desc", ErrBadSort, q.Sort.Direction)
		}
	}

	facets := facet.Compute(d.Records, q.Facets)
	facets.Fuels = facet.Fuels(d)
	fuelField := facet.FuelField(d.Schema)
	fuel := dataset.Normalize(q.Fuel)
	if fuel != "" && !slices.Contains(facets.Fuels, fuel) {
		facets.Unknown = append(facets.Unknown, facet.Fuel)
	}
	selection := q.Facets.Normalized()
	search := normalizeSearch(q.Search)
	hasWhere := len(q.Where) > 0

	members := roaring.New()
	for pos, record := range d.Records {
		if len(facets.Unknown) > 0 {
			break
		}
		if !selection.Matches(record) {
			continue
		}
		if fuel != "" && !facet.MatchesFuel(record, fuelField, fuel) {
			continue
		}
		if !matchesFolded(record, search) {
			continue
		}
		if hasWhere {
			match, err := connor.Match(q.Where, record.Map())
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadWhere, err.Error())
			}
			if !match {
				continue
			}
		}
		members.Add(uint32(pos))
	}

	view := &View{
		Positions: make([]int, 0, members.GetCardinality()),
		Records:   make([]dataset.Record, 0, members.GetCardinality()),
		Facets:    facets,
	}
	add := func(pos int) {
		view.Positions = append(view.Positions, pos)
		view.Records = append(view.Records, d.Records[pos])
	}

	if q.Sort == nil {
		it := members.Iterator()
		for it.HasNext() {
			add(int(it.Next()))
		}
		return view, nil
	}

	remaining := members.GetCardinality()
	d.SortIndex(q.Sort.Field, direction).Traverse(func(pos int) bool {
		if remaining == 0 {
			return false
		}
		if members.Contains(uint32(pos)) {
			add(pos)
			remaining--
		}
		return true
	})

	return view, nil
}

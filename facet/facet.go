// Package facet computes the cascading make → model → year option lists.
package facet

import (
	"sort"

	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/utils"
)

const (
	Make  = dataset.FieldMake
	Model = dataset.FieldModel
	Year  = dataset.FieldYear
)

// Selection holds three optional equality constraints. Empty means unset.
type Selection struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  string `json:"year"`
}

func (s Selection) Normalized() Selection {
	return Selection{
		Make:  dataset.Normalize(s.Make),
		Model: dataset.Normalize(s.Model),
		Year:  dataset.Normalize(s.Year),
	}
}

func (s Selection) IsEmpty() bool {
	n := s.Normalized()
	return n.Make == "" && n.Model == "" && n.Year == ""
}

// Matches reports whether record satisfies every set constraint.
func (s Selection) Matches(record dataset.Record) bool {
	n := s.Normalized()
	return matches(record, Make, n.Make) &&
		matches(record, Model, n.Model) &&
		matches(record, Year, n.Year)
}

func matches(record dataset.Record, field, want string) bool {
	if want == "" {
		return true
	}
	return record.Get(field).Normalized() == want
}

type Result struct {
	Makes   []string         `json:"makes"`
	Models  []string         `json:"models"`
	Years   []string         `json:"years"`
	Fuels   []string         `json:"fuels"`
	Matched []dataset.Record `json:"-"`
	// Unknown lists the facets whose selected value is not a current option.
	Unknown []string `json:"unknown,omitempty"`
}

// Compute applies the selection left to right. The options of each facet are
// taken from the records already narrowed by the facets before it.
func Compute(records []dataset.Record, selection Selection) Result {

	sel := selection.Normalized()
	result := Result{
		Fuels:   []string{},
		Unknown: []string{},
	}

	step := func(records []dataset.Record, field, want string) ([]string, []dataset.Record) {
		options := Options(records, field)
		if want == "" {
			return options, records
		}
		if !contains(options, want) {
			result.Unknown = append(result.Unknown, field)
			return options, []dataset.Record{}
		}
		return options, filter(records, field, want)
	}

	var current []dataset.Record
	result.Makes, current = step(records, Make, sel.Make)
	result.Models, current = step(current, Model, sel.Model)
	result.Years, current = step(current, Year, sel.Year)
	result.Matched = current

	return result
}

// Options returns the distinct normalized values of field, sorted ascending.
// Nulls and blank values are not options.
func Options(records []dataset.Record, field string) []string {
	seen := map[string]struct{}{}
	for _, record := range records {
		v := record.Get(field).Normalized()
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return utils.GetKeys(seen)
}

func filter(records []dataset.Record, field, want string) []dataset.Record {
	result := []dataset.Record{}
	for _, record := range records {
		if matches(record, field, want) {
			result = append(result, record)
		}
	}
	return result
}

func contains(options []string, want string) bool {
	i := sort.SearchStrings(options, want)
	return i < len(options) && options[i] == want
}

package facet

import (
	"github.com/fulldump/mpgfinder/dataset"
)

const Fuel = "fuel"

// fuelFields are the columns that may carry the fuel type, in preference order.
var fuelFields = []string{"fuel", "fueltype1"}

// FuelField returns the column holding the fuel type or "" if the dataset has
// none.
func FuelField(schema *dataset.Schema) string {
	for _, field := range fuelFields {
		if schema.Has(field) {
			return field
		}
	}
	return ""
}

// Fuels lists the fuel types of the whole dataset. Unlike make, model and
// year it does not cascade: the list never depends on other selections.
func Fuels(d *dataset.Dataset) []string {
	return d.Memo("facet.fuels", func() interface{} {
		field := FuelField(d.Schema)
		if field == "" {
			return []string{}
		}
		return Options(d.Records, field)
	}).([]string)
}

// MatchesFuel is true when fuel is unset or equals the normalized fuel type of
// record.
func MatchesFuel(record dataset.Record, field, fuel string) bool {
	return matches(record, field, dataset.Normalize(fuel))
}

package dataset

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"
)

const sample = `make,model,year,mpg
Ford,Focus,2010,30
Ford,Fiesta,2012,35
Honda,Civic,2015,32
`

func TestParse_HappyPath(t *testing.T) {

	d, err := ParseString(sample)
	biff.AssertNil(err)

	biff.AssertEqual(d.Schema.Fields(), []string{"make", "model", "year", "mpg"})
	biff.AssertEqual(d.Len(), 3)
	biff.AssertEqual(len(d.Problems), 0)

	first := d.Records[0]
	biff.AssertEqual(first.Get("make").Interface(), "Ford")
	biff.AssertEqual(first.Get("year").Interface(), float64(2010))
	biff.AssertEqual(first.Get("mpg").Kind(), Number)
	biff.AssertEqual(first.Year(), "2010")
}

func TestParse_Coercion(t *testing.T) {

	d, err := ParseString("a,b,c,d,e,f\n1.5,,abc,0x10,NaN,-2e3\n")
	biff.AssertNil(err)

	r := d.Records[0]
	biff.AssertEqual(r.Get("a").Interface(), 1.5)
	biff.AssertTrue(r.Get("b").IsNull())
	biff.AssertEqual(r.Get("c").Interface(), "abc")
	biff.AssertEqual(r.Get("d").Interface(), "0x10")
	biff.AssertEqual(r.Get("e").Interface(), "NaN")
	biff.AssertEqual(r.Get("f").Interface(), float64(-2000))
}

func TestParse_CanonicalHeader(t *testing.T) {

	d, err := ParseString(" Make ,MODEL,Year\nFord,Focus,2010\n")
	biff.AssertNil(err)

	biff.AssertEqual(d.Schema.Fields(), []string{"make", "model", "year"})
	biff.AssertEqual(d.Records[0].Get("Make").String(), "Ford")
	biff.AssertEqual(d.Records[0].Make(), "Ford")
}

func TestParse_MalformedRows(t *testing.T) {

	raw := "make,model,year\n\nFord,Focus,2010\nFord,Fiesta\nHonda,Civic,2015,extra\nHonda,Jazz,2011\n"

	d, err := ParseString(raw)
	biff.AssertNil(err)

	biff.AssertEqual(d.Len(), 2)
	biff.AssertEqual(len(d.Problems), 2)

	p := d.Problems[0]
	biff.AssertTrue(errors.Is(p, ErrMalformedRow))
	biff.AssertEqual(p.Line, 4)
	biff.AssertEqual(p.Expected, 3)
	biff.AssertEqual(p.Actual, 2)

	biff.AssertEqual(d.Problems[1].Line, 5)
	biff.AssertEqual(d.Problems[1].Actual, 4)
}

func TestParse_DuplicateHeader(t *testing.T) {

	d, err := ParseString("make,Make,model\nFord,Ignored,Focus\n")
	biff.AssertNil(err)

	biff.AssertEqual(d.Schema.Fields(), []string{"make", "model"})
	biff.AssertEqual(d.Records[0].Make(), "Ford")
	biff.AssertEqual(d.Records[0].Model(), "Focus")
	biff.AssertEqual(len(d.Problems), 1)
	biff.AssertTrue(errors.Is(d.Problems[0], ErrMalformedHeader))
}

func TestParse_Empty(t *testing.T) {

	_, err := ParseString("\n\n")
	biff.AssertTrue(errors.Is(err, ErrEmptyDataset))
}

func TestSchema_Columns(t *testing.T) {

	s := NewSchema("mpg", "year", "id", "model", "make", "co2")
	biff.AssertEqual(s.Columns(), []string{"make", "model", "year", "mpg", "id", "co2"})

	s = NewSchema("mpg", "co2")
	biff.AssertEqual(s.Columns(), []string{"mpg", "co2"})
}

func TestExport_RoundTrip(t *testing.T) {

	raw := "make,model,year,mpg,note\n" +
		"Ford,Focus,2010,30,\"comma, inside\"\n" +
		"Ford,\"Fiesta \"\"ST\"\"\",2012,,\"multi\nline\"\n" +
		"Honda,Civic,2015,32.5,plain\n"

	d, err := ParseString(raw)
	biff.AssertNil(err)
	biff.AssertEqual(d.Len(), 3)

	exported, err := ExportString(d.Schema, d.Records)
	biff.AssertNil(err)

	again, err := ParseString(exported)
	biff.AssertNil(err)

	biff.AssertEqual(again.Schema.Fields(), d.Schema.Fields())
	biff.AssertEqual(again.Len(), d.Len())
	for i := range d.Records {
		if !again.Records[i].Equal(d.Records[i]) {
			t.Fatalf("record %d differs after round trip: %v != %v", i, again.Records[i].Map(), d.Records[i].Map())
		}
	}
	biff.AssertTrue(again.Records[1].Get("mpg").IsNull())
	biff.AssertEqual(again.Records[1].Model(), `Fiesta "ST"`)
}

func TestExport_RoundTripSingleColumnNull(t *testing.T) {

	schema := NewSchema("make")
	records := []Record{
		NewRecord(schema, TextValue("Ford")),
		NewRecord(schema, NullValue()),
		NewRecord(schema, TextValue("Honda")),
	}

	exported, err := ExportString(schema, records)
	biff.AssertNil(err)
	biff.AssertEqual(exported, "make\nFord\n\"\"\nHonda\n")

	again, err := ParseString(exported)
	biff.AssertNil(err)
	biff.AssertEqual(len(again.Problems), 0)
	biff.AssertEqual(again.Len(), 3)
	for i := range records {
		if !again.Records[i].Equal(records[i]) {
			t.Fatalf("record %d differs after round trip: %v != %v", i, again.Records[i].Map(), records[i].Map())
		}
	}
}

func TestParse_BlankLinesSkipped(t *testing.T) {

	d, err := ParseString("make,model\n\nFord,Focus\n   \nHonda,Civic\n")
	biff.AssertNil(err)
	biff.AssertEqual(d.Len(), 2)
	biff.AssertEqual(len(d.Problems), 0)
}

func TestParse_UnbalancedQuoteKeepsFollowingRows(t *testing.T) {

	d, err := ParseString("make,model,year\n" +
		"Ford,\"Focus,2010\n" +
		"Ford,Fiesta,2012\n" +
		"Honda,Civic,2015\n")
	biff.AssertNil(err)

	biff.AssertEqual(d.Len(), 2)
	biff.AssertEqual(d.Records[0].Model(), "Fiesta")
	biff.AssertEqual(d.Records[1].Model(), "Civic")

	biff.AssertEqual(len(d.Problems), 1)
	biff.AssertEqual(d.Problems[0].Line, 2)
	biff.AssertTrue(errors.Is(d.Problems[0], ErrMalformedRow))
	biff.AssertEqual(d.Problems[0].Expected, 3)
	biff.AssertEqual(d.Problems[0].Actual, 2)
}

func TestParse_UnbalancedQuoteEveryLineReported(t *testing.T) {

	d, err := ParseString("make,model,year\n" +
		"Ford,\"Focus,2010\n" +
		"Ford,Ka\n" +
		"\n" +
		"Honda,Civic,2015\n")
	biff.AssertNil(err)

	biff.AssertEqual(d.Len(), 1)
	biff.AssertEqual(d.Records[0].Model(), "Civic")

	lines := []int{}
	for _, problem := range d.Problems {
		lines = append(lines, problem.Line)
	}
	biff.AssertEqual(lines, []int{2, 3})
}

func TestExport_Empty(t *testing.T) {

	out, err := ExportString(NewSchema("make", "model"), nil)
	biff.AssertNil(err)
	biff.AssertEqual(out, "make,model\n")
}

func TestRecord_MarshalJSON(t *testing.T) {

	d, _ := ParseString(sample)

	b, err := d.Records[0].MarshalJSON()
	biff.AssertNil(err)
	biff.AssertEqual(string(b), `{"make":"Ford","model":"Focus","year":2010,"mpg":30}`)
}

func TestSortIndex(t *testing.T) {

	d, _ := ParseString("make,mpg\nb,30\na,\nC,10\nd,30\ne,x\n")

	positions := func(direction Direction, field string) []int {
		result := []int{}
		d.SortIndex(field, direction).Traverse(func(pos int) bool {
			result = append(result, pos)
			return true
		})
		return result
	}

	// numbers before text, nulls last, ties keep dataset order
	biff.AssertEqual(positions(Ascending, "mpg"), []int{2, 0, 3, 4, 1})
	biff.AssertEqual(positions(Descending, "mpg"), []int{4, 0, 3, 2, 1})

	// case insensitive text
	biff.AssertEqual(positions(Ascending, "make"), []int{1, 0, 2, 3, 4})

	// memoized
	biff.AssertTrue(d.SortIndex("mpg", Ascending) == d.SortIndex("MPG", Ascending))
}

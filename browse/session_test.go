package browse

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/query"
)

func newDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	lines := []string{"make,model,year,mpg"}
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf("Ford,Model%02d,%d,%d", i, 2000+i, 20+i))
	}
	lines = append(lines, "Honda,Civic,2015,32", "Honda,Jazz,2012,40")
	d, err := dataset.ParseString(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func newSession(t *testing.T, d *dataset.Dataset) *Session {
	current := atomic.Pointer[dataset.Dataset]{}
	current.Store(d)
	s := New(query.NewEngine(16), current.Load, Options{
		Initial: 10,
		Batch:   5,
		Quiet:   20 * time.Millisecond,
	})
	t.Cleanup(s.Close)
	return s
}

func TestSession_Window(t *testing.T) {

	s := newSession(t, newDataset(t))

	page, err := s.Render()
	biff.AssertNil(err)
	biff.AssertEqual(page.Total, 27)
	biff.AssertEqual(page.Visible, 10)
	biff.AssertEqual(len(page.Rows), 10)
	biff.AssertTrue(page.HasMore)

	page, _ = s.Advance()
	biff.AssertEqual(page.Visible, 15)
	page, _ = s.Advance()
	page, _ = s.Advance()
	page, _ = s.Advance()
	biff.AssertEqual(page.Visible, 27)
	biff.AssertEqual(page.HasMore, false)

	page, _ = s.Advance()
	biff.AssertEqual(page.Visible, 27)

	// a facet change resets the window
	s.SetMake("Ford")
	page, _ = s.Render()
	biff.AssertEqual(page.Total, 25)
	biff.AssertEqual(page.Visible, 10)
	biff.AssertEqual(page.Options.Models[0], "Model00")

	// sorting keeps it
	page, _ = s.Advance()
	biff.AssertEqual(page.Visible, 15)
	s.SetSort(&query.Sort{Field: "mpg", Direction: dataset.Descending})
	page, _ = s.Render()
	biff.AssertEqual(page.Visible, 15)
	biff.AssertEqual(page.Rows[0].Model(), "Model24")
}

func TestSession_DebouncedSearch(t *testing.T) {

	s := newSession(t, newDataset(t))

	var changes int32
	s.OnChange(func() {
		atomic.AddInt32(&changes, 1)
	})

	s.Advance()
	page, _ := s.Render()
	biff.AssertEqual(page.Visible, 15)

	for _, text := range []string{"h", "ho", "hon", "hond"} {
		s.Type(text)
		time.Sleep(2 * time.Millisecond)
	}

	// nothing applied yet
	input, active := s.Search()
	biff.AssertEqual(input, "hond")
	biff.AssertEqual(active, "")

	time.Sleep(100 * time.Millisecond)

	input, active = s.Search()
	biff.AssertEqual(active, "hond")
	biff.AssertEqual(atomic.LoadInt32(&changes), int32(1))

	page, _ = s.Render()
	biff.AssertEqual(page.Total, 2)
	biff.AssertEqual(page.Visible, 2)
	biff.AssertEqual(page.Search, "hond")
}

func TestSession_SearchResetsWindow(t *testing.T) {

	s := newSession(t, newDataset(t))

	s.Advance()
	page, _ := s.Advance()
	biff.AssertEqual(page.Visible, 20)

	// still more matches than the initial batch
	s.Type("ford")
	time.Sleep(100 * time.Millisecond)

	_, active := s.Search()
	biff.AssertEqual(active, "ford")

	page, err := s.Render()
	biff.AssertNil(err)
	biff.AssertEqual(page.Total, 25)
	biff.AssertEqual(page.Visible, 10)
	biff.AssertTrue(page.HasMore)

	page, _ = s.Advance()
	biff.AssertEqual(page.Visible, 15)
}

func TestSession_FuelResetsWindow(t *testing.T) {

	d, err := dataset.ParseString("make,model,year,fuel\n" +
		"Ford,A,2010,Regular\nFord,B,2011,Regular\nFord,C,2012,Regular\n" +
		"Kia,D,2013,Diesel\nKia,E,2014,Regular\n")
	biff.AssertNil(err)

	current := atomic.Pointer[dataset.Dataset]{}
	current.Store(d)
	s := New(query.NewEngine(4), current.Load, Options{Initial: 2, Batch: 2})
	defer s.Close()

	page, _ := s.Advance()
	biff.AssertEqual(page.Visible, 4)
	biff.AssertEqual(page.Options.Fuels, []string{"Diesel", "Regular"})

	s.SetFuel("Regular")
	page, _ = s.Render()
	biff.AssertEqual(page.Total, 4)
	biff.AssertEqual(page.Visible, 2)
}

func TestSession_Flush(t *testing.T) {

	s := newSession(t, newDataset(t))

	s.Type("jazz")
	s.Flush()

	_, active := s.Search()
	biff.AssertEqual(active, "jazz")

	page, err := s.Render()
	biff.AssertNil(err)
	biff.AssertEqual(page.Total, 1)
	biff.AssertEqual(page.Rows[0].Model(), "Jazz")
}

func TestSession_WithoutDataset(t *testing.T) {

	s := New(query.NewEngine(1), func() *dataset.Dataset { return nil }, Options{})
	defer s.Close()

	_, err := s.Render()
	biff.AssertEqual(err, ErrNoDataset)
}

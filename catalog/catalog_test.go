package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/fulldump/mpgfinder/browse"
	"github.com/fulldump/mpgfinder/buildcache"
	"github.com/fulldump/mpgfinder/slug"
)

const vehiclesCSV = `make,model,year,fuelType1,city08,highway08,comb08,co2
Ford,Focus,2010,Regular Gasoline,24,33,28,317
Honda,Civic,2015,Regular Gasoline,30,39,33,269
Tesla,Model 3,2020,Electricity,138,124,131,0
Tesla,Model 3,2020,Electricity,141,127,134,0
`

func newCatalog(t *testing.T, config *Config) *Catalog {
	if config.SiteURL == "" {
		config.SiteURL = "https://mpg.example.com/"
	}
	config.Logger = log.New(io.Discard, "", 0)
	c := New(config)
	t.Cleanup(func() {
		c.Stop()
	})
	return c
}

func TestCatalog_Page(t *testing.T) {

	c := newCatalog(t, &Config{})
	biff.AssertEqual(c.GetStatus(), StatusOpening)

	_, err := c.Page(context.Background(), "ford-focus-2010")
	biff.AssertEqual(err, ErrNotLoaded)

	_, err = c.Reload([]byte(vehiclesCSV))
	biff.AssertNil(err)
	biff.AssertEqual(c.GetStatus(), StatusOperating)

	biff.Alternative("Found", func(a *biff.A) {
		r, err := c.Page(context.Background(), "ford-focus-2010")
		biff.AssertNil(err)
		biff.AssertEqual(r.State, buildcache.Fresh)

		page := r.Value
		biff.AssertEqual(page.Status, slug.Found)
		biff.AssertEqual(page.Title, "Ford Focus (2010) – MPG, CO₂ & Specs")
		biff.AssertEqual(page.URL, "https://mpg.example.com/cars/ford-focus-2010")
		biff.AssertEqual(page.Vehicle.Get("comb08").String(), "28")

		jsonLD := map[string]interface{}{}
		biff.AssertNil(json.Unmarshal(page.JSONLD, &jsonLD))
		biff.AssertEqual(jsonLD["@type"], "Product")
		biff.AssertEqual(jsonLD["name"], "Ford Focus (2010)")
		biff.AssertEqualJson(jsonLD["brand"], map[string]interface{}{"@type": "Brand", "name": "Ford"})
		biff.AssertEqualJson(jsonLD["additionalProperty"], []interface{}{
			map[string]interface{}{"@type": "PropertyValue", "name": "Year", "value": 2010},
			map[string]interface{}{"@type": "PropertyValue", "name": "Fuel Type", "value": "Regular Gasoline"},
			map[string]interface{}{"@type": "PropertyValue", "name": "City MPG", "value": 24},
			map[string]interface{}{"@type": "PropertyValue", "name": "Highway MPG", "value": 33},
			map[string]interface{}{"@type": "PropertyValue", "name": "Combined MPG", "value": 28},
			map[string]interface{}{"@type": "PropertyValue", "name": "CO₂ (g/mi)", "value": 317},
			map[string]interface{}{"@type": "PropertyValue", "name": "Range (miles)", "value": "N/A"},
		})

		again, err := c.Page(context.Background(), "ford-focus-2010")
		biff.AssertNil(err)
		biff.AssertTrue(again.Value == page)
		biff.AssertEqual(c.Pages().Builds(), int64(1))
	})

	biff.Alternative("Not found", func(a *biff.A) {
		r, err := c.Page(context.Background(), "ford-mustang-1965")
		biff.AssertNil(err)
		biff.AssertEqual(r.Value.Status, slug.NotFound)
		biff.AssertNil(r.Value.Vehicle)
		biff.AssertTrue(r.StaleAfter.Sub(r.BuiltAt) == DefaultNotFoundTTL)
	})

	biff.Alternative("Ambiguous", func(a *biff.A) {
		r, err := c.Page(context.Background(), "tesla-model-3-2020")
		biff.AssertNil(err)
		biff.AssertEqual(r.Value.Status, slug.Ambiguous)
		biff.AssertEqual(r.Value.Matches, 2)
	})
}

func TestCatalog_ReloadInvalidates(t *testing.T) {

	c := newCatalog(t, &Config{})
	first, err := c.Reload([]byte(vehiclesCSV))
	biff.AssertNil(err)

	r, err := c.Page(context.Background(), "honda-civic-2015")
	biff.AssertNil(err)
	biff.AssertEqual(r.Value.DatasetID, first.ID)
	biff.AssertEqual(c.Pages().Peek("honda-civic-2015"), buildcache.Fresh)

	second, err := c.Reload([]byte("make,model,year\nHonda,Civic,2015\n"))
	biff.AssertNil(err)
	biff.AssertEqual(c.Pages().Peek("honda-civic-2015"), buildcache.Absent)
	biff.AssertEqual(c.Engine.Len(), 0)

	r, err = c.Page(context.Background(), "honda-civic-2015")
	biff.AssertNil(err)
	biff.AssertEqual(r.Value.DatasetID, second.ID)
}

func TestCatalog_ReloadRejectsEmpty(t *testing.T) {

	c := newCatalog(t, &Config{})
	first, err := c.Reload([]byte(vehiclesCSV))
	biff.AssertNil(err)

	_, err = c.Reload([]byte("\n\n"))
	biff.AssertNotNil(err)
	biff.AssertTrue(c.Dataset() == first)
}

func TestCatalog_Sitemap(t *testing.T) {

	c := newCatalog(t, &Config{})
	_, err := c.Sitemap()
	biff.AssertEqual(err, ErrNotLoaded)

	_, err = c.Reload([]byte(vehiclesCSV))
	biff.AssertNil(err)

	sitemap, err := c.Sitemap()
	biff.AssertNil(err)
	biff.AssertEqual(sitemap.Type, "ItemList")
	biff.AssertEqualJson(sitemap.Items, []SitemapItem{
		{Type: "ListItem", Position: 1, URL: "https://mpg.example.com/cars/ford-focus-2010", Name: "Ford Focus (2010)"},
		{Type: "ListItem", Position: 2, URL: "https://mpg.example.com/cars/honda-civic-2015", Name: "Honda Civic (2015)"},
	})
}

func TestCatalog_WatchReloads(t *testing.T) {

	filename := filepath.Join(t.TempDir(), "vehicles.csv")
	err := os.WriteFile(filename, []byte(vehiclesCSV), 0644)
	biff.AssertNil(err)

	c := newCatalog(t, &Config{File: filename, Watch: true})
	go c.Start()

	waitFor(t, func() bool {
		return c.Dataset() != nil
	})
	first := c.Dataset()
	biff.AssertEqual(first.Len(), 4)

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	err = os.WriteFile(filename, []byte("make,model,year\nFord,Focus,2010\n"), 0644)
	biff.AssertNil(err)

	waitFor(t, func() bool {
		d := c.Dataset()
		return d != first && d.Len() == 1
	})
}

func waitFor(t *testing.T, condition func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCatalog_SessionFollowsReload(t *testing.T) {

	c := newCatalog(t, &Config{})
	_, err := c.Reload([]byte(vehiclesCSV))
	biff.AssertNil(err)

	session := c.NewSession(browse.Options{Initial: 2, Batch: 1})
	defer session.Close()

	page, err := session.Render()
	biff.AssertNil(err)
	biff.AssertEqual(page.Total, 4)
	biff.AssertEqual(page.Visible, 2)

	page, err = session.Advance()
	biff.AssertNil(err)
	biff.AssertEqual(page.Visible, 3)

	_, err = c.Reload([]byte("make,model,year\nFord,Focus,2010\nFord,Puma,2020\nKia,Rio,2018\n"))
	biff.AssertNil(err)

	// a new dataset resets the window
	page, err = session.Render()
	biff.AssertNil(err)
	biff.AssertEqual(page.Total, 3)
	biff.AssertEqual(page.Visible, 2)
	biff.AssertEqual(page.Options.Makes, []string{"Ford", "Kia"})
}

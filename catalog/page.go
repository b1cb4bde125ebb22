package catalog

import (
	"fmt"
	"net/url"
	"strings"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/slug"
)

// Page is the artifact built for one vehicle slug.
type Page struct {
	Slug        string          `json:"slug"`
	Status      slug.Status     `json:"status"`
	DatasetID   string          `json:"dataset_id"`
	Vehicle     *dataset.Record `json:"vehicle,omitempty"`
	Matches     int             `json:"matches,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	URL         string          `json:"url,omitempty"`
	JSONLD      jsontext.Value  `json:"json_ld,omitempty"`
}

type property struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// propertyFields lists the display properties and the fields they may come
// from, first non empty wins.
var propertyFields = []struct {
	Name   string
	Fields []string
}{
	{"Year", []string{"year"}},
	{"Fuel Type", []string{"fueltype1", "fuel"}},
	{"City MPG", []string{"city08"}},
	{"Highway MPG", []string{"highway08"}},
	{"Combined MPG", []string{"comb08", "mpg"}},
	{"CO₂ (g/mi)", []string{"co2"}},
	{"Range (miles)", []string{"range_miles"}},
}

func firstValue(record dataset.Record, fields []string) any {
	for _, field := range fields {
		v := record.Get(field)
		if !v.IsNull() {
			return v.Interface()
		}
	}
	return "N/A"
}

func vehicleURL(siteURL, s string) string {
	return strings.TrimRight(siteURL, "/") + "/cars/" + url.PathEscape(s)
}

func BuildPage(d *dataset.Dataset, siteURL, target string) (*Page, error) {

	resolution := slug.IndexOf(d).Resolve(target)

	page := &Page{
		Slug:      target,
		Status:    resolution.Status,
		DatasetID: d.ID,
	}
	if resolution.Status != slug.Found {
		page.Matches = len(resolution.Positions)
		return page, nil
	}

	vehicle := resolution.Record
	brand, model, year := vehicle.Make(), vehicle.Model(), vehicle.Year()

	page.Vehicle = &vehicle
	page.Title = fmt.Sprintf("%s %s (%s) – MPG, CO₂ & Specs", brand, model, year)
	page.Description = fmt.Sprintf("Fuel economy, emissions, and performance data for the %s %s %s. Compare MPG, CO₂ emissions, range, and fuel type.", year, brand, model)
	page.URL = vehicleURL(siteURL, target)

	properties := make([]property, 0, len(propertyFields))
	for _, p := range propertyFields {
		properties = append(properties, property{
			Type:  "PropertyValue",
			Name:  p.Name,
			Value: firstValue(vehicle, p.Fields),
		})
	}

	jsonLD := struct {
		Context     string     `json:"@context"`
		Type        string     `json:"@type"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Brand       any        `json:"brand"`
		Category    string     `json:"category"`
		URL         string     `json:"url"`
		MPN         string     `json:"mpn"`
		Properties  []property `json:"additionalProperty"`
	}{
		Context:     "https://schema.org",
		Type:        "Product",
		Name:        fmt.Sprintf("%s %s (%s)", brand, model, year),
		Description: page.Description,
		Brand: map[string]string{
			"@type": "Brand",
			"name":  brand,
		},
		Category:   "Vehicle",
		URL:        page.URL,
		MPN:        target,
		Properties: properties,
	}

	b, err := json2.Marshal(jsonLD, json2.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("encode json-ld: %w", err)
	}
	page.JSONLD = jsontext.Value(b)

	return page, nil
}

type SitemapItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	URL      string `json:"url"`
	Name     string `json:"name"`
}

type Sitemap struct {
	Context string        `json:"@context"`
	Type    string        `json:"@type"`
	Items   []SitemapItem `json:"itemListElement"`
}

// BuildSitemap lists the page of every record with an unambiguous slug.
func BuildSitemap(d *dataset.Dataset, siteURL string) *Sitemap {

	index := slug.IndexOf(d)
	sitemap := &Sitemap{
		Context: "https://schema.org",
		Type:    "ItemList",
		Items:   []SitemapItem{},
	}
	for i, s := range index.Slugs() {
		record := index.Resolve(s).Record
		sitemap.Items = append(sitemap.Items, SitemapItem{
			Type:     "ListItem",
			Position: i + 1,
			URL:      vehicleURL(siteURL, s),
			Name:     fmt.Sprintf("%s %s (%s)", record.Make(), record.Model(), record.Year()),
		})
	}
	return sitemap
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fulldump/mpgfinder/buildcache"
	"github.com/fulldump/mpgfinder/catalog"
	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/facet"
	"github.com/fulldump/mpgfinder/query"
	"github.com/fulldump/mpgfinder/slug"
	"github.com/fulldump/mpgfinder/window"
)

type Config struct {
	WindowInitial int
	WindowBatch   int
}

type Service struct {
	catalog *catalog.Catalog
	config  Config
}

func NewService(c *catalog.Catalog, config Config) *Service {
	return &Service{
		catalog: c,
		config:  config,
	}
}

type FindInput struct {
	Make    string                 `json:"make"`
	Model   string                 `json:"model"`
	Year    string                 `json:"year"`
	Fuel    string                 `json:"fuel"`
	Search  string                 `json:"search"`
	Sort    *query.Sort            `json:"sort"`
	Where   map[string]interface{} `json:"where"`
	Window  window.State           `json:"window"`
	Advance bool                   `json:"advance"`
}

func (i *FindInput) Query() query.Query {
	return query.Query{
		Facets: facet.Selection{
			Make:  i.Make,
			Model: i.Model,
			Year:  i.Year,
		},
		Search: i.Search,
		Fuel:   i.Fuel,
		Sort:   i.Sort,
		Where:  i.Where,
	}
}

type Options struct {
	Makes  []string `json:"makes"`
	Models []string `json:"models"`
	Years  []string `json:"years"`
	Fuels  []string `json:"fuels"`
}

type FindOutput struct {
	Total   int              `json:"total"`
	Visible int              `json:"visible"`
	HasMore bool             `json:"has_more"`
	Window  window.State     `json:"window"`
	Rows    []dataset.Record `json:"rows"`
	Options Options          `json:"options"`
	Unknown []string         `json:"unknown"`
	Columns []string         `json:"columns"`
}

type CacheOutput struct {
	State      buildcache.State `json:"state"`
	BuiltAt    time.Time        `json:"built_at"`
	StaleAfter time.Time        `json:"stale_after"`
}

type VehicleOutput struct {
	*catalog.Page
	Cache CacheOutput `json:"cache"`
}

type DatasetOutput struct {
	ID       string              `json:"id"`
	LoadedAt time.Time           `json:"loaded_at"`
	Total    int                 `json:"total"`
	Fields   []string            `json:"fields"`
	Columns  []string            `json:"columns"`
	Problems []*dataset.RowError `json:"problems"`
}

func (s *Service) current() (*dataset.Dataset, error) {
	d := s.catalog.Dataset()
	if d == nil {
		return nil, ErrDatasetNotLoaded
	}
	return d, nil
}

// Find runs a query and cuts the result with the window carried by the
// caller. The window resets whenever the filter changes.
func (s *Service) Find(input *FindInput) (*FindOutput, error) {

	d, err := s.current()
	if err != nil {
		return nil, err
	}

	q := input.Query()
	view, err := s.catalog.Engine.Run(d, q)
	if err != nil {
		return nil, err
	}

	w := window.Restore(s.config.WindowInitial, s.config.WindowBatch, input.Window)
	w.Sync(d.ID + query.Fingerprint(q))

	total := view.Len()
	if input.Advance {
		w.Advance(total)
	}
	visible := w.Visible(total)

	return &FindOutput{
		Total:   total,
		Visible: visible,
		HasMore: visible < total,
		Window:  w.State(),
		Rows:    window.Slice(view.Records, visible),
		Options: Options{
			Makes:  view.Facets.Makes,
			Models: view.Facets.Models,
			Years:  view.Facets.Years,
			Fuels:  view.Facets.Fuels,
		},
		Unknown: view.Facets.Unknown,
		Columns: d.Schema.Columns(),
	}, nil
}

// Export writes every record matching input as CSV, ignoring the window.
func (s *Service) Export(w io.Writer, input *FindInput) error {

	d, err := s.current()
	if err != nil {
		return err
	}

	view, err := s.catalog.Engine.Run(d, input.Query())
	if err != nil {
		return err
	}

	return dataset.Export(w, d.Schema, view.Records)
}

func (s *Service) GetVehicle(ctx context.Context, target string) (*VehicleOutput, error) {

	r, err := s.catalog.Page(ctx, target)
	if errors.Is(err, catalog.ErrNotLoaded) {
		return nil, ErrDatasetNotLoaded
	}
	if err != nil {
		return nil, err
	}

	output := &VehicleOutput{
		Page: r.Value,
		Cache: CacheOutput{
			State:      r.State,
			BuiltAt:    r.BuiltAt,
			StaleAfter: r.StaleAfter,
		},
	}

	switch r.Value.Status {
	case slug.NotFound:
		return output, fmt.Errorf("%w: '%s'", slug.ErrSlugNotFound, target)
	case slug.Ambiguous:
		return output, fmt.Errorf("%w: '%s' matches %d vehicles", slug.ErrSlugAmbiguous, target, r.Value.Matches)
	}

	return output, nil
}

func (s *Service) GetDataset() (*DatasetOutput, error) {
	d, err := s.current()
	if err != nil {
		return nil, err
	}
	return summary(d), nil
}

func (s *Service) ReloadDataset(raw []byte) (*DatasetOutput, error) {
	d, err := s.catalog.Reload(raw)
	if err != nil {
		return nil, err
	}
	return summary(d), nil
}

func (s *Service) Sitemap() (*catalog.Sitemap, error) {
	sitemap, err := s.catalog.Sitemap()
	if errors.Is(err, catalog.ErrNotLoaded) {
		return nil, ErrDatasetNotLoaded
	}
	return sitemap, err
}

func summary(d *dataset.Dataset) *DatasetOutput {
	return &DatasetOutput{
		ID:       d.ID,
		LoadedAt: d.LoadedAt,
		Total:    d.Len(),
		Fields:   d.Schema.Fields(),
		Columns:  d.Schema.Columns(),
		Problems: d.Problems,
	}
}

// Package browse keeps the per-viewer browsing state (facets, search box,
// window) outside the engine and feeds it to the pure query functions.
package browse

import (
	"errors"
	"sync"
	"time"

	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/facet"
	"github.com/fulldump/mpgfinder/query"
	"github.com/fulldump/mpgfinder/window"
)

const DefaultQuiet = 300 * time.Millisecond

var ErrNoDataset = errors.New("no dataset loaded")

type Options struct {
	Initial int
	Batch   int
	Quiet   time.Duration
}

type Page struct {
	Total   int              `json:"total"`
	Visible int              `json:"visible"`
	HasMore bool             `json:"has_more"`
	Rows    []dataset.Record `json:"rows"`
	Options facet.Result     `json:"options"`
	Search  string           `json:"search"`
}

type Session struct {
	engine *query.Engine
	source func() *dataset.Dataset

	mutex     sync.Mutex
	facets    facet.Selection
	fuel      string
	input     string
	active    string
	sort      *query.Sort
	window    *window.Window
	debouncer *Debouncer
	onChange  func()
}

// New creates a session reading the current dataset from source on every
// render, so a reload is picked up without recreating sessions.
func New(engine *query.Engine, source func() *dataset.Dataset, options Options) *Session {
	if options.Quiet <= 0 {
		options.Quiet = DefaultQuiet
	}
	return &Session{
		engine:    engine,
		source:    source,
		window:    window.New(options.Initial, options.Batch),
		debouncer: NewDebouncer(options.Quiet),
	}
}

// OnChange registers a callback run after a debounced search is applied.
func (s *Session) OnChange(f func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onChange = f
}

func (s *Session) SetMake(value string) {
	s.setFacets(func(f *facet.Selection) { f.Make = value })
}

func (s *Session) SetModel(value string) {
	s.setFacets(func(f *facet.Selection) { f.Model = value })
}

func (s *Session) SetYear(value string) {
	s.setFacets(func(f *facet.Selection) { f.Year = value })
}

func (s *Session) SetFuel(value string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fuel = value
	s.syncWindow()
}

func (s *Session) setFacets(change func(f *facet.Selection)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	change(&s.facets)
	s.syncWindow()
}

func (s *Session) Facets() facet.Selection {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.facets
}

// SetSort changes the order only; the window is kept.
func (s *Session) SetSort(sort *query.Sort) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sort = sort
}

// Type records the search box text. It becomes the active search only after
// the quiet period passes without another keystroke.
func (s *Session) Type(text string) {
	s.mutex.Lock()
	s.input = text
	s.mutex.Unlock()

	s.debouncer.Debounce(func() {
		s.apply(text)
	})
}

// Flush applies the pending search box text right away.
func (s *Session) Flush() {
	s.debouncer.Cancel()
	s.mutex.Lock()
	text := s.input
	s.mutex.Unlock()
	s.apply(text)
}

func (s *Session) apply(text string) {
	s.mutex.Lock()
	changed := s.active != text
	s.active = text
	if changed {
		s.syncWindow()
	}
	onChange := s.onChange
	s.mutex.Unlock()

	if changed && onChange != nil {
		onChange()
	}
}

// Search returns the search box text and the active search term.
func (s *Session) Search() (input, active string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.input, s.active
}

func (s *Session) query() query.Query {
	return query.Query{
		Facets: s.facets,
		Search: s.active,
		Fuel:   s.fuel,
		Sort:   s.sort,
	}
}

// syncWindow must be called with the mutex held.
func (s *Session) syncWindow() {
	id := ""
	if d := s.source(); d != nil {
		id = d.ID
	}
	s.window.Sync(id + query.Fingerprint(s.query()))
}

// Advance shows one more batch of rows.
func (s *Session) Advance() (*Page, error) {
	return s.render(true)
}

func (s *Session) Render() (*Page, error) {
	return s.render(false)
}

func (s *Session) render(advance bool) (*Page, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	d := s.source()
	if d == nil {
		return nil, ErrNoDataset
	}

	s.syncWindow()

	view, err := s.engine.Run(d, s.query())
	if err != nil {
		return nil, err
	}

	total := view.Len()
	if advance {
		s.window.Advance(total)
	}
	visible := s.window.Visible(total)

	return &Page{
		Total:   total,
		Visible: visible,
		HasMore: visible < total,
		Rows:    window.Slice(view.Records, visible),
		Options: view.Facets,
		Search:  s.active,
	}, nil
}

// Close cancels a pending search.
func (s *Session) Close() {
	s.debouncer.Cancel()
}

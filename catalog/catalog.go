package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fulldump/mpgfinder/browse"
	"github.com/fulldump/mpgfinder/buildcache"
	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/query"
	"github.com/fulldump/mpgfinder/slug"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const (
	DefaultNotFoundTTL = 10 * time.Second
	reloadQuiet        = 100 * time.Millisecond
)

var ErrNotLoaded = errors.New("dataset not loaded")

type Config struct {
	File          string
	SiteURL       string
	CacheTTL      time.Duration
	NotFoundTTL   time.Duration
	CacheCapacity int
	MemoSize      int
	Watch         bool
	Logger        *log.Logger
}

// Catalog owns the current dataset and everything derived from it: the query
// memo and the page cache. Replacing the dataset invalidates both.
type Catalog struct {
	config  *Config
	logger  *log.Logger
	status  atomic.Value
	current atomic.Pointer[dataset.Dataset]

	Engine *query.Engine
	pages  *buildcache.Cache[*Page]

	reloadMutex sync.Mutex
	exit        chan struct{}
	stopOnce    sync.Once
}

func New(config *Config) *Catalog {

	if config.CacheTTL <= 0 {
		config.CacheTTL = buildcache.DefaultTTL
	}
	if config.NotFoundTTL <= 0 {
		config.NotFoundTTL = DefaultNotFoundTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Catalog{
		config: config,
		logger: logger,
		Engine: query.NewEngine(config.MemoSize),
		exit:   make(chan struct{}),
	}
	c.status.Store(StatusOpening)

	c.pages = buildcache.New(c.buildPage, buildcache.Options[*Page]{
		TTL:      c.pageTTL,
		Capacity: config.CacheCapacity,
		Logger:   logger,
	})

	return c
}

func (c *Catalog) GetStatus() string {
	return c.status.Load().(string)
}

// Dataset returns the current dataset or nil before the first load.
func (c *Catalog) Dataset() *dataset.Dataset {
	return c.current.Load()
}

// NewSession starts a browsing session that always reads the current dataset.
func (c *Catalog) NewSession(options browse.Options) *browse.Session {
	return browse.New(c.Engine, c.Dataset, options)
}

func (c *Catalog) Pages() *buildcache.Cache[*Page] {
	return c.pages
}

// Load reads the configured file and makes it the current dataset.
func (c *Catalog) Load() error {

	if c.config.File == "" {
		return fmt.Errorf("load: no data file configured")
	}

	c.logger.Printf("Loading dataset %s...\n", c.config.File)
	t0 := time.Now()
	raw, err := os.ReadFile(c.config.File)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	d, err := c.Reload(raw)
	if err != nil {
		return fmt.Errorf("load '%s': %w", c.config.File, err)
	}
	c.logger.Println(c.config.File, d.Len(), "records", len(d.Problems), "problems", time.Since(t0))

	return nil
}

// Reload parses raw and swaps it in as the current dataset. On error the
// current dataset stays in place.
func (c *Catalog) Reload(raw []byte) (*dataset.Dataset, error) {

	d, err := dataset.Parse(raw)
	if err != nil {
		return nil, err
	}

	c.reloadMutex.Lock()
	defer c.reloadMutex.Unlock()

	// pages built from the old dataset must not outlive the swap
	c.pages.InvalidateAfter(func() {
		c.current.Store(d)
	})
	c.Engine.Purge()

	for _, problem := range d.Problems {
		c.logger.Printf("WARNING: dataset %s: %s\n", d.ID, problem.Error())
	}
	for _, s := range slug.IndexOf(d).Collisions() {
		c.logger.Printf("WARNING: dataset %s: ambiguous slug '%s'\n", d.ID, s)
	}

	c.status.CompareAndSwap(StatusOpening, StatusOperating)

	return d, nil
}

// Page returns the page artifact for a vehicle slug through the page cache.
func (c *Catalog) Page(ctx context.Context, target string) (buildcache.Result[*Page], error) {
	if c.Dataset() == nil {
		return buildcache.Result[*Page]{}, ErrNotLoaded
	}
	return c.pages.Get(ctx, target)
}

func (c *Catalog) buildPage(ctx context.Context, target string) (*Page, error) {
	d := c.Dataset()
	if d == nil {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildPage(d, c.config.SiteURL, target)
}

func (c *Catalog) pageTTL(page *Page) time.Duration {
	if page.Status == slug.Found {
		return c.config.CacheTTL
	}
	return c.config.NotFoundTTL
}

func (c *Catalog) Sitemap() (*Sitemap, error) {
	d := c.Dataset()
	if d == nil {
		return nil, ErrNotLoaded
	}
	return d.Memo("sitemap:"+c.config.SiteURL, func() interface{} {
		return BuildSitemap(d, c.config.SiteURL)
	}).(*Sitemap), nil
}

// Start loads the data file and, when configured, reloads it on every change
// until Stop is called.
func (c *Catalog) Start() error {

	if c.config.File != "" {
		err := c.Load()
		if err != nil {
			c.status.Store(StatusClosing)
			return err
		}
	}

	if !c.config.Watch || c.config.File == "" {
		<-c.exit
		return nil
	}

	return c.watch()
}

func (c *Catalog) watch() error {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// editors replace files on save, so watch the directory
	filename := filepath.Clean(c.config.File)
	err = watcher.Add(filepath.Dir(filename))
	if err != nil {
		return fmt.Errorf("watch '%s': %w", filename, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-c.exit:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadQuiet, func() {
				err := c.Load()
				if err != nil {
					c.logger.Printf("ERROR: reload: %s\n", err.Error())
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Printf("ERROR: watch: %s\n", err.Error())
		}
	}
}

func (c *Catalog) Stop() error {
	c.stopOnce.Do(func() {
		c.status.Store(StatusClosing)
		close(c.exit)
	})
	c.pages.Wait()
	return nil
}

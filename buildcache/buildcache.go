// Package buildcache memoizes expensive per-key builds with
// stale-while-revalidate semantics. Concurrent misses on the same key share a
// single build.
package buildcache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultCapacity = 4096
)

var ErrBuildFailure = errors.New("build failure")

type State string

const (
	Absent   State = "absent"
	Building State = "building"
	Fresh    State = "fresh"
	Stale    State = "stale"
)

type BuildFunc[V any] func(ctx context.Context, key string) (V, error)

type Options[V any] struct {
	// TTL decides how long a built value stays fresh. Defaults to DefaultTTL.
	TTL      func(value V) time.Duration
	Capacity int
	Now      func() time.Time
	Logger   *log.Logger
}

// Entry is replaced wholesale on every rebuild, never mutated.
type Entry[V any] struct {
	Value      V
	BuiltAt    time.Time
	StaleAfter time.Time
}

type Result[V any] struct {
	Value      V
	State      State
	BuiltAt    time.Time
	StaleAfter time.Time
	// Shared is true when the value came from a build started by another caller.
	Shared bool
}

type BuildError struct {
	Key string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: key '%s': %s", ErrBuildFailure, e.Key, e.Err)
}

func (e *BuildError) Unwrap() []error {
	return []error{ErrBuildFailure, e.Err}
}

type Cache[V any] struct {
	build   BuildFunc[V]
	ttl     func(V) time.Duration
	now     func() time.Time
	logger  *log.Logger
	entries *lru.Cache[string, *Entry[V]]
	group   singleflight.Group

	mutex      sync.Mutex
	generation uint64
	inflight   map[string]int

	builds     atomic.Int64
	background sync.WaitGroup
}

func New[V any](build BuildFunc[V], options Options[V]) *Cache[V] {

	if options.TTL == nil {
		options.TTL = func(V) time.Duration { return DefaultTTL }
	}
	if options.Capacity <= 0 {
		options.Capacity = DefaultCapacity
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = log.Default()
	}

	entries, err := lru.New[string, *Entry[V]](options.Capacity)
	if err != nil {
		panic(err) // only fails on non-positive capacity
	}

	return &Cache[V]{
		build:    build,
		ttl:      options.TTL,
		now:      options.Now,
		logger:   options.Logger,
		entries:  entries,
		inflight: map[string]int{},
	}
}

// Get returns the value for key. Fresh entries are returned as is. Stale
// entries are returned immediately while one background rebuild runs. Missing
// entries are built once no matter how many callers ask concurrently.
func (c *Cache[V]) Get(ctx context.Context, key string) (Result[V], error) {

	c.mutex.Lock()
	generation := c.generation
	entry, exists := c.entries.Get(key)
	c.mutex.Unlock()

	if exists {
		r := c.result(entry)
		if r.State == Stale {
			c.refresh(key, generation)
		}
		return r, nil
	}

	v, err, shared := c.group.Do(flightKey(generation, key), func() (interface{}, error) {
		return c.run(context.WithoutCancel(ctx), key, generation)
	})
	if err != nil {
		return Result[V]{}, err
	}

	r := c.result(v.(*Entry[V]))
	r.Shared = shared
	return r, nil
}

func (c *Cache[V]) refresh(key string, generation uint64) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		_, err, _ := c.group.Do(flightKey(generation, key), func() (interface{}, error) {
			return c.run(context.Background(), key, generation)
		})
		if err != nil {
			c.logger.Printf("ERROR: rebuild '%s': %s\n", key, err.Error())
		}
	}()
}

func (c *Cache[V]) run(ctx context.Context, key string, generation uint64) (*Entry[V], error) {

	c.mutex.Lock()
	current, exists := c.entries.Peek(key)
	if exists && c.now().Before(current.StaleAfter) {
		// another flight finished in the meantime
		c.mutex.Unlock()
		return current, nil
	}
	c.inflight[key]++
	c.mutex.Unlock()
	defer func() {
		c.mutex.Lock()
		c.inflight[key]--
		if c.inflight[key] <= 0 {
			delete(c.inflight, key)
		}
		c.mutex.Unlock()
	}()

	c.builds.Add(1)
	value, err := c.build(ctx, key)
	if err != nil {
		c.mutex.Lock()
		previous, exists := c.entries.Peek(key)
		sameGeneration := c.generation == generation
		c.mutex.Unlock()
		if exists && sameGeneration {
			c.logger.Printf("WARNING: build '%s' failed, keeping previous value: %s\n", key, err.Error())
			return previous, nil
		}
		return nil, &BuildError{Key: key, Err: err}
	}

	now := c.now()
	entry := &Entry[V]{
		Value:      value,
		BuiltAt:    now,
		StaleAfter: now.Add(c.ttl(value)),
	}

	c.mutex.Lock()
	if c.generation == generation {
		c.entries.Add(key, entry)
	}
	c.mutex.Unlock()

	return entry, nil
}

func (c *Cache[V]) result(entry *Entry[V]) Result[V] {
	state := Fresh
	if !c.now().Before(entry.StaleAfter) {
		state = Stale
	}
	return Result[V]{
		Value:      entry.Value,
		State:      state,
		BuiltAt:    entry.BuiltAt,
		StaleAfter: entry.StaleAfter,
	}
}

// Peek reports the state of key without building or refreshing it.
func (c *Cache[V]) Peek(key string) State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries.Peek(key)
	if exists {
		if c.now().Before(entry.StaleAfter) {
			return Fresh
		}
		return Stale
	}
	if c.inflight[key] > 0 {
		return Building
	}
	return Absent
}

// Invalidate drops every entry. Builds already running finish but their
// results are discarded.
func (c *Cache[V]) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	c.entries.Purge()
}

// InvalidateAfter runs swap and drops every entry as one step: no Get can see
// the old entries once swap has run, nor build under the old generation after
// it. swap must not call back into the cache.
func (c *Cache[V]) InvalidateAfter(swap func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	swap()
	c.generation++
	c.entries.Purge()
}

func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Builds counts the build function invocations, for observability.
func (c *Cache[V]) Builds() int64 {
	return c.builds.Load()
}

// Wait blocks until every background rebuild started so far has finished.
func (c *Cache[V]) Wait() {
	c.background.Wait()
}

func flightKey(generation uint64, key string) string {
	return strconv.FormatUint(generation, 10) + "/" + key
}

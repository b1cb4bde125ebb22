package dataset

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dataset is one loaded, immutable record set. It is replaced wholesale on
// reload and can be shared across goroutines without locking.
type Dataset struct {
	ID       string
	LoadedAt time.Time
	Schema   *Schema
	Records  []Record
	Problems []*RowError

	memoMutex *sync.Mutex
	memo      map[string]*memoEntry
}

type memoEntry struct {
	once  sync.Once
	value interface{}
}

func New(schema *Schema, records []Record, problems []*RowError) *Dataset {
	if records == nil {
		records = []Record{}
	}
	if problems == nil {
		problems = []*RowError{}
	}
	return &Dataset{
		ID:        uuid.NewString(),
		LoadedAt:  time.Now(),
		Schema:    schema,
		Records:   records,
		Problems:  problems,
		memoMutex: &sync.Mutex{},
		memo:      map[string]*memoEntry{},
	}
}

func (d *Dataset) Len() int {
	return len(d.Records)
}

// Memo computes a derived structure once per dataset and key.
func (d *Dataset) Memo(key string, build func() interface{}) interface{} {
	d.memoMutex.Lock()
	entry, exists := d.memo[key]
	if !exists {
		entry = &memoEntry{}
		d.memo[key] = entry
	}
	d.memoMutex.Unlock()

	entry.once.Do(func() {
		entry.value = build()
	})

	return entry.value
}

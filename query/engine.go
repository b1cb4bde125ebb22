package query

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fulldump/mpgfinder/dataset"
)

const DefaultMemoSize = 256

// Engine memoizes Filter results per dataset and query so that repeated
// renders of the same state do not rescan the dataset.
type Engine struct {
	memo *lru.Cache[string, *View]
}

func NewEngine(size int) *Engine {
	if size <= 0 {
		size = DefaultMemoSize
	}
	memo, err := lru.New[string, *View](size)
	if err != nil {
		panic(err) // only fails on non-positive size
	}
	return &Engine{
		memo: memo,
	}
}

// Run returns the view for q. Views are shared between callers and must be
// treated as read only.
func (e *Engine) Run(d *dataset.Dataset, q Query) (*View, error) {

	key := cacheKey(d.ID, q)
	if view, ok := e.memo.Get(key); ok {
		return view, nil
	}

	view, err := Filter(d, q)
	if err != nil {
		return nil, err
	}
	e.memo.Add(key, view)

	return view, nil
}

// Purge forgets every memoized view, used when the dataset is replaced.
func (e *Engine) Purge() {
	e.memo.Purge()
}

func (e *Engine) Len() int {
	return e.memo.Len()
}

package configuration

import (
	"github.com/fulldump/mpgfinder/buildcache"
	"github.com/fulldump/mpgfinder/catalog"
	"github.com/fulldump/mpgfinder/query"
	"github.com/fulldump/mpgfinder/window"
)

func Default() Configuration {
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		DataFile:          "vehicles.csv",
		SiteURL:           "http://localhost:8080",
		CacheTTL:          buildcache.DefaultTTL,
		NotFoundTTL:       catalog.DefaultNotFoundTTL,
		CacheCapacity:     buildcache.DefaultCapacity,
		QueryMemo:         query.DefaultMemoSize,
		WindowInitial:     window.DefaultInitial,
		WindowBatch:       window.DefaultBatch,
		Watch:             true,
		EnableCompression: true,
		ShowBanner:        true,
	}
}

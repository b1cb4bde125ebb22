package configuration

import (
	"time"
)

type Configuration struct {
	HttpAddr          string        `usage:"HTTP address"`
	DataFile          string        `usage:"vehicles CSV file loaded on start"`
	SiteURL           string        `usage:"public base URL used in page links"`
	CacheTTL          time.Duration `usage:"how long a built vehicle page stays fresh"`
	NotFoundTTL       time.Duration `usage:"how long a missing or ambiguous slug stays cached"`
	CacheCapacity     int           `usage:"max vehicle pages kept in memory"`
	QueryMemo         int           `usage:"max query results memoized"`
	WindowInitial     int           `usage:"rows shown on first render"`
	WindowBatch       int           `usage:"rows added on every advance"`
	Watch             bool          `usage:"reload the data file when it changes"`
	EnableCompression bool          `usage:"gzip responses"`
	Version           bool          `usage:"show version and exit"`
	ShowBanner        bool          `usage:"show big banner"`
	ShowConfig        bool          `usage:"print config"`
}

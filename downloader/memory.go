package downloader

import (
	"context"
	"sync"
	"time"

	"tidbyt.dev/gtfslite/internal/logger"
)

// Caches downloaded files in memory. Expired entries are dropped
// whenever a new one is added, so the cache only grows with the
// number of distinct URLs fetched within a TTL.
type MemoryDownloader struct {
	mutex sync.Mutex
	cache map[string]memoryEntry

	TimeNow func() time.Time
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		cache:   map[string]memoryEntry{},
		TimeNow: time.Now,
	}
}

type memoryEntry struct {
	data       []byte
	expiration time.Time
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	if !options.Cache {
		return HTTPGet(ctx, url, headers, options)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	now := d.TimeNow()
	if entry, ok := d.cache[url]; ok && entry.expiration.After(now) {
		logger.Debug("download cache hit", "url", url)
		return entry.data, nil
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	for u, entry := range d.cache {
		if !entry.expiration.After(now) {
			delete(d.cache, u)
		}
	}
	d.cache[url] = memoryEntry{
		data:       body,
		expiration: now.Add(options.CacheTTL),
	}

	return body, nil
}

// Number of entries currently cached, expired or not.
func (d *MemoryDownloader) Len() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.cache)
}

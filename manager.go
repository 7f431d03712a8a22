package gtfslite

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tidbyt.dev/gtfslite/downloader"
	"tidbyt.dev/gtfslite/internal/logger"
	"tidbyt.dev/gtfslite/parse"
	"tidbyt.dev/gtfslite/storage"
)

const (
	DefaultTimeout = 60 * time.Second
	DefaultMaxSize = 800 << 20 // 800 MB
)

var ErrNoActiveFeed = errors.New("no active feed found")

// Manager loads static GTFS archives into storage and builds Feeds
// from them. Archives are identified by the sha256 of their
// contents, so each distinct archive is parsed only once, however
// many URLs serve it.
type Manager struct {
	Timeout    time.Duration
	MaxSize    int
	Downloader downloader.Downloader

	// Downloads are cached for this long, if positive.
	CacheTTL time.Duration

	storage storage.Storage
}

// Creates a new Manager on top of the given storage. Downloads are
// not cached unless CacheTTL is set.
func NewManager(s storage.Storage) *Manager {
	return &Manager{
		Timeout:    DefaultTimeout,
		MaxSize:    DefaultMaxSize,
		Downloader: downloader.NewMemoryDownloader(),
		storage:    s,
	}
}

// Downloads the archive at url and loads it.
func (m *Manager) LoadFeed(ctx context.Context, url string, headers map[string]string) (*Feed, error) {
	body, err := m.Downloader.Get(ctx, url, headers, downloader.GetOptions{
		Cache:    m.CacheTTL > 0,
		CacheTTL: m.CacheTTL,
		Timeout:  m.Timeout,
		MaxSize:  m.MaxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("downloading feed at %s: %w", url, err)
	}

	return m.load(url, body)
}

// Loads an archive from the local filesystem. The feed is recorded
// in storage under a file:// URL.
func (m *Manager) LoadFile(path string) (*Feed, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	return m.load("file://"+abs, body)
}

// Loads the most recently retrieved feed for url, among those
// already in storage, whose calendar covers the date at time when
// in the feed's timezone.
func (m *Manager) LoadStored(url string, when time.Time) (*Feed, error) {
	feeds, err := m.storage.ListFeeds(storage.ListFeedsFilter{URL: url})
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}

	return m.loadMostRecentActive(feeds, when)
}

// Parses body into storage, unless an archive with the same hash is
// already there, and builds a Feed from it.
func (m *Manager) load(url string, body []byte) (*Feed, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(body))

	feeds, err := m.storage.ListFeeds(storage.ListFeedsFilter{Hash: hash})
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}

	var metadata *storage.FeedMetadata
	for _, feed := range feeds {
		if feed.URL == url {
			metadata = feed
			break
		}
	}

	switch {
	case metadata != nil:
		logger.Debug("feed already in storage", "url", url, "hash", hash)

	case len(feeds) > 0:
		// In storage, but for a different URL. Add a
		// metadata record for this URL.
		copied := *feeds[0]
		copied.URL = url
		copied.RetrievedAt = time.Now().UTC()
		metadata = &copied

		err = m.storage.WriteFeedMetadata(metadata)
		if err != nil {
			return nil, fmt.Errorf("writing metadata: %w", err)
		}
		logger.Debug("feed already in storage under another url", "url", url, "hash", hash)

	default:
		writer, err := m.storage.GetWriter(hash)
		if err != nil {
			return nil, fmt.Errorf("getting writer: %w", err)
		}

		metadata, err = parse.ParseStatic(writer, body)
		if err != nil {
			writer.Close()
			logger.Warn("parsing feed failed", "url", url, "hash", hash, "error", err)
			return nil, fmt.Errorf("parsing: %w", err)
		}

		metadata.Hash = hash
		metadata.URL = url
		metadata.RetrievedAt = time.Now().UTC()

		err = m.storage.WriteFeedMetadata(metadata)
		if err != nil {
			return nil, fmt.Errorf("writing metadata: %w", err)
		}

		logger.Info(
			"parsed feed",
			"url", url,
			"hash", hash,
			"bytes", len(body),
			"calendar_start", metadata.CalendarStartDate,
			"calendar_end", metadata.CalendarEndDate,
		)
	}

	return m.open(metadata)
}

func (m *Manager) open(metadata *storage.FeedMetadata) (*Feed, error) {
	reader, err := m.storage.GetReader(metadata.Hash)
	if err != nil {
		return nil, fmt.Errorf("getting reader: %w", err)
	}

	feed, err := LoadFeed(reader)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	feed.Metadata = metadata

	return feed, nil
}

// Selects the most recently retrieved feed from feeds that is also
// active at the given time.
func (m *Manager) loadMostRecentActive(feeds []*storage.FeedMetadata, when time.Time) (*Feed, error) {
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.Before(feeds[j].RetrievedAt)
	})

	for i := len(feeds) - 1; i >= 0; i-- {
		ok, err := feedActive(feeds[i], when)
		if err != nil {
			return nil, fmt.Errorf("checking if feed is active: %w", err)
		}
		if !ok {
			continue
		}
		return m.open(feeds[i])
	}

	return nil, ErrNoActiveFeed
}

func feedActive(feed *storage.FeedMetadata, now time.Time) (bool, error) {
	feedTz, err := time.LoadLocation(feed.Timezone)
	if err != nil {
		return false, fmt.Errorf("loading timezone: %w", err)
	}

	todayThere := now.In(feedTz).Format("20060102")

	if feed.CalendarStartDate > todayThere {
		return false, nil
	}
	if feed.CalendarEndDate < todayThere {
		return false, nil
	}

	return true, nil
}

package gtfslite_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/storage"
	"tidbyt.dev/gtfslite/testutil"
)

type MockGTFSServer struct {
	Feeds    map[string][]byte
	Requests []string
	Server   *httptest.Server

	mu sync.Mutex
}

func (m *MockGTFSServer) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, r.URL.Path)
	if feed, found := m.Feeds[r.URL.Path]; found {
		w.Write(feed)
	} else {
		w.WriteHeader(http.StatusNotFound)
	}
}

func managerFixture(t *testing.T) *MockGTFSServer {
	m := &MockGTFSServer{
		Feeds:    map[string][]byte{},
		Requests: []string{},
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handler))
	t.Cleanup(m.Server.Close)

	return m
}

func managerFeed(t *testing.T) []byte {
	return testutil.BuildZip(t, testutil.WithDefaults(map[string][]string{
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"r,R,3",
		},
		"trips.txt": {
			"trip_id,route_id,service_id",
			"t,r,default",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"s,S,12,34",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"t,s,1,12:00:00,12:00:00",
		},
	}))
}

func TestManagerLoadFeed(t *testing.T) {
	server := managerFixture(t)
	server.Feeds["/static.zip"] = managerFeed(t)

	s := storage.NewMemoryStorage()
	manager := gtfslite.NewManager(s)

	url := server.Server.URL + "/static.zip"
	feed, err := manager.LoadFeed(context.Background(), url, nil)
	require.NoError(t, err)

	require.NotNil(t, feed.Metadata)
	assert.Equal(t, url, feed.Metadata.URL)
	assert.Equal(t, "20200101", feed.Metadata.CalendarStartDate)
	assert.Equal(t, "20201231", feed.Metadata.CalendarEndDate)
	assert.Equal(t, 64, len(feed.Metadata.Hash))

	trips, err := feed.ActiveTrips("20200106")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tripIDs(trips))

	// Loading again reuses what's in storage.
	again, err := manager.LoadFeed(context.Background(), url, nil)
	require.NoError(t, err)
	assert.Equal(t, feed.Metadata.Hash, again.Metadata.Hash)
	assert.Equal(t, []string{"/static.zip", "/static.zip"}, server.Requests)

	feeds, err := s.ListFeeds(storage.ListFeedsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, len(feeds))
}

func TestManagerSameArchiveTwoURLs(t *testing.T) {
	server := managerFixture(t)
	buf := managerFeed(t)
	server.Feeds["/a.zip"] = buf
	server.Feeds["/b.zip"] = buf

	s := storage.NewMemoryStorage()
	manager := gtfslite.NewManager(s)

	a, err := manager.LoadFeed(context.Background(), server.Server.URL+"/a.zip", nil)
	require.NoError(t, err)
	b, err := manager.LoadFeed(context.Background(), server.Server.URL+"/b.zip", nil)
	require.NoError(t, err)

	assert.Equal(t, a.Metadata.Hash, b.Metadata.Hash)
	assert.Equal(t, server.Server.URL+"/b.zip", b.Metadata.URL)
	assert.Equal(t, a.Summary(), b.Summary())

	feeds, err := s.ListFeeds(storage.ListFeedsFilter{Hash: a.Metadata.Hash})
	require.NoError(t, err)
	assert.Equal(t, 2, len(feeds))
}

func TestManagerLoadFeedFailures(t *testing.T) {
	server := managerFixture(t)
	server.Feeds["/broken.zip"] = []byte("this is not a zip archive")

	s := storage.NewMemoryStorage()
	manager := gtfslite.NewManager(s)

	_, err := manager.LoadFeed(context.Background(), server.Server.URL+"/broken.zip", nil)
	assert.Error(t, err)

	_, err = manager.LoadFeed(context.Background(), server.Server.URL+"/missing.zip", nil)
	assert.Error(t, err)

	feeds, err := s.ListFeeds(storage.ListFeedsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, len(feeds))
}

func TestManagerLoadFeedTooLarge(t *testing.T) {
	server := managerFixture(t)
	server.Feeds["/static.zip"] = managerFeed(t)

	manager := gtfslite.NewManager(storage.NewMemoryStorage())
	manager.MaxSize = 10

	_, err := manager.LoadFeed(context.Background(), server.Server.URL+"/static.zip", nil)
	assert.Error(t, err)
}

func TestManagerLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, managerFeed(t), 0644))

	manager := gtfslite.NewManager(storage.NewMemoryStorage())

	feed, err := manager.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file://"+path, feed.Metadata.URL)
	assert.Equal(t, 1, feed.Summary().Trips)

	_, err = manager.LoadFile(filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestManagerLoadStored(t *testing.T) {
	server := managerFixture(t)
	server.Feeds["/static.zip"] = managerFeed(t)

	s := storage.NewMemoryStorage()
	manager := gtfslite.NewManager(s)

	url := server.Server.URL + "/static.zip"

	// Nothing there yet.
	_, err := manager.LoadStored(url, time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, gtfslite.ErrNoActiveFeed)

	_, err = manager.LoadFeed(context.Background(), url, nil)
	require.NoError(t, err)

	feed, err := manager.LoadStored(url, time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, url, feed.Metadata.URL)
	assert.Equal(t, 1, feed.Summary().Routes)

	// Calendar has expired.
	_, err = manager.LoadStored(url, time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, gtfslite.ErrNoActiveFeed)

	// No requests made by LoadStored.
	assert.Equal(t, 1, len(server.Requests))
}

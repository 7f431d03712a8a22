package testutil

// Helpers and configuration for tests.
//
// Feeds are built from inline CSV and loaded through the in-memory
// and sqlite backends. Set GTFSLITE_TEST_POSTGRES to a connection
// string to have Backends include postgres as well.

import (
	"archive/zip"
	"bytes"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/parse"
	"tidbyt.dev/gtfslite/storage"
)

var PostgresConnStr = os.Getenv("GTFSLITE_TEST_POSTGRES")

func Backends() []string {
	backends := []string{"memory", "sqlite"}
	if PostgresConnStr != "" {
		backends = append(backends, "postgres")
	}
	return backends
}

func BuildStorage(t testing.TB, backend string) storage.Storage {
	var s storage.Storage
	var err error
	switch backend {
	case "memory":
		s = storage.NewMemoryStorage()
	case "sqlite":
		s, err = storage.NewSQLiteStorage()
		require.NoError(t, err)
	case "postgres":
		s, err = storage.NewPSQLStorage(PostgresConnStr, true)
		require.NoError(t, err)
	}
	require.NotNil(t, s, "unknown backend %q", backend)

	return s
}

// Parses a zipped feed into the backend and loads it.
func LoadFeed(t testing.TB, backend string, buf []byte) *gtfslite.Feed {
	s := BuildStorage(t, backend)

	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := parse.ParseStatic(writer, buf)
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	feed, err := gtfslite.LoadFeed(reader)
	require.NoError(t, err)
	feed.Metadata = metadata

	return feed
}

// Builds a feed from CSV lines per file. Required files left out of
// files are filled in with minimal dummy data.
func BuildFeed(
	t testing.TB,
	backend string,
	files map[string][]string,
) *gtfslite.Feed {
	return LoadFeed(t, backend, BuildZip(t, WithDefaults(files)))
}

func WithDefaults(files map[string][]string) map[string][]string {
	out := map[string][]string{}
	for name, content := range files {
		out[name] = content
	}

	if out["agency.txt"] == nil {
		out["agency.txt"] = []string{"agency_timezone,agency_name,agency_url", "UTC,FooAgency,http://example.com"}
	}
	if out["calendar.txt"] == nil && out["calendar_dates.txt"] == nil {
		out["calendar.txt"] = []string{
			"service_id,start_date,end_date,monday",
			"default,20200101,20201231,1",
		}
	}
	if out["routes.txt"] == nil {
		out["routes.txt"] = []string{"route_id,route_short_name,route_type"}
	}
	if out["trips.txt"] == nil {
		out["trips.txt"] = []string{"trip_id,route_id,service_id"}
	}
	if out["stops.txt"] == nil {
		out["stops.txt"] = []string{"stop_id,stop_name,stop_lat,stop_lon"}
	}
	if out["stop_times.txt"] == nil {
		out["stop_times.txt"] = []string{"trip_id,stop_id,stop_sequence,arrival_time,departure_time"}
	}

	return out
}

func BuildZip(
	t testing.TB,
	files map[string][]string,
) []byte {

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for _, filename := range names {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(files[filename], "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

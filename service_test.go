package gtfslite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/testutil"
)

func TestFrequencyMultiplier(t *testing.T) {
	feed := testutil.BuildFeed(t, "memory", frequencyFiles())

	assert.True(t, feed.IsHeadwayBased("f1"))
	assert.False(t, feed.IsHeadwayBased("nope"))

	for _, tc := range []struct {
		name     string
		start    model.Time
		end      model.Time
		expected int
	}{
		{"unbounded", model.NoTime, model.NoTime, 18},
		{"covering", hms(5, 0, 0), hms(10, 0, 0), 18},
		{"one hour", hms(7, 0, 0), hms(8, 0, 0), 6},
		{"open start", model.NoTime, hms(7, 0, 0), 6},
		{"open end", hms(8, 0, 0), model.NoTime, 6},
		{"floored", hms(8, 35, 0), hms(9, 0, 0), 2},
		{"shorter than headway", hms(8, 55, 0), hms(10, 0, 0), 0},
		{"outside", hms(10, 0, 0), hms(11, 0, 0), 0},
		{"inverted", hms(8, 0, 0), hms(7, 0, 0), 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, feed.FrequencyMultiplier("f1", tc.start, tc.end))
		})
	}

	// Regular trips run once.
	assert.Equal(t, 1, feed.FrequencyMultiplier("unknown", model.NoTime, model.NoTime))
}

func TestFrequencyMultiplierSumsRows(t *testing.T) {
	files := frequencyFiles()
	files["frequencies.txt"] = []string{
		"trip_id,start_time,end_time,headway_secs",
		"f1,06:00:00,07:00:00,600",
		"f1,16:00:00,18:00:00,1200",
	}
	feed := testutil.BuildFeed(t, "memory", files)

	assert.Equal(t, 12, feed.FrequencyMultiplier("f1", model.NoTime, model.NoTime))
	assert.Equal(t, 4, feed.FrequencyMultiplier("f1", hms(6, 30, 0), hms(16, 20, 0)))
}

func TestServiceHours(t *testing.T) {
	for _, backend := range testutil.Backends() {
		t.Run(backend, func(t *testing.T) {
			feed := weekFeed(t, backend)

			hours, err := feed.ServiceHours("20200706", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.InDelta(t, 1.5, hours, 1e-9)

			// wd1 contributes 06:10-06:30, wd2 07:00-07:10.
			hours, err = feed.ServiceHours("20200706", hms(6, 5, 0), hms(7, 15, 0), gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.InDelta(t, 0.5, hours, 1e-9)

			// Departures at S2 are a minute later.
			hours, err = feed.ServiceHours("20200706", hms(6, 0, 0), hms(6, 11, 0), gtfslite.DepartureTime)
			require.NoError(t, err)
			assert.InDelta(t, 11.0/60, hours, 1e-9)

			// Past midnight on the service day.
			hours, err = feed.ServiceHours("20200704", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.InDelta(t, 15.25, hours, 1e-9)

			hours, err = feed.ServiceHours("20200705", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.Equal(t, 0.0, hours)

			_, err = feed.ServiceHours("20300101", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			assert.ErrorIs(t, err, gtfslite.ErrDateNotValid)
		})
	}
}

func TestServiceHoursFrequency(t *testing.T) {
	feed := testutil.BuildFeed(t, "memory", frequencyFiles())

	// 18 runs of a 30 minute template.
	hours, err := feed.ServiceHours("20200106", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
	require.NoError(t, err)
	assert.InDelta(t, 18*0.5, hours, 1e-9)

	// Both template stop times are inside the window, which fits 6
	// runs.
	hours, err = feed.ServiceHours("20200106", hms(6, 0, 0), hms(7, 0, 0), gtfslite.ArrivalTime)
	require.NoError(t, err)
	assert.InDelta(t, 6*0.5, hours, 1e-9)
}

func TestTripsAtStops(t *testing.T) {
	for _, backend := range testutil.Backends() {
		t.Run(backend, func(t *testing.T) {
			feed := weekFeed(t, backend)

			// Station expands to its platform.
			trips, err := feed.TripsAtStops([]string{"STA"}, "20200706", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			require.NoError(t, err)
			require.Equal(t, 3, len(trips))
			assert.Equal(t, "wd1", trips[0].TripID)
			assert.Equal(t, "S1", trips[0].StopID)
			assert.Equal(t, hms(6, 0, 0), trips[0].Time)
			assert.Equal(t, "wd2", trips[1].TripID)
			assert.Equal(t, "wd3", trips[2].TripID)
			assert.Equal(t, hms(8, 30, 0), trips[2].Time)
			assert.Equal(t, "R1", trips[2].RouteID)

			// Each trip counted once, at its first visit within
			// the window.
			trips, err = feed.TripsAtStops([]string{"S1", "S3"}, "20200706", hms(6, 30, 0), hms(7, 30, 0), gtfslite.ArrivalTime)
			require.NoError(t, err)
			require.Equal(t, 2, len(trips))
			assert.Equal(t, gtfslite.StopTrip{
				Trip:    trips[0].Trip,
				TripID:  "wd1",
				RouteID: "R1",
				StopID:  "S3",
				Time:    hms(6, 30, 0),
				Count:   1,
			}, trips[0])
			assert.Equal(t, "wd2", trips[1].TripID)
			assert.Equal(t, "S1", trips[1].StopID)

			count, err := feed.UniqueTripCountAtStops([]string{"S1", "S3"}, "20200706", hms(6, 30, 0), hms(7, 30, 0), gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			count, err = feed.UniqueTripCountAtStops([]string{"S2"}, "20200705", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			require.NoError(t, err)
			assert.Equal(t, 0, count)

			_, err = feed.TripsAtStops([]string{"S1", "nope"}, "20200706", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			assert.ErrorIs(t, err, gtfslite.ErrUnknownReference)

			_, err = feed.TripsAtStops([]string{"S1"}, "20210706", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
			assert.ErrorIs(t, err, gtfslite.ErrDateNotValid)
		})
	}
}

func TestUniqueTripCountAtStopsFrequency(t *testing.T) {
	feed := testutil.BuildFeed(t, "memory", frequencyFiles())

	count, err := feed.UniqueTripCountAtStops([]string{"a", "b"}, "20200106", model.NoTime, model.NoTime, gtfslite.ArrivalTime)
	require.NoError(t, err)
	assert.Equal(t, 18, count)

	// The window is shorter than the headway. The visit at 06:30
	// still counts once.
	count, err = feed.UniqueTripCountAtStops([]string{"b"}, "20200106", hms(6, 25, 0), hms(6, 30, 0), gtfslite.ArrivalTime)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestParseTimeField(t *testing.T) {
	for in, expected := range map[string]gtfslite.TimeField{
		"":               gtfslite.ArrivalTime,
		"arrival_time":   gtfslite.ArrivalTime,
		"departure":      gtfslite.DepartureTime,
		"departure_time": gtfslite.DepartureTime,
	} {
		tf, err := gtfslite.ParseTimeField(in)
		require.NoError(t, err)
		assert.Equal(t, expected, tf)
	}

	_, err := gtfslite.ParseTimeField("noon")
	assert.ErrorIs(t, err, gtfslite.ErrInvalidArgument)
}

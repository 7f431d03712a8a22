package parse

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite/model"
)

func TestParseStopTimes(t *testing.T) {
	trips := map[string]bool{"t": true, "u": true}
	stops := map[string]bool{"s1": true, "s2": true, "s3": true}

	for _, tc := range []struct {
		name         string
		content      string
		stopTimes    []*model.StopTime
		maxArrival   model.Time
		maxDeparture model.Time
		err          bool
	}{
		{
			name: "minimal",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:01,s1,1`,
			stopTimes: []*model.StopTime{
				{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: model.NewTime(10, 0, 0), Departure: model.NewTime(10, 0, 1)},
			},
			maxArrival:   model.NewTime(10, 0, 0),
			maxDeparture: model.NewTime(10, 0, 1),
		},
		{
			name: "past midnight, out of order rows and headsigns",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence,stop_headsign
t,25:00:00,25:00:00,s2,2,B
t,23:59:00,24:01:00,s1,1,A`,
			stopTimes: []*model.StopTime{
				{TripID: "t", StopID: "s2", StopSequence: 2, Headsign: "B", Arrival: model.NewTime(25, 0, 0), Departure: model.NewTime(25, 0, 0)},
				{TripID: "t", StopID: "s1", StopSequence: 1, Headsign: "A", Arrival: model.NewTime(23, 59, 0), Departure: model.NewTime(24, 1, 0)},
			},
			maxArrival:   model.NewTime(25, 0, 0),
			maxDeparture: model.NewTime(25, 0, 0),
		},
		{
			name: "untimed intermediate stop",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:00,s1,1
t,,,s2,2
t,10:10:00,,s3,3`,
			stopTimes: []*model.StopTime{
				{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: model.NewTime(10, 0, 0), Departure: model.NewTime(10, 0, 0)},
				{TripID: "t", StopID: "s2", StopSequence: 2, Arrival: model.NoTime, Departure: model.NoTime},
				{TripID: "t", StopID: "s3", StopSequence: 3, Arrival: model.NewTime(10, 10, 0), Departure: model.NewTime(10, 10, 0)},
			},
			maxArrival:   model.NewTime(10, 10, 0),
			maxDeparture: model.NewTime(10, 10, 0),
		},
		{
			name: "untimed last stop",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:00,s1,1
t,,,s2,2`,
			err: true,
		},
		{
			name: "arrival after departure",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:05,10:00:00,s1,1`,
			err: true,
		},
		{
			name: "time going backwards",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:05:00,s1,1
t,10:04:00,10:04:00,s2,2`,
			err: true,
		},
		{
			name: "duplicate stop_sequence",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:00,s1,1
t,10:01:00,10:01:00,s2,1`,
			err: true,
		},
		{
			name: "unknown trip",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
x,10:00:00,10:00:01,s1,1`,
			err: true,
		},
		{
			name: "unknown stop",
			content: `
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:01,x,1`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			require.NoError(t, writer.BeginStopTimes())
			maxArrival, maxDeparture, err := ParseStopTimes(writer, bytes.NewBufferString(tc.content), trips, stops)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, writer.EndStopTimes())
			assert.Equal(t, tc.maxArrival, maxArrival)
			assert.Equal(t, tc.maxDeparture, maxDeparture)

			stopTimes, err := reader.StopTimes()
			require.NoError(t, err)
			assert.Equal(t, tc.stopTimes, stopTimes)
		})
	}
}

func TestParseStopTimesInvalidTime(t *testing.T) {
	writer, _ := memoryFeed(t)
	_, _, err := ParseStopTimes(writer, bytes.NewBufferString(`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:derp,10:00:01,s,1`), map[string]bool{"t": true}, map[string]bool{"s": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidTimeFormat))
}

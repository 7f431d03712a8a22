package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite/model"
)

func TestParseFrequencies(t *testing.T) {
	trips := map[string]bool{"t": true}

	for _, tc := range []struct {
		name    string
		content string
		freqs   []*model.Frequency
		err     bool
	}{
		{
			name: "two windows",
			content: `
trip_id,start_time,end_time,headway_secs,exact_times
t,06:00:00,09:00:00,600,1
t,24:00:00,26:30:00,1800,`,
			freqs: []*model.Frequency{
				{TripID: "t", StartTime: model.NewTime(6, 0, 0), EndTime: model.NewTime(9, 0, 0), HeadwaySecs: 600, ExactTimes: 1},
				{TripID: "t", StartTime: model.NewTime(24, 0, 0), EndTime: model.NewTime(26, 30, 0), HeadwaySecs: 1800},
			},
		},
		{
			name: "unknown trip",
			content: `
trip_id,start_time,end_time,headway_secs
x,06:00:00,09:00:00,600`,
			err: true,
		},
		{
			name: "end before start",
			content: `
trip_id,start_time,end_time,headway_secs
t,09:00:00,06:00:00,600`,
			err: true,
		},
		{
			name: "zero headway",
			content: `
trip_id,start_time,end_time,headway_secs
t,06:00:00,09:00:00,0`,
			err: true,
		},
		{
			name: "missing start_time",
			content: `
trip_id,start_time,end_time,headway_secs
t,,09:00:00,600`,
			err: true,
		},
		{
			name: "invalid exact_times",
			content: `
trip_id,start_time,end_time,headway_secs,exact_times
t,06:00:00,09:00:00,600,2`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			err := ParseFrequencies(writer, bytes.NewBufferString(tc.content), trips)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			freqs, err := reader.Frequencies()
			require.NoError(t, err)
			assert.Equal(t, tc.freqs, freqs)
		})
	}
}

func TestParseShapes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		shapes  map[string]bool
		points  int
		err     bool
	}{
		{
			name: "two shapes",
			content: `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence,shape_dist_traveled
a,1,2,1,0
a,1.5,2.5,2,10.5
b,3,4,1,`,
			shapes: map[string]bool{"a": true, "b": true},
			points: 3,
		},
		{
			name: "repeated sequence",
			content: `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
a,1,2,1
a,1,2,1`,
			err: true,
		},
		{
			name: "latitude out of range",
			content: `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
a,91,2,1`,
			err: true,
		},
		{
			name: "empty shape_id",
			content: `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
,1,2,1`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			shapes, err := ParseShapes(writer, bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.shapes, shapes)

			points, err := reader.ShapePoints()
			require.NoError(t, err)
			assert.Equal(t, tc.points, len(points))
		})
	}
}

func TestParseFares(t *testing.T) {
	agency := map[string]bool{"a": true}
	routes := map[string]bool{"r": true}

	for _, tc := range []struct {
		name       string
		attributes string
		rules      string
		transfers  []int8
		err        bool
	}{
		{
			name: "basic",
			attributes: `
fare_id,price,currency_type,payment_method,transfers,agency_id
f1,2.50,USD,0,,a
f2,1.00,USD,1,2,`,
			rules: `
fare_id,route_id,origin_id
f1,r,z1
f2,,`,
			transfers: []int8{-1, 2},
		},
		{
			name: "invalid transfers",
			attributes: `
fare_id,price,currency_type,payment_method,transfers
f1,2.50,USD,0,3`,
			err: true,
		},
		{
			name: "missing currency",
			attributes: `
fare_id,price,currency_type,payment_method,transfers
f1,2.50,,0,`,
			err: true,
		},
		{
			name: "rule with unknown fare",
			attributes: `
fare_id,price,currency_type,payment_method,transfers
f1,2.50,USD,0,`,
			rules: `
fare_id,route_id
f9,r`,
			err: true,
		},
		{
			name: "rule with unknown route",
			attributes: `
fare_id,price,currency_type,payment_method,transfers
f1,2.50,USD,0,`,
			rules: `
fare_id,route_id
f1,r9`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			fares, err := ParseFareAttributes(writer, bytes.NewBufferString(tc.attributes), agency)
			if err == nil && tc.rules != "" {
				err = ParseFareRules(writer, bytes.NewBufferString(tc.rules), fares, routes)
			}
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			attrs, err := reader.FareAttributes()
			require.NoError(t, err)
			transfers := []int8{}
			for _, a := range attrs {
				transfers = append(transfers, a.Transfers)
			}
			assert.Equal(t, tc.transfers, transfers)

			rules, err := reader.FareRules()
			require.NoError(t, err)
			assert.Equal(t, 2, len(rules))
		})
	}
}

func TestParseTransfers(t *testing.T) {
	stops := map[string]bool{"s1": true, "s2": true}
	routes := map[string]bool{"r": true}
	trips := map[string]bool{"t": true}

	for _, tc := range []struct {
		name    string
		content string
		err     bool
	}{
		{
			name: "stop and trip transfers",
			content: `
from_stop_id,to_stop_id,from_trip_id,to_trip_id,transfer_type,min_transfer_time
s1,s2,,,2,120
s1,s1,t,t,4,`,
		},
		{
			name: "unknown stop",
			content: `
from_stop_id,to_stop_id,transfer_type
s1,s9,0`,
			err: true,
		},
		{
			name: "unknown route",
			content: `
from_stop_id,to_stop_id,from_route_id,transfer_type
s1,s2,r9,0`,
			err: true,
		},
		{
			name: "invalid transfer_type",
			content: `
from_stop_id,to_stop_id,transfer_type
s1,s2,6`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			err := ParseTransfers(writer, bytes.NewBufferString(tc.content), stops, routes, trips)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			transfers, err := reader.Transfers()
			require.NoError(t, err)
			require.Equal(t, 2, len(transfers))
			assert.Equal(t, &model.Transfer{
				FromStopID:      "s1",
				ToStopID:        "s2",
				TransferType:    2,
				MinTransferTime: 120,
			}, transfers[0])
			assert.Equal(t, "t", transfers[1].FromTripID)
		})
	}
}

func TestParseAttributions(t *testing.T) {
	agency := map[string]bool{"a": true}
	routes := map[string]bool{"r": true}
	trips := map[string]bool{"t": true}

	for _, tc := range []struct {
		name    string
		content string
		err     bool
	}{
		{
			name: "valid",
			content: `
attribution_id,agency_id,route_id,organization_name,is_producer,is_operator,attribution_url
x,a,r,Transit Co,1,0,http://x`,
		},
		{
			name: "no role",
			content: `
organization_name,is_producer
Transit Co,0`,
			err: true,
		},
		{
			name: "no organization",
			content: `
organization_name,is_producer
,1`,
			err: true,
		},
		{
			name: "unknown trip",
			content: `
trip_id,organization_name,is_authority
t9,Transit Co,1`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			err := ParseAttributions(writer, bytes.NewBufferString(tc.content), agency, routes, trips)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			attributions, err := reader.Attributions()
			require.NoError(t, err)
			assert.Equal(t, []*model.Attribution{{
				ID:               "x",
				AgencyID:         "a",
				RouteID:          "r",
				OrganizationName: "Transit Co",
				IsProducer:       1,
				URL:              "http://x",
			}}, attributions)
		})
	}
}

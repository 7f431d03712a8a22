package gtfslite_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

// R1 runs t1 and t2, R2 runs t3. Only R1 visits S1, and t1 also
// stops at station P, whose platform S3 is served by R2. Shape shA
// is used by t1 alone, shB by t2 and t3.
func mutateTables() *gtfslite.Tables {
	return &gtfslite.Tables{
		Agencies: []*model.Agency{{ID: "A", Name: "Agency", URL: "http://a", Timezone: "UTC"}},
		Stops: []*model.Stop{
			{ID: "P", Name: "Station", LocationType: model.LocationTypeStation},
			{ID: "S1", Name: "One"},
			{ID: "S2", Name: "Two"},
			{ID: "S3", Name: "Three", ParentStation: "P"},
		},
		Routes: []*model.Route{
			{ID: "R1", AgencyID: "A", ShortName: "1", Type: model.RouteTypeBus},
			{ID: "R2", AgencyID: "A", ShortName: "2", Type: model.RouteTypeBus},
		},
		Trips: []*model.Trip{
			{ID: "t1", RouteID: "R1", ServiceID: "all", ShapeID: "shA", DirectionID: model.DirectionUnset},
			{ID: "t2", RouteID: "R1", ServiceID: "all", ShapeID: "shB", DirectionID: model.DirectionUnset},
			{ID: "t3", RouteID: "R2", ServiceID: "all", ShapeID: "shB", DirectionID: model.DirectionUnset},
		},
		StopTimes: []*model.StopTime{
			{TripID: "t1", StopID: "S1", StopSequence: 1, Arrival: hms(6, 0, 0), Departure: hms(6, 0, 0)},
			{TripID: "t1", StopID: "P", StopSequence: 2, Arrival: hms(6, 10, 0), Departure: hms(6, 10, 0)},
			{TripID: "t2", StopID: "S1", StopSequence: 1, Arrival: hms(7, 0, 0), Departure: hms(7, 0, 0)},
			{TripID: "t2", StopID: "S2", StopSequence: 2, Arrival: hms(7, 10, 0), Departure: hms(7, 10, 0)},
			{TripID: "t3", StopID: "S2", StopSequence: 1, Arrival: hms(8, 0, 0), Departure: hms(8, 0, 0)},
			{TripID: "t3", StopID: "S3", StopSequence: 2, Arrival: hms(8, 10, 0), Departure: hms(8, 10, 0)},
		},
		Calendars: []*model.Calendar{
			{ServiceID: "all", StartDate: "20200101", EndDate: "20201231", Weekday: 127},
		},
		Frequencies: []*model.Frequency{
			{TripID: "t1", StartTime: hms(6, 0, 0), EndTime: hms(7, 0, 0), HeadwaySecs: 600},
		},
		ShapePoints: []*model.ShapePoint{
			{ShapeID: "shA", Lat: 40.1, Lon: -73.1, Sequence: 1},
			{ShapeID: "shA", Lat: 40.2, Lon: -73.2, Sequence: 2},
			{ShapeID: "shB", Lat: 40.3, Lon: -73.3, Sequence: 1},
			{ShapeID: "shB", Lat: 40.4, Lon: -73.4, Sequence: 2},
		},
		FareAttributes: []*model.FareAttribute{
			{FareID: "F", Price: 2.5, CurrencyType: "USD", Transfers: -1, AgencyID: "A"},
		},
		FareRules: []*model.FareRule{
			{FareID: "F", RouteID: "R1"},
			{FareID: "F", RouteID: "R2"},
		},
		Transfers: []*model.Transfer{
			{FromStopID: "S1", ToStopID: "S2"},
			{FromStopID: "S2", ToStopID: "S3", FromRouteID: "R1"},
			{FromStopID: "S2", ToStopID: "S3", FromTripID: "t3"},
		},
		Attributions: []*model.Attribution{
			{ID: "a1", RouteID: "R1", OrganizationName: "Org", IsProducer: 1},
			{ID: "a2", TripID: "t3", OrganizationName: "Org", IsOperator: 1},
			{ID: "a3", AgencyID: "A", OrganizationName: "Org", IsAuthority: 1},
		},
	}
}

func TestDeleteRoutesCleanStops(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	deletion, err := feed.DeleteRoutes([]string{"R1"}, true)
	require.NoError(t, err)
	assert.Equal(t, &gtfslite.Deletion{
		Routes:       1,
		Trips:        2,
		StopTimes:    4,
		Shapes:       1,
		ShapePoints:  2,
		Frequencies:  1,
		FareRules:    1,
		Transfers:    2,
		Attributions: 1,
		Stops:        1,
	}, deletion)

	tables := feed.Tables()

	stopIDs := []string{}
	for _, s := range tables.Stops {
		stopIDs = append(stopIDs, s.ID)
	}
	assert.Equal(t, []string{"P", "S2", "S3"}, stopIDs)

	_, found := feed.Stop("S1")
	assert.False(t, found)
	_, found = feed.Route("R1")
	assert.False(t, found)

	// Nothing refers to the removed route, trips or stop.
	gone := map[string]bool{"R1": true, "t1": true, "t2": true, "S1": true, "shA": true}
	for _, trip := range tables.Trips {
		assert.False(t, gone[trip.RouteID] || gone[trip.ID] || gone[trip.ShapeID])
	}
	for _, st := range tables.StopTimes {
		assert.False(t, gone[st.TripID] || gone[st.StopID])
	}
	for _, p := range tables.ShapePoints {
		assert.False(t, gone[p.ShapeID])
	}
	for _, fr := range tables.FareRules {
		assert.False(t, gone[fr.RouteID])
	}
	for _, f := range tables.Frequencies {
		assert.False(t, gone[f.TripID])
	}
	for _, tr := range tables.Transfers {
		assert.False(t, gone[tr.FromStopID] || gone[tr.ToStopID] || gone[tr.FromRouteID] || gone[tr.FromTripID])
	}
	for _, a := range tables.Attributions {
		assert.False(t, gone[a.RouteID] || gone[a.TripID])
	}

	trips, err := feed.ActiveTrips("20200601")
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, tripIDs(trips))
	assert.False(t, feed.IsHeadwayBased("t1"))
}

func TestDeleteRoutesKeepStops(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	deletion, err := feed.DeleteRoutes([]string{"R1"}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, deletion.Stops)
	assert.Equal(t, 1, deletion.Transfers)

	_, found := feed.Stop("S1")
	assert.True(t, found)

	// Shape shared with a surviving trip.
	deletion, err = feed.DeleteRoutes([]string{"R2"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, deletion.Shapes)
	assert.Equal(t, 2, deletion.ShapePoints)
	assert.Equal(t, 0, len(feed.Tables().ShapePoints))
}

func TestDeleteRoutesUnknown(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	_, err = feed.DeleteRoutes([]string{"R2", "R9"}, true)
	assert.ErrorIs(t, err, gtfslite.ErrUnknownReference)

	// Untouched.
	assert.Equal(t, 2, len(feed.Tables().Routes))
	assert.Equal(t, 6, len(feed.Tables().StopTimes))
}

func TestSnapshotRestore(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	snapshot := feed.Snapshot()

	_, err = feed.DeleteRoutes([]string{"R1", "R2"}, true)
	require.NoError(t, err)
	trips, err := feed.ActiveTrips("20200601")
	require.NoError(t, err)
	assert.Equal(t, []string{}, tripIDs(trips))
	assert.Equal(t, 0, len(feed.Tables().Stops))

	feed.Restore(snapshot)
	trips, err = feed.ActiveTrips("20200601")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, tripIDs(trips))
	assert.Equal(t, 4, len(feed.Tables().Stops))
	assert.Equal(t, 6, feed.FrequencyMultiplier("t1", model.NoTime, model.NoTime))

	// The snapshot is reusable.
	_, err = feed.DeleteRoutes([]string{"R2"}, true)
	require.NoError(t, err)
	feed.Restore(snapshot)
	assert.Equal(t, 2, len(feed.Tables().Routes))
}

func TestDeleteRoutesConcurrentReaders(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Either before or after the deletion,
				// never in between.
				trips, err := feed.ActiveTrips("20200601")
				assert.NoError(t, err)
				ids := tripIDs(trips)
				assert.Contains(t, [][]string{{"t1", "t2", "t3"}, {"t3"}}, ids)
			}
		}()
	}

	_, err = feed.DeleteRoutes([]string{"R1"}, true)
	require.NoError(t, err)
	wg.Wait()
}

func TestSaveAfterDelete(t *testing.T) {
	feed, err := gtfslite.NewFeed(mutateTables())
	require.NoError(t, err)

	_, err = feed.DeleteRoutes([]string{"R1"}, true)
	require.NoError(t, err)

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("trimmed")
	require.NoError(t, err)
	require.NoError(t, feed.Save(writer))

	reader, err := s.GetReader("trimmed")
	require.NoError(t, err)
	reloaded, err := gtfslite.LoadFeed(reader)
	require.NoError(t, err)

	assert.Equal(t, 1, len(reloaded.Tables().Routes))
	assert.Equal(t, 2, len(reloaded.Tables().StopTimes))
	assert.Equal(t, 3, len(reloaded.Tables().Stops))
}

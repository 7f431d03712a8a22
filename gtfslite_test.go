package gtfslite_test

// Fixtures shared by the tests in this package.
//
// Most tests load their feed through every backend in
// testutil.Backends(), so the parse and storage layers are exercised
// along with the queries.

import (
	"sort"
	"testing"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/testutil"
)

// A week of service on two routes.
//
// WD runs weekdays through 2020 but not on 2020-07-03 (a Friday). SAT
// runs Saturdays, and also on 2020-12-25 (a Friday). Stop S1 is a
// platform of station STA. Trip wd3 runs in the opposite direction.
func weekFiles() map[string][]string {
	return map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WD,1,1,1,1,1,0,0,20200101,20201231",
			"SAT,0,0,0,0,0,1,0,20200101,20201231",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"WD,20200703,2",
			"SAT,20201225,1",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"R1,1,3",
			"R2,2,3",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station",
			"STA,Station,40.0,-73.0,1,",
			"S1,One,40.1,-73.1,0,STA",
			"S2,Two,40.2,-73.2,0,",
			"S3,Three,40.3,-73.3,0,",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,direction_id",
			"wd1,R1,WD,0",
			"wd2,R1,WD,0",
			"wd3,R1,WD,1",
			"sat1,R2,SAT,0",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"wd1,S1,1,06:00:00,06:00:00",
			"wd1,S2,2,06:10:00,06:11:00",
			"wd1,S3,3,06:30:00,06:30:00",
			"wd2,S1,1,07:00:00,07:00:00",
			"wd2,S2,2,07:10:00,07:11:00",
			"wd2,S3,3,07:30:00,07:30:00",
			"wd3,S3,1,08:00:00,08:00:00",
			"wd3,S2,2,08:20:00,08:21:00",
			"wd3,S1,3,08:30:00,08:30:00",
			"sat1,S2,1,10:00:00,10:00:00",
			"sat1,S3,2,25:15:00,25:15:00",
		},
	}
}

func weekFeed(t testing.TB, backend string) *gtfslite.Feed {
	return testutil.BuildFeed(t, backend, weekFiles())
}

// A single headway based trip, running every 10 minutes from 06:00
// to 09:00. The template trip takes 30 minutes.
func frequencyFiles() map[string][]string {
	return map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WD,1,1,1,1,1,0,0,20200101,20201231",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"F,F,3",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"a,A,40.1,-73.1",
			"b,B,40.2,-73.2",
		},
		"trips.txt": {
			"trip_id,route_id,service_id",
			"f1,F,WD",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"f1,a,1,06:00:00,06:00:00",
			"f1,b,2,06:30:00,06:30:00",
		},
		"frequencies.txt": {
			"trip_id,start_time,end_time,headway_secs",
			"f1,06:00:00,09:00:00,600",
		},
	}
}

func tripIDs(trips []*model.Trip) []string {
	ids := []string{}
	for _, trip := range trips {
		ids = append(ids, trip.ID)
	}
	sort.Strings(ids)
	return ids
}

func hms(h, m, s int) model.Time {
	return model.NewTime(h, m, s)
}

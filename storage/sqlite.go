package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tidbyt.dev/gtfslite/model"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	feedDB *sql.DB
	feeds  map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	db                  *sql.DB
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
	tripInsertQuery     *sql.Stmt
	tripInsertTx        *sql.Tx
}

type SQLiteFeedReader struct {
	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/gtfs.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    hash TEXT,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMP NOT NULL,
    calendar_start TEXT NOT NULL,
    calendar_end TEXT NOT NULL,
    timezone TEXT NOT NULL,
    max_arrival TEXT NOT NULL,
    max_departure TEXT NOT NULL,
PRIMARY KEY (hash, url)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating feed table: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		feedDB: db,
		feeds:  map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStorage) ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error) {
	query := `
SELECT
    hash,
    url,
    retrieved_at,
    calendar_start,
    calendar_end,
    timezone,
    max_arrival,
    max_departure
FROM feed`

	conditions := []string{}
	params := []interface{}{}
	if filter.URL != "" {
		conditions = append(conditions, "url = ?")
		params = append(params, filter.URL)
	}
	if filter.Hash != "" {
		conditions = append(conditions, "hash = ?")
		params = append(params, filter.Hash)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY retrieved_at DESC"

	rows, err := s.feedDB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	feeds := []*FeedMetadata{}
	for rows.Next() {
		var feed FeedMetadata
		err := rows.Scan(
			&feed.Hash,
			&feed.URL,
			&feed.RetrievedAt,
			&feed.CalendarStartDate,
			&feed.CalendarEndDate,
			&feed.Timezone,
			&feed.MaxArrival,
			&feed.MaxDeparture,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, &feed)
	}

	return feeds, nil
}

func (s *SQLiteStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	_, err := s.feedDB.Exec(`
INSERT INTO feed (
    hash,
    url,
    retrieved_at,
    calendar_start,
    calendar_end,
    timezone,
    max_arrival,
    max_departure
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (hash, url) DO UPDATE SET
    retrieved_at = excluded.retrieved_at,
    calendar_start = excluded.calendar_start,
    calendar_end = excluded.calendar_end,
    timezone = excluded.timezone,
    max_arrival = excluded.max_arrival,
    max_departure = excluded.max_departure
`,
		feed.Hash,
		feed.URL,
		feed.RetrievedAt,
		feed.CalendarStartDate,
		feed.CalendarEndDate,
		feed.Timezone,
		feed.MaxArrival,
		feed.MaxDeparture,
	)
	if err != nil {
		return fmt.Errorf("writing feed metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteFeedMetadata(url string, hash string) error {
	_, err := s.feedDB.Exec(`
DELETE FROM feed
WHERE url = ? AND hash = ?
`, url, hash)
	return err
}

func (s *SQLiteStorage) GetReader(feedID string) (FeedReader, error) {
	db, found := s.feeds[feedID]
	if found {
		return &SQLiteFeedReader{
			db: db,
		}, nil
	}
	if !s.OnDisk {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}

	sourceName := s.Directory + "/" + feedID + ".db"
	if _, err := os.Stat(sourceName); os.IsNotExist(err) {
		return nil, fmt.Errorf("feed %s does not exist at %s", feedID, sourceName)
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s.feeds[feedID] = db

	return &SQLiteFeedReader{
		db: db,
	}, nil
}

var sqliteFeedTables = []struct {
	name  string
	query string
}{
	{"agency", `
CREATE TABLE agency (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    timezone TEXT NOT NULL,
    lang TEXT,
    phone TEXT,
    fare_url TEXT,
    email TEXT
);`},
	{"stops", `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    code TEXT,
    name TEXT NOT NULL,
    desc TEXT,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    url TEXT,
    location_type INTEGER NOT NULL,
    parent_station TEXT,
    platform_code TEXT
);
CREATE INDEX stops_parent_station ON stops (parent_station);
`},
	{"routes", `
CREATE TABLE routes (
    id TEXT PRIMARY KEY,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    desc TEXT,
    type INTEGER NOT NULL,
    url TEXT,
    color TEXT,
    text_color TEXT
);`},
	{"trips", `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    short_name TEXT,
    direction_id INTEGER NOT NULL,
    shape_id TEXT,
    block_id TEXT
);
CREATE INDEX trips_route_id ON trips (route_id);
CREATE INDEX trips_service_id ON trips (service_id);
`},
	{"stop_times", `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
`},
	{"calendar", `
CREATE TABLE calendar (
    service_id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    monday integer NOT NULL,
    tuesday integer NOT NULL,
    wednesday integer NOT NULL,
    thursday integer NOT NULL,
    friday integer NOT NULL,
    saturday integer NOT NULL,
    sunday integer NOT NULL
);`},
	{"calendar_dates", `
CREATE TABLE calendar_dates (
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type INTEGER NOT NULL
);
CREATE INDEX calendar_dates_date ON calendar_dates (date);
`},
	{"frequencies", `
CREATE TABLE frequencies (
    trip_id TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    headway_secs INTEGER NOT NULL,
    exact_times INTEGER NOT NULL
);`},
	{"shapes", `
CREATE TABLE shapes (
    shape_id TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    sequence INTEGER NOT NULL,
    dist_traveled REAL
);`},
	{"fare_attributes", `
CREATE TABLE fare_attributes (
    fare_id TEXT NOT NULL,
    price REAL NOT NULL,
    currency_type TEXT NOT NULL,
    payment_method INTEGER NOT NULL,
    transfers INTEGER NOT NULL,
    agency_id TEXT,
    transfer_duration INTEGER
);`},
	{"fare_rules", `
CREATE TABLE fare_rules (
    fare_id TEXT NOT NULL,
    route_id TEXT,
    origin_id TEXT,
    destination_id TEXT,
    contains_id TEXT
);`},
	{"transfers", `
CREATE TABLE transfers (
    from_stop_id TEXT,
    to_stop_id TEXT,
    from_route_id TEXT,
    to_route_id TEXT,
    from_trip_id TEXT,
    to_trip_id TEXT,
    transfer_type INTEGER NOT NULL,
    min_transfer_time INTEGER
);`},
	{"attributions", `
CREATE TABLE attributions (
    id TEXT,
    agency_id TEXT,
    route_id TEXT,
    trip_id TEXT,
    organization_name TEXT NOT NULL,
    is_producer INTEGER,
    is_operator INTEGER,
    is_authority INTEGER,
    url TEXT
);`},
}

func (s *SQLiteStorage) GetWriter(feedID string) (FeedWriter, error) {
	if old, found := s.feeds[feedID]; found {
		old.Close()
		delete(s.feeds, feedID)
	}

	sourceName := ":memory:"
	if s.OnDisk {
		sourceName = s.Directory + "/" + feedID + ".db"
		// delete file if it exists
		if _, err := os.Stat(sourceName); err == nil {
			err := os.Remove(sourceName)
			if err != nil {
				return nil, fmt.Errorf("removing existing database: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, table := range sqliteFeedTables {
		_, err = db.Exec(table.query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %s", table.name, err)
		}
	}

	s.feeds[feedID] = db

	return &SQLiteFeedWriter{
		db: db,
	}, nil
}

func (f *SQLiteFeedWriter) WriteAgency(a *model.Agency) error {
	_, err := f.db.Exec(`
INSERT INTO agency (id, name, url, timezone, lang, phone, fare_url, email)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Name,
		a.URL,
		a.Timezone,
		a.Lang,
		a.Phone,
		a.FareURL,
		a.Email,
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := f.db.Exec(`
INSERT INTO stops (id, code, name, desc, lat, lon, url, location_type, parent_station, platform_code)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stop.ID,
		stop.Code,
		stop.Name,
		stop.Desc,
		stop.Lat,
		stop.Lon,
		stop.URL,
		stop.LocationType,
		stop.ParentStation,
		stop.PlatformCode,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteRoute(route *model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (id, agency_id, short_name, long_name, desc, type, url, color, text_color)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		route.ID,
		route.AgencyID,
		route.ShortName,
		route.LongName,
		route.Desc,
		route.Type,
		route.URL,
		route.Color,
		route.TextColor,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) BeginTrips() error {
	var err error
	f.tripInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning trip insert transaction: %w", err)
	}

	f.tripInsertQuery, err = f.tripInsertTx.Prepare(`
INSERT INTO trips (id, route_id, service_id, headsign, short_name, direction_id, shape_id, block_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		f.tripInsertTx.Rollback()
		f.tripInsertTx = nil
		return fmt.Errorf("preparing trip insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteTrip(trip *model.Trip) error {
	if f.tripInsertQuery == nil {
		return fmt.Errorf("inserting trip: BeginTrips not called")
	}

	_, err := f.tripInsertQuery.Exec(
		trip.ID,
		trip.RouteID,
		trip.ServiceID,
		trip.Headsign,
		trip.ShortName,
		trip.DirectionID,
		trip.ShapeID,
		trip.BlockID,
	)
	if err != nil {
		f.tripInsertQuery.Close()
		f.tripInsertTx.Rollback()
		f.tripInsertTx = nil
		f.tripInsertQuery = nil
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) EndTrips() error {
	if f.tripInsertTx == nil {
		return nil
	}
	f.tripInsertQuery.Close()
	err := f.tripInsertTx.Commit()
	if err != nil {
		return fmt.Errorf("committing trip insert transaction: %w", err)
	}
	f.tripInsertTx = nil
	f.tripInsertQuery = nil
	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	// transaction with prepared statement.
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time insert transaction: %w", err)
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	if f.stopTimeInsertQuery == nil {
		return fmt.Errorf("inserting stop_time: BeginStopTimes not called")
	}

	_, err := f.stopTimeInsertQuery.Exec(
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		int(stopTime.Arrival),
		int(stopTime.Departure),
		stopTime.Headsign,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return fmt.Errorf("inserting stop_time: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	if f.stopTimeInsertTx == nil {
		return nil
	}

	// commit transaction and clean up
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	if err != nil {
		return fmt.Errorf("committing stop_time insert transaction: %w", err)
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func weekdayFlags(weekday int8) [7]int {
	flags := [7]int{}
	for i, day := range []time.Weekday{
		time.Monday,
		time.Tuesday,
		time.Wednesday,
		time.Thursday,
		time.Friday,
		time.Saturday,
		time.Sunday,
	} {
		if weekday&(1<<day) != 0 {
			flags[i] = 1
		}
	}
	return flags
}

func weekdayFromFlags(flags [7]int) int8 {
	var weekday int8
	for i, day := range []time.Weekday{
		time.Monday,
		time.Tuesday,
		time.Wednesday,
		time.Thursday,
		time.Friday,
		time.Saturday,
		time.Sunday,
	} {
		if flags[i] == 1 {
			weekday |= 1 << day
		}
	}
	return weekday
}

func (f *SQLiteFeedWriter) WriteCalendar(cal *model.Calendar) error {
	days := weekdayFlags(cal.Weekday)

	_, err := f.db.Exec(`
INSERT INTO calendar (service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ServiceID,
		cal.StartDate,
		cal.EndDate,
		days[0], days[1], days[2], days[3], days[4], days[5], days[6],
	)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteCalendarDate(cd *model.CalendarDate) error {
	_, err := f.db.Exec(`
INSERT INTO calendar_dates (service_id, date, exception_type)
VALUES (?, ?, ?)`,
		cd.ServiceID,
		cd.Date,
		cd.ExceptionType,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar date: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteFrequency(freq *model.Frequency) error {
	_, err := f.db.Exec(`
INSERT INTO frequencies (trip_id, start_time, end_time, headway_secs, exact_times)
VALUES (?, ?, ?, ?, ?)`,
		freq.TripID,
		int(freq.StartTime),
		int(freq.EndTime),
		freq.HeadwaySecs,
		freq.ExactTimes,
	)
	if err != nil {
		return fmt.Errorf("inserting frequency: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteShapePoint(p *model.ShapePoint) error {
	_, err := f.db.Exec(`
INSERT INTO shapes (shape_id, lat, lon, sequence, dist_traveled)
VALUES (?, ?, ?, ?, ?)`,
		p.ShapeID,
		p.Lat,
		p.Lon,
		p.Sequence,
		p.DistTraveled,
	)
	if err != nil {
		return fmt.Errorf("inserting shape point: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteFareAttribute(fa *model.FareAttribute) error {
	_, err := f.db.Exec(`
INSERT INTO fare_attributes (fare_id, price, currency_type, payment_method, transfers, agency_id, transfer_duration)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fa.FareID,
		fa.Price,
		fa.CurrencyType,
		fa.PaymentMethod,
		fa.Transfers,
		fa.AgencyID,
		fa.TransferDuration,
	)
	if err != nil {
		return fmt.Errorf("inserting fare attribute: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteFareRule(fr *model.FareRule) error {
	_, err := f.db.Exec(`
INSERT INTO fare_rules (fare_id, route_id, origin_id, destination_id, contains_id)
VALUES (?, ?, ?, ?, ?)`,
		fr.FareID,
		fr.RouteID,
		fr.OriginID,
		fr.DestinationID,
		fr.ContainsID,
	)
	if err != nil {
		return fmt.Errorf("inserting fare rule: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteTransfer(t *model.Transfer) error {
	_, err := f.db.Exec(`
INSERT INTO transfers (from_stop_id, to_stop_id, from_route_id, to_route_id, from_trip_id, to_trip_id, transfer_type, min_transfer_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.FromStopID,
		t.ToStopID,
		t.FromRouteID,
		t.ToRouteID,
		t.FromTripID,
		t.ToTripID,
		t.TransferType,
		t.MinTransferTime,
	)
	if err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteAttribution(a *model.Attribution) error {
	_, err := f.db.Exec(`
INSERT INTO attributions (id, agency_id, route_id, trip_id, organization_name, is_producer, is_operator, is_authority, url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.AgencyID,
		a.RouteID,
		a.TripID,
		a.OrganizationName,
		a.IsProducer,
		a.IsOperator,
		a.IsAuthority,
		a.URL,
	)
	if err != nil {
		return fmt.Errorf("inserting attribution: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	_, err := f.db.Exec(`ANALYZE;`)
	if err != nil {
		f.db.Close()
		return fmt.Errorf("analyzing database: %s", err)
	}

	return nil
}

func (f *SQLiteFeedReader) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	weekday := strings.ToLower(parsedDate.Weekday().String())

	rows, err := f.db.Query(`
WITH
Exceptions AS (
 	SELECT service_id, exception_type
	FROM calendar_dates
	WHERE date = ?
),
Regular AS (
	SELECT service_id
        FROM calendar
	WHERE `+weekday+` = 1 AND
              start_date <= ? AND
	      end_date >= ?
)
SELECT service_id
FROM Regular
WHERE service_id NOT IN (
	SELECT service_id FROM Exceptions WHERE exception_type = 2
)
UNION
SELECT service_id
FROM Exceptions
WHERE exception_type = 1 AND service_id NOT IN (
	SELECT service_id FROM Exceptions WHERE exception_type = 2
)
`, date, date, date)
	if err != nil {
		return nil, fmt.Errorf("querying for active services: %w", err)
	}
	defer rows.Close()

	activeServices := []string{}
	for rows.Next() {
		var serviceID string
		err = rows.Scan(&serviceID)
		if err != nil {
			return nil, fmt.Errorf("scanning active services: %w", err)
		}
		activeServices = append(activeServices, serviceID)
	}

	return activeServices, nil
}

func (f *SQLiteFeedReader) Agencies() ([]*model.Agency, error) {
	rows, err := f.db.Query(`
SELECT
    id, name, url, timezone, lang, phone, fare_url, email
FROM agency`)
	if err != nil {
		return nil, fmt.Errorf("querying agency: %w", err)
	}
	defer rows.Close()

	agencies := []*model.Agency{}
	for rows.Next() {
		a := &model.Agency{}
		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.URL,
			&a.Timezone,
			&a.Lang,
			&a.Phone,
			&a.FareURL,
			&a.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}

	return agencies, nil
}

func (f *SQLiteFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := f.db.Query(`
SELECT
    id, code, name, desc, lat, lon, url, location_type, parent_station, platform_code
FROM stops`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		s := &model.Stop{}
		err := rows.Scan(
			&s.ID,
			&s.Code,
			&s.Name,
			&s.Desc,
			&s.Lat,
			&s.Lon,
			&s.URL,
			&s.LocationType,
			&s.ParentStation,
			&s.PlatformCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}

	return stops, nil
}

func (f *SQLiteFeedReader) Routes() ([]*model.Route, error) {
	rows, err := f.db.Query(`
SELECT
    id, agency_id, short_name, long_name, desc, type, url, color, text_color
FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		r := &model.Route{}
		err := rows.Scan(
			&r.ID,
			&r.AgencyID,
			&r.ShortName,
			&r.LongName,
			&r.Desc,
			&r.Type,
			&r.URL,
			&r.Color,
			&r.TextColor,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, r)
	}

	return routes, nil
}

func (f *SQLiteFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := f.db.Query(`
SELECT
    id, route_id, service_id, headsign, short_name, direction_id, shape_id, block_id
FROM trips`)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		t := &model.Trip{}
		err := rows.Scan(
			&t.ID,
			&t.RouteID,
			&t.ServiceID,
			&t.Headsign,
			&t.ShortName,
			&t.DirectionID,
			&t.ShapeID,
			&t.BlockID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, nil
}

func (f *SQLiteFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT
    trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign
FROM stop_times
ORDER BY trip_id, stop_sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying stop_times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		var arrival, departure int
		err := rows.Scan(
			&st.TripID,
			&st.StopID,
			&st.StopSequence,
			&arrival,
			&departure,
			&st.Headsign,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		st.Arrival = model.Time(arrival)
		st.Departure = model.Time(departure)
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (f *SQLiteFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := f.db.Query(`
SELECT
    service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday
FROM calendar`)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}
	defer rows.Close()

	calendars := []*model.Calendar{}
	for rows.Next() {
		c := &model.Calendar{}
		days := [7]int{}
		err := rows.Scan(
			&c.ServiceID,
			&c.StartDate,
			&c.EndDate,
			&days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6],
		)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar: %w", err)
		}
		c.Weekday = weekdayFromFlags(days)
		calendars = append(calendars, c)
	}

	return calendars, nil
}

func (f *SQLiteFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	rows, err := f.db.Query(`SELECT service_id, date, exception_type FROM calendar_dates`)
	if err != nil {
		return nil, fmt.Errorf("querying calendar_dates: %w", err)
	}
	defer rows.Close()

	cds := []*model.CalendarDate{}
	for rows.Next() {
		cd := &model.CalendarDate{}
		err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar_date: %w", err)
		}
		cds = append(cds, cd)
	}

	return cds, nil
}

func (f *SQLiteFeedReader) Frequencies() ([]*model.Frequency, error) {
	rows, err := f.db.Query(`
SELECT trip_id, start_time, end_time, headway_secs, exact_times
FROM frequencies`)
	if err != nil {
		return nil, fmt.Errorf("querying frequencies: %w", err)
	}
	defer rows.Close()

	freqs := []*model.Frequency{}
	for rows.Next() {
		fr := &model.Frequency{}
		var start, end int
		err := rows.Scan(&fr.TripID, &start, &end, &fr.HeadwaySecs, &fr.ExactTimes)
		if err != nil {
			return nil, fmt.Errorf("scanning frequency: %w", err)
		}
		fr.StartTime = model.Time(start)
		fr.EndTime = model.Time(end)
		freqs = append(freqs, fr)
	}

	return freqs, nil
}

func (f *SQLiteFeedReader) ShapePoints() ([]*model.ShapePoint, error) {
	rows, err := f.db.Query(`
SELECT shape_id, lat, lon, sequence, dist_traveled
FROM shapes
ORDER BY shape_id, sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying shapes: %w", err)
	}
	defer rows.Close()

	points := []*model.ShapePoint{}
	for rows.Next() {
		p := &model.ShapePoint{}
		err := rows.Scan(&p.ShapeID, &p.Lat, &p.Lon, &p.Sequence, &p.DistTraveled)
		if err != nil {
			return nil, fmt.Errorf("scanning shape point: %w", err)
		}
		points = append(points, p)
	}

	return points, nil
}

func (f *SQLiteFeedReader) FareAttributes() ([]*model.FareAttribute, error) {
	rows, err := f.db.Query(`
SELECT fare_id, price, currency_type, payment_method, transfers, agency_id, transfer_duration
FROM fare_attributes`)
	if err != nil {
		return nil, fmt.Errorf("querying fare_attributes: %w", err)
	}
	defer rows.Close()

	fares := []*model.FareAttribute{}
	for rows.Next() {
		fa := &model.FareAttribute{}
		err := rows.Scan(
			&fa.FareID,
			&fa.Price,
			&fa.CurrencyType,
			&fa.PaymentMethod,
			&fa.Transfers,
			&fa.AgencyID,
			&fa.TransferDuration,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning fare attribute: %w", err)
		}
		fares = append(fares, fa)
	}

	return fares, nil
}

func (f *SQLiteFeedReader) FareRules() ([]*model.FareRule, error) {
	rows, err := f.db.Query(`
SELECT fare_id, route_id, origin_id, destination_id, contains_id
FROM fare_rules`)
	if err != nil {
		return nil, fmt.Errorf("querying fare_rules: %w", err)
	}
	defer rows.Close()

	rules := []*model.FareRule{}
	for rows.Next() {
		fr := &model.FareRule{}
		err := rows.Scan(&fr.FareID, &fr.RouteID, &fr.OriginID, &fr.DestinationID, &fr.ContainsID)
		if err != nil {
			return nil, fmt.Errorf("scanning fare rule: %w", err)
		}
		rules = append(rules, fr)
	}

	return rules, nil
}

func (f *SQLiteFeedReader) Transfers() ([]*model.Transfer, error) {
	rows, err := f.db.Query(`
SELECT from_stop_id, to_stop_id, from_route_id, to_route_id, from_trip_id, to_trip_id, transfer_type, min_transfer_time
FROM transfers`)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	transfers := []*model.Transfer{}
	for rows.Next() {
		t := &model.Transfer{}
		err := rows.Scan(
			&t.FromStopID,
			&t.ToStopID,
			&t.FromRouteID,
			&t.ToRouteID,
			&t.FromTripID,
			&t.ToTripID,
			&t.TransferType,
			&t.MinTransferTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, t)
	}

	return transfers, nil
}

func (f *SQLiteFeedReader) Attributions() ([]*model.Attribution, error) {
	rows, err := f.db.Query(`
SELECT id, agency_id, route_id, trip_id, organization_name, is_producer, is_operator, is_authority, url
FROM attributions`)
	if err != nil {
		return nil, fmt.Errorf("querying attributions: %w", err)
	}
	defer rows.Close()

	attributions := []*model.Attribution{}
	for rows.Next() {
		a := &model.Attribution{}
		err := rows.Scan(
			&a.ID,
			&a.AgencyID,
			&a.RouteID,
			&a.TripID,
			&a.OrganizationName,
			&a.IsProducer,
			&a.IsOperator,
			&a.IsAuthority,
			&a.URL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning attribution: %w", err)
		}
		attributions = append(attributions, a)
	}

	return attributions, nil
}

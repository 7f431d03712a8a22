package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"tidbyt.dev/gtfslite/model"
)

const (
	PSQLTripBatchSize       = 10000
	PSQLStopTimeBatchSize   = 5000
	PSQLShapePointBatchSize = 5000
)

// Every feed table carries a hash column holding the feed ID, so
// multiple feeds share one schema.
var psqlFeedTables = []struct {
	name  string
	query string
}{
	{"agency", `
CREATE TABLE IF NOT EXISTS agency (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    timezone TEXT NOT NULL,
    lang TEXT,
    phone TEXT,
    fare_url TEXT,
    email TEXT,
    PRIMARY KEY(hash, id)
);`},
	{"stops", `
CREATE TABLE IF NOT EXISTS stops (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    code TEXT,
    name TEXT NOT NULL,
    description TEXT,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    url TEXT,
    location_type INTEGER NOT NULL,
    parent_station TEXT,
    platform_code TEXT,
    PRIMARY KEY(hash, id)
);
CREATE INDEX IF NOT EXISTS stops_parent_station ON stops (parent_station);
`},
	{"routes", `
CREATE TABLE IF NOT EXISTS routes (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    description TEXT,
    type INTEGER NOT NULL,
    url TEXT,
    color TEXT,
    text_color TEXT,
    PRIMARY KEY(hash, id)
);`},
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    short_name TEXT,
    direction_id INTEGER NOT NULL,
    shape_id TEXT,
    block_id TEXT,
    PRIMARY KEY(hash, id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (route_id);
CREATE INDEX IF NOT EXISTS trips_service_id ON trips (service_id);
`},
	{"stop_times", `
CREATE TABLE IF NOT EXISTS stop_times (
    hash TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT,
    PRIMARY KEY(hash, trip_id, stop_sequence)
);
CREATE INDEX IF NOT EXISTS stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX IF NOT EXISTS stop_times_stop_id ON stop_times (stop_id);
`},
	{"calendar", `
CREATE TABLE IF NOT EXISTS calendar (
    hash TEXT NOT NULL,
    service_id TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL,
    PRIMARY KEY(hash, service_id)
);`},
	{"calendar_dates", `
CREATE TABLE IF NOT EXISTS calendar_dates (
    hash TEXT NOT NULL,
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type INTEGER NOT NULL,
    PRIMARY KEY(hash, service_id, date)
);`},
	{"frequencies", `
CREATE TABLE IF NOT EXISTS frequencies (
    hash TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    headway_secs INTEGER NOT NULL,
    exact_times INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS frequencies_hash ON frequencies (hash);
`},
	{"shapes", `
CREATE TABLE IF NOT EXISTS shapes (
    hash TEXT NOT NULL,
    shape_id TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    sequence INTEGER NOT NULL,
    dist_traveled DOUBLE PRECISION,
    PRIMARY KEY(hash, shape_id, sequence)
);`},
	{"fare_attributes", `
CREATE TABLE IF NOT EXISTS fare_attributes (
    hash TEXT NOT NULL,
    fare_id TEXT NOT NULL,
    price DOUBLE PRECISION NOT NULL,
    currency_type TEXT NOT NULL,
    payment_method INTEGER NOT NULL,
    transfers INTEGER NOT NULL,
    agency_id TEXT,
    transfer_duration INTEGER
);
CREATE INDEX IF NOT EXISTS fare_attributes_hash ON fare_attributes (hash);
`},
	{"fare_rules", `
CREATE TABLE IF NOT EXISTS fare_rules (
    hash TEXT NOT NULL,
    fare_id TEXT NOT NULL,
    route_id TEXT,
    origin_id TEXT,
    destination_id TEXT,
    contains_id TEXT
);
CREATE INDEX IF NOT EXISTS fare_rules_hash ON fare_rules (hash);
`},
	{"transfers", `
CREATE TABLE IF NOT EXISTS transfers (
    hash TEXT NOT NULL,
    from_stop_id TEXT,
    to_stop_id TEXT,
    from_route_id TEXT,
    to_route_id TEXT,
    from_trip_id TEXT,
    to_trip_id TEXT,
    transfer_type INTEGER NOT NULL,
    min_transfer_time INTEGER
);
CREATE INDEX IF NOT EXISTS transfers_hash ON transfers (hash);
`},
	{"attributions", `
CREATE TABLE IF NOT EXISTS attributions (
    hash TEXT NOT NULL,
    id TEXT,
    agency_id TEXT,
    route_id TEXT,
    trip_id TEXT,
    organization_name TEXT NOT NULL,
    is_producer INTEGER,
    is_operator INTEGER,
    is_authority INTEGER,
    url TEXT
);
CREATE INDEX IF NOT EXISTS attributions_hash ON attributions (hash);
`},
}

type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	id            string
	db            *sql.DB
	tripBuf       []*model.Trip
	stopTimeBuf   []*model.StopTime
	shapePointBuf []*model.ShapePoint
}

type PSQLFeedReader struct {
	id string
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		drop := "DROP TABLE IF EXISTS feed;\n"
		for _, table := range psqlFeedTables {
			drop += "DROP TABLE IF EXISTS " + table.name + ";\n"
		}
		_, err = db.Exec(drop)
		if err != nil {
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    hash TEXT,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL,
    calendar_start TEXT NOT NULL,
    calendar_end TEXT NOT NULL,
    timezone TEXT NOT NULL,
    max_arrival TEXT NOT NULL,
    max_departure TEXT NOT NULL,
    PRIMARY KEY (hash, url)
);`)
	if err != nil {
		return nil, fmt.Errorf("creating feed table: %w", err)
	}

	return &PSQLStorage{
		db: db,
	}, nil
}

func (s *PSQLStorage) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error) {
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
	paramCount := 1

	if filter.URL != "" {
		conditions = append(conditions, fmt.Sprintf("url = $%d", paramCount))
		params = append(params, filter.URL)
		paramCount++
	}
	if filter.Hash != "" {
		conditions = append(conditions, fmt.Sprintf("hash = $%d", paramCount))
		params = append(params, filter.Hash)
		paramCount++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY retrieved_at DESC"

	rows, err := s.db.Query(query, params...)
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
		feed.RetrievedAt = feed.RetrievedAt.UTC()
		feeds = append(feeds, &feed)
	}

	return feeds, nil
}

func (s *PSQLStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	_, err := s.db.Exec(`
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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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
		feed.RetrievedAt.UTC(),
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

func (s *PSQLStorage) DeleteFeedMetadata(url string, hash string) error {
	_, err := s.db.Exec(`DELETE FROM feed WHERE url = $1 AND hash = $2`, url, hash)
	if err != nil {
		return fmt.Errorf("deleting feed metadata: %w", err)
	}
	return nil
}

func (s *PSQLStorage) GetReader(hash string) (FeedReader, error) {
	return &PSQLFeedReader{
		id: hash,
		db: s.db,
	}, nil
}

func (s *PSQLStorage) GetWriter(hash string) (FeedWriter, error) {
	for _, table := range psqlFeedTables {
		_, err := s.db.Exec(table.query)
		if err != nil {
			return nil, fmt.Errorf("creating %s table: %w", table.name, err)
		}
	}

	// In case feed already exists, delete all records
	for _, table := range psqlFeedTables {
		_, err := s.db.Exec(`DELETE FROM `+table.name+` WHERE hash = $1`, hash)
		if err != nil {
			return nil, fmt.Errorf("deleting %s records: %w", table.name, err)
		}
	}

	return &PSQLFeedWriter{
		id: hash,
		db: s.db,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (w *PSQLFeedWriter) WriteAgency(a *model.Agency) error {
	_, err := w.db.Exec(`
INSERT INTO agency (hash, id, name, url, timezone, lang, phone, fare_url, email)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.id,
		a.ID,
		a.Name,
		a.URL,
		a.Timezone,
		nullString(a.Lang),
		nullString(a.Phone),
		nullString(a.FareURL),
		nullString(a.Email),
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := w.db.Exec(`
INSERT INTO stops (hash, id, code, name, description, lat, lon, url, location_type, parent_station, platform_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.id,
		stop.ID,
		stop.Code,
		stop.Name,
		stop.Desc,
		stop.Lat,
		stop.Lon,
		stop.URL,
		stop.LocationType,
		nullString(stop.ParentStation),
		stop.PlatformCode,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteRoute(route *model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (hash, id, agency_id, short_name, long_name, description, type, url, color, text_color)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		w.id,
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

// Runs a COPY of rows into table within a single transaction.
func (w *PSQLFeedWriter) copyIn(table string, columns []string, rows [][]interface{}) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(table, append([]string{"hash"}, columns...)...))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.Exec(append([]interface{}{w.id}, row...)...)
		if err != nil {
			return fmt.Errorf("COPY %s: %w", table, err)
		}
	}

	_, err = stmt.Exec()
	if err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (w *PSQLFeedWriter) BeginTrips() error {
	return nil
}

func (w *PSQLFeedWriter) WriteTrip(trip *model.Trip) error {
	w.tripBuf = append(w.tripBuf, trip)

	if len(w.tripBuf) >= PSQLTripBatchSize {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) EndTrips() error {
	if len(w.tripBuf) > 0 {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}
	return nil
}

func (w *PSQLFeedWriter) flushTrips() error {
	rows := make([][]interface{}, 0, len(w.tripBuf))
	for _, trip := range w.tripBuf {
		rows = append(rows, []interface{}{
			trip.ID,
			trip.RouteID,
			trip.ServiceID,
			trip.Headsign,
			trip.ShortName,
			trip.DirectionID,
			trip.ShapeID,
			trip.BlockID,
		})
	}

	err := w.copyIn("trips", []string{
		"id", "route_id", "service_id", "headsign", "short_name", "direction_id", "shape_id", "block_id",
	}, rows)
	if err != nil {
		return err
	}

	w.tripBuf = nil
	return nil
}

func (w *PSQLFeedWriter) WriteCalendar(cal *model.Calendar) error {
	days := weekdayFlags(cal.Weekday)

	_, err := w.db.Exec(`
INSERT INTO calendar (hash, service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.id,
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

func (w *PSQLFeedWriter) WriteCalendarDate(cd *model.CalendarDate) error {
	_, err := w.db.Exec(`
INSERT INTO calendar_dates (hash, service_id, date, exception_type)
VALUES ($1, $2, $3, $4)`,
		w.id,
		cd.ServiceID,
		cd.Date,
		cd.ExceptionType,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar date: %w", err)
	}

	return nil
}

func (w *PSQLFeedWriter) BeginStopTimes() error {
	return nil
}

func (w *PSQLFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	w.stopTimeBuf = append(w.stopTimeBuf, stopTime)

	if len(w.stopTimeBuf) >= PSQLStopTimeBatchSize {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) EndStopTimes() error {
	if len(w.stopTimeBuf) > 0 {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}
	return nil
}

func (w *PSQLFeedWriter) flushStopTimes() error {
	rows := make([][]interface{}, 0, len(w.stopTimeBuf))
	for _, st := range w.stopTimeBuf {
		rows = append(rows, []interface{}{
			st.TripID,
			st.StopID,
			st.StopSequence,
			int(st.Arrival),
			int(st.Departure),
			st.Headsign,
		})
	}

	err := w.copyIn("stop_times", []string{
		"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "headsign",
	}, rows)
	if err != nil {
		return err
	}

	w.stopTimeBuf = nil
	return nil
}

func (w *PSQLFeedWriter) WriteFrequency(freq *model.Frequency) error {
	_, err := w.db.Exec(`
INSERT INTO frequencies (hash, trip_id, start_time, end_time, headway_secs, exact_times)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.id,
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

// Shapes can be as large as stop_times, so points are batched
// the same way.
func (w *PSQLFeedWriter) WriteShapePoint(p *model.ShapePoint) error {
	w.shapePointBuf = append(w.shapePointBuf, p)
	if len(w.shapePointBuf) >= PSQLShapePointBatchSize {
		return w.flushShapePoints()
	}
	return nil
}

func (w *PSQLFeedWriter) flushShapePoints() error {
	rows := make([][]interface{}, 0, len(w.shapePointBuf))
	for _, p := range w.shapePointBuf {
		rows = append(rows, []interface{}{p.ShapeID, p.Lat, p.Lon, p.Sequence, p.DistTraveled})
	}

	err := w.copyIn("shapes", []string{"shape_id", "lat", "lon", "sequence", "dist_traveled"}, rows)
	if err != nil {
		return fmt.Errorf("flushing shapes: %w", err)
	}

	w.shapePointBuf = nil
	return nil
}

func (w *PSQLFeedWriter) WriteFareAttribute(fa *model.FareAttribute) error {
	_, err := w.db.Exec(`
INSERT INTO fare_attributes (hash, fare_id, price, currency_type, payment_method, transfers, agency_id, transfer_duration)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.id,
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

func (w *PSQLFeedWriter) WriteFareRule(fr *model.FareRule) error {
	_, err := w.db.Exec(`
INSERT INTO fare_rules (hash, fare_id, route_id, origin_id, destination_id, contains_id)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.id,
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

func (w *PSQLFeedWriter) WriteTransfer(t *model.Transfer) error {
	_, err := w.db.Exec(`
INSERT INTO transfers (hash, from_stop_id, to_stop_id, from_route_id, to_route_id, from_trip_id, to_trip_id, transfer_type, min_transfer_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.id,
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

func (w *PSQLFeedWriter) WriteAttribution(a *model.Attribution) error {
	_, err := w.db.Exec(`
INSERT INTO attributions (hash, id, agency_id, route_id, trip_id, organization_name, is_producer, is_operator, is_authority, url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		w.id,
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

func (w *PSQLFeedWriter) Close() error {
	if len(w.shapePointBuf) > 0 {
		if err := w.flushShapePoints(); err != nil {
			return err
		}
	}

	_, err := w.db.Exec(`ANALYZE`)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	return nil
}

func (r *PSQLFeedReader) Agencies() ([]*model.Agency, error) {
	rows, err := r.db.Query(`
SELECT id, name, url, timezone, lang, phone, fare_url, email
FROM agency
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	agencies := []*model.Agency{}
	for rows.Next() {
		a := &model.Agency{}
		var lang, phone, fareURL, email sql.NullString
		err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Timezone, &lang, &phone, &fareURL, &email)
		if err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		a.Lang = lang.String
		a.Phone = phone.String
		a.FareURL = fareURL.String
		a.Email = email.String
		agencies = append(agencies, a)
	}

	return agencies, nil
}

func (r *PSQLFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := r.db.Query(`
SELECT id, code, name, description, lat, lon, url, location_type, parent_station, platform_code
FROM stops
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		s := &model.Stop{}
		parentStation := sql.NullString{}
		err := rows.Scan(
			&s.ID,
			&s.Code,
			&s.Name,
			&s.Desc,
			&s.Lat,
			&s.Lon,
			&s.URL,
			&s.LocationType,
			&parentStation,
			&s.PlatformCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}

		if parentStation.Valid {
			s.ParentStation = parentStation.String
		}

		stops = append(stops, s)
	}

	return stops, nil
}

func (r *PSQLFeedReader) Routes() ([]*model.Route, error) {
	rows, err := r.db.Query(`
SELECT id, agency_id, short_name, long_name, description, type, url, color, text_color
FROM routes
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		route := &model.Route{}
		err := rows.Scan(
			&route.ID,
			&route.AgencyID,
			&route.ShortName,
			&route.LongName,
			&route.Desc,
			&route.Type,
			&route.URL,
			&route.Color,
			&route.TextColor,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func (r *PSQLFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := r.db.Query(`
SELECT id, route_id, service_id, headsign, short_name, direction_id, shape_id, block_id
FROM trips
WHERE hash = $1`, r.id)
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

func (r *PSQLFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, headsign, stop_sequence, arrival_time, departure_time
FROM stop_times
WHERE hash = $1
ORDER BY trip_id, stop_sequence`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		var arrival, departure int
		err := rows.Scan(
			&st.TripID,
			&st.StopID,
			&st.Headsign,
			&st.StopSequence,
			&arrival,
			&departure,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time: %w", err)
		}
		st.Arrival = model.Time(arrival)
		st.Departure = model.Time(departure)
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (r *PSQLFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := r.db.Query(`
SELECT service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday
FROM calendar
WHERE hash = $1`, r.id)
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

func (r *PSQLFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	rows, err := r.db.Query(`
SELECT service_id, date, exception_type
FROM calendar_dates
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying calendar dates: %w", err)
	}
	defer rows.Close()

	calendarDates := []*model.CalendarDate{}
	for rows.Next() {
		cd := &model.CalendarDate{}
		err := rows.Scan(
			&cd.ServiceID,
			&cd.Date,
			&cd.ExceptionType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar date: %w", err)
		}
		calendarDates = append(calendarDates, cd)
	}

	return calendarDates, nil
}

func (r *PSQLFeedReader) Frequencies() ([]*model.Frequency, error) {
	rows, err := r.db.Query(`
SELECT trip_id, start_time, end_time, headway_secs, exact_times
FROM frequencies
WHERE hash = $1`, r.id)
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

func (r *PSQLFeedReader) ShapePoints() ([]*model.ShapePoint, error) {
	rows, err := r.db.Query(`
SELECT shape_id, lat, lon, sequence, dist_traveled
FROM shapes
WHERE hash = $1
ORDER BY shape_id, sequence`, r.id)
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

func (r *PSQLFeedReader) FareAttributes() ([]*model.FareAttribute, error) {
	rows, err := r.db.Query(`
SELECT fare_id, price, currency_type, payment_method, transfers, agency_id, transfer_duration
FROM fare_attributes
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying fare attributes: %w", err)
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

func (r *PSQLFeedReader) FareRules() ([]*model.FareRule, error) {
	rows, err := r.db.Query(`
SELECT fare_id, route_id, origin_id, destination_id, contains_id
FROM fare_rules
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying fare rules: %w", err)
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

func (r *PSQLFeedReader) Transfers() ([]*model.Transfer, error) {
	rows, err := r.db.Query(`
SELECT from_stop_id, to_stop_id, from_route_id, to_route_id, from_trip_id, to_trip_id, transfer_type, min_transfer_time
FROM transfers
WHERE hash = $1`, r.id)
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

func (r *PSQLFeedReader) Attributions() ([]*model.Attribution, error) {
	rows, err := r.db.Query(`
SELECT id, agency_id, route_id, trip_id, organization_name, is_producer, is_operator, is_authority, url
FROM attributions
WHERE hash = $1`, r.id)
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

func (r *PSQLFeedReader) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	weekday := strings.ToLower(parsedDate.Weekday().String())

	rows, err := r.db.Query(`
WITH
Exceptions AS (
        SELECT service_id, exception_type
        FROM calendar_dates
        WHERE hash = $1 AND
              date = $2
),
Regular AS (
        SELECT service_id
        FROM calendar
        WHERE hash = $1 AND
              `+weekday+` = 1 AND
              start_date <= $2 AND
              end_date >= $2
)
SELECT service_id FROM Regular
WHERE service_id NOT IN (
	SELECT service_id FROM Exceptions WHERE exception_type = 2
)
UNION
SELECT service_id FROM Exceptions
WHERE exception_type = 1 AND service_id NOT IN (
	SELECT service_id FROM Exceptions WHERE exception_type = 2
)
`, r.id, date)
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

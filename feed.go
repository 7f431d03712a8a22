package gtfslite

import (
	"fmt"
	"sort"
	"sync"

	"tidbyt.dev/gtfslite/internal/logger"
	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

// All records of a static feed.
type Tables struct {
	Agencies       []*model.Agency
	Stops          []*model.Stop
	Routes         []*model.Route
	Trips          []*model.Trip
	StopTimes      []*model.StopTime
	Calendars      []*model.Calendar
	CalendarDates  []*model.CalendarDate
	Frequencies    []*model.Frequency
	ShapePoints    []*model.ShapePoint
	FareAttributes []*model.FareAttribute
	FareRules      []*model.FareRule
	Transfers      []*model.Transfer
	Attributions   []*model.Attribution
}

// Reads every table from a feed in storage.
func ReadTables(reader storage.FeedReader) (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Agencies, err = reader.Agencies(); err != nil {
		return nil, fmt.Errorf("reading agencies: %w", err)
	}
	if t.Stops, err = reader.Stops(); err != nil {
		return nil, fmt.Errorf("reading stops: %w", err)
	}
	if t.Routes, err = reader.Routes(); err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	if t.Trips, err = reader.Trips(); err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}
	if t.StopTimes, err = reader.StopTimes(); err != nil {
		return nil, fmt.Errorf("reading stop times: %w", err)
	}
	if t.Calendars, err = reader.Calendars(); err != nil {
		return nil, fmt.Errorf("reading calendars: %w", err)
	}
	if t.CalendarDates, err = reader.CalendarDates(); err != nil {
		return nil, fmt.Errorf("reading calendar dates: %w", err)
	}
	if t.Frequencies, err = reader.Frequencies(); err != nil {
		return nil, fmt.Errorf("reading frequencies: %w", err)
	}
	if t.ShapePoints, err = reader.ShapePoints(); err != nil {
		return nil, fmt.Errorf("reading shapes: %w", err)
	}
	if t.FareAttributes, err = reader.FareAttributes(); err != nil {
		return nil, fmt.Errorf("reading fare attributes: %w", err)
	}
	if t.FareRules, err = reader.FareRules(); err != nil {
		return nil, fmt.Errorf("reading fare rules: %w", err)
	}
	if t.Transfers, err = reader.Transfers(); err != nil {
		return nil, fmt.Errorf("reading transfers: %w", err)
	}
	if t.Attributions, err = reader.Attributions(); err != nil {
		return nil, fmt.Errorf("reading attributions: %w", err)
	}

	return t, nil
}

// Writes all tables to writer, and closes it.
func (t *Tables) Write(writer storage.FeedWriter) error {
	for _, a := range t.Agencies {
		if err := writer.WriteAgency(a); err != nil {
			return fmt.Errorf("writing agency: %w", err)
		}
	}
	for _, s := range t.Stops {
		if err := writer.WriteStop(s); err != nil {
			return fmt.Errorf("writing stop: %w", err)
		}
	}
	for _, r := range t.Routes {
		if err := writer.WriteRoute(r); err != nil {
			return fmt.Errorf("writing route: %w", err)
		}
	}
	for _, c := range t.Calendars {
		if err := writer.WriteCalendar(c); err != nil {
			return fmt.Errorf("writing calendar: %w", err)
		}
	}
	for _, cd := range t.CalendarDates {
		if err := writer.WriteCalendarDate(cd); err != nil {
			return fmt.Errorf("writing calendar date: %w", err)
		}
	}

	if err := writer.BeginTrips(); err != nil {
		return fmt.Errorf("beginning trips: %w", err)
	}
	for _, trip := range t.Trips {
		if err := writer.WriteTrip(trip); err != nil {
			return fmt.Errorf("writing trip: %w", err)
		}
	}
	if err := writer.EndTrips(); err != nil {
		return fmt.Errorf("ending trips: %w", err)
	}

	if err := writer.BeginStopTimes(); err != nil {
		return fmt.Errorf("beginning stop times: %w", err)
	}
	for _, st := range t.StopTimes {
		if err := writer.WriteStopTime(st); err != nil {
			return fmt.Errorf("writing stop time: %w", err)
		}
	}
	if err := writer.EndStopTimes(); err != nil {
		return fmt.Errorf("ending stop times: %w", err)
	}

	for _, fr := range t.Frequencies {
		if err := writer.WriteFrequency(fr); err != nil {
			return fmt.Errorf("writing frequency: %w", err)
		}
	}
	for _, p := range t.ShapePoints {
		if err := writer.WriteShapePoint(p); err != nil {
			return fmt.Errorf("writing shape point: %w", err)
		}
	}
	for _, fa := range t.FareAttributes {
		if err := writer.WriteFareAttribute(fa); err != nil {
			return fmt.Errorf("writing fare attribute: %w", err)
		}
	}
	for _, fr := range t.FareRules {
		if err := writer.WriteFareRule(fr); err != nil {
			return fmt.Errorf("writing fare rule: %w", err)
		}
	}
	for _, tr := range t.Transfers {
		if err := writer.WriteTransfer(tr); err != nil {
			return fmt.Errorf("writing transfer: %w", err)
		}
	}
	for _, a := range t.Attributions {
		if err := writer.WriteAttribution(a); err != nil {
			return fmt.Errorf("writing attribution: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing writer: %w", err)
	}
	return nil
}

// Shallow copy. Records are shared, slices are not.
func (t *Tables) clone() *Tables {
	return &Tables{
		Agencies:       append([]*model.Agency{}, t.Agencies...),
		Stops:          append([]*model.Stop{}, t.Stops...),
		Routes:         append([]*model.Route{}, t.Routes...),
		Trips:          append([]*model.Trip{}, t.Trips...),
		StopTimes:      append([]*model.StopTime{}, t.StopTimes...),
		Calendars:      append([]*model.Calendar{}, t.Calendars...),
		CalendarDates:  append([]*model.CalendarDate{}, t.CalendarDates...),
		Frequencies:    append([]*model.Frequency{}, t.Frequencies...),
		ShapePoints:    append([]*model.ShapePoint{}, t.ShapePoints...),
		FareAttributes: append([]*model.FareAttribute{}, t.FareAttributes...),
		FareRules:      append([]*model.FareRule{}, t.FareRules...),
		Transfers:      append([]*model.Transfer{}, t.Transfers...),
		Attributions:   append([]*model.Attribution{}, t.Attributions...),
	}
}

// Secondary indices over Tables, one per join path used by
// queries. Rebuilt from scratch whenever the tables change.
type index struct {
	stops  map[string]*model.Stop
	routes map[string]*model.Route
	trips  map[string]*model.Trip

	tripsByService    map[string][]*model.Trip
	tripsByRoute      map[string][]*model.Trip
	stopTimesByTrip   map[string][]*model.StopTime // ordered by stop_sequence
	stopTimesByStop   map[string][]*model.StopTime
	frequenciesByTrip map[string][]*model.Frequency
	exceptionsByDate  map[string][]*model.CalendarDate
	childStops        map[string][]string

	// Min start date and max end date in calendar.txt. Empty if
	// there are no calendars.
	calendarStart string
	calendarEnd   string

	// Set if any trip has a direction_id.
	hasDirection bool
}

func buildIndex(t *Tables) *index {
	idx := &index{
		stops:             make(map[string]*model.Stop, len(t.Stops)),
		routes:            make(map[string]*model.Route, len(t.Routes)),
		trips:             make(map[string]*model.Trip, len(t.Trips)),
		tripsByService:    map[string][]*model.Trip{},
		tripsByRoute:      map[string][]*model.Trip{},
		stopTimesByTrip:   map[string][]*model.StopTime{},
		stopTimesByStop:   map[string][]*model.StopTime{},
		frequenciesByTrip: map[string][]*model.Frequency{},
		exceptionsByDate:  map[string][]*model.CalendarDate{},
		childStops:        map[string][]string{},
	}

	for _, s := range t.Stops {
		idx.stops[s.ID] = s
		if s.ParentStation != "" {
			idx.childStops[s.ParentStation] = append(idx.childStops[s.ParentStation], s.ID)
		}
	}
	for _, r := range t.Routes {
		idx.routes[r.ID] = r
	}
	for _, trip := range t.Trips {
		idx.trips[trip.ID] = trip
		idx.tripsByService[trip.ServiceID] = append(idx.tripsByService[trip.ServiceID], trip)
		idx.tripsByRoute[trip.RouteID] = append(idx.tripsByRoute[trip.RouteID], trip)
		if trip.DirectionID != model.DirectionUnset {
			idx.hasDirection = true
		}
	}
	for _, st := range t.StopTimes {
		idx.stopTimesByTrip[st.TripID] = append(idx.stopTimesByTrip[st.TripID], st)
		idx.stopTimesByStop[st.StopID] = append(idx.stopTimesByStop[st.StopID], st)
	}
	for _, sts := range idx.stopTimesByTrip {
		sort.Slice(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
	}
	for _, f := range t.Frequencies {
		idx.frequenciesByTrip[f.TripID] = append(idx.frequenciesByTrip[f.TripID], f)
	}
	for _, cd := range t.CalendarDates {
		idx.exceptionsByDate[cd.Date] = append(idx.exceptionsByDate[cd.Date], cd)
	}
	for _, c := range t.Calendars {
		if idx.calendarStart == "" || c.StartDate < idx.calendarStart {
			idx.calendarStart = c.StartDate
		}
		if idx.calendarEnd == "" || c.EndDate > idx.calendarEnd {
			idx.calendarEnd = c.EndDate
		}
	}

	return idx
}

// Feed is an in-memory static GTFS feed, indexed for the calendar
// and aggregation queries.
//
// Queries may run concurrently. DeleteRoutes and Restore take an
// exclusive lock, so queries never see a partially modified feed.
type Feed struct {
	// Set when the feed was loaded through a Manager.
	Metadata *storage.FeedMetadata

	mu     sync.RWMutex
	tables *Tables
	idx    *index
}

// Builds a Feed from tables. The feed takes ownership of the
// records; callers must not modify them afterwards.
func NewFeed(tables *Tables) (*Feed, error) {
	if len(tables.Calendars) == 0 && len(tables.CalendarDates) == 0 {
		return nil, ErrFeedNotValid
	}

	f := &Feed{
		tables: tables.clone(),
	}
	f.idx = buildIndex(f.tables)

	logger.Debug(
		"feed loaded",
		"agencies", len(tables.Agencies),
		"routes", len(tables.Routes),
		"trips", len(tables.Trips),
		"stop_times", len(tables.StopTimes),
		"calendars", len(tables.Calendars),
		"calendar_dates", len(tables.CalendarDates),
		"frequencies", len(tables.Frequencies),
	)

	return f, nil
}

// Reads a feed from storage.
func LoadFeed(reader storage.FeedReader) (*Feed, error) {
	tables, err := ReadTables(reader)
	if err != nil {
		return nil, err
	}
	return NewFeed(tables)
}

// Copy of the feed's current tables.
func (f *Feed) Tables() *Tables {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tables.clone()
}

// Writes the feed's current tables to writer, and closes it.
func (f *Feed) Save(writer storage.FeedWriter) error {
	return f.Tables().Write(writer)
}

func (f *Feed) Route(routeID string) (*model.Route, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.idx.routes[routeID]
	return r, ok
}

func (f *Feed) Stop(stopID string) (*model.Stop, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.idx.stops[stopID]
	return s, ok
}

// Overview of a feed's contents.
type FeedSummary struct {
	Agencies    []string `json:"agencies"`
	Stops       int      `json:"total_stops"`
	Routes      int      `json:"total_routes"`
	Trips       int      `json:"total_trips"`
	StopTimes   int      `json:"total_stops_made"`
	Shapes      int      `json:"total_shapes"`
	ShapePoints int      `json:"total_shape_points"`
	FirstDate   string   `json:"first_date"`
	LastDate    string   `json:"last_date"`
}

// First and last date come from calendar.txt, or from
// calendar_dates.txt when there is no calendar.
func (f *Feed) Summary() *FeedSummary {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := &FeedSummary{
		Agencies:    []string{},
		Stops:       len(f.tables.Stops),
		Routes:      len(f.tables.Routes),
		Trips:       len(f.tables.Trips),
		StopTimes:   len(f.tables.StopTimes),
		ShapePoints: len(f.tables.ShapePoints),
		FirstDate:   f.idx.calendarStart,
		LastDate:    f.idx.calendarEnd,
	}

	for _, a := range f.tables.Agencies {
		s.Agencies = append(s.Agencies, a.Name)
	}
	sort.Strings(s.Agencies)

	shapes := map[string]bool{}
	for _, p := range f.tables.ShapePoints {
		shapes[p.ShapeID] = true
	}
	s.Shapes = len(shapes)

	if len(f.tables.Calendars) == 0 {
		for _, cd := range f.tables.CalendarDates {
			if s.FirstDate == "" || cd.Date < s.FirstDate {
				s.FirstDate = cd.Date
			}
			if s.LastDate == "" || cd.Date > s.LastDate {
				s.LastDate = cd.Date
			}
		}
	}

	return s
}

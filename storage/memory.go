package storage

import (
	"fmt"
	"sort"
	"time"

	"tidbyt.dev/gtfslite/model"
)

// In memory implementation of Storage below

type memoryMetadataKey struct {
	URL  string
	Hash string
}

type MemoryStorage struct {
	Feeds    map[string]*MemoryStorageFeed
	Metadata map[memoryMetadataKey]*FeedMetadata
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds:    map[string]*MemoryStorageFeed{},
		Metadata: map[memoryMetadataKey]*FeedMetadata{},
	}
}

func (s *MemoryStorage) ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error) {
	feeds := []*FeedMetadata{}
	for _, metadata := range s.Metadata {
		if filter.URL != "" && metadata.URL != filter.URL {
			continue
		}
		if filter.Hash != "" && metadata.Hash != filter.Hash {
			continue
		}
		feeds = append(feeds, metadata)
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.After(feeds[j].RetrievedAt)
	})
	return feeds, nil
}

func (s *MemoryStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	s.Metadata[memoryMetadataKey{feed.URL, feed.Hash}] = feed
	return nil
}

func (s *MemoryStorage) DeleteFeedMetadata(url string, hash string) error {
	key := memoryMetadataKey{url, hash}
	if _, found := s.Metadata[key]; !found {
		return fmt.Errorf("feed not found")
	}
	delete(s.Metadata, key)
	return nil
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	f, ok := s.Feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	f := &MemoryStorageFeed{
		agency:       map[string]*model.Agency{},
		stops:        map[string]*model.Stop{},
		routes:       map[string]*model.Route{},
		trips:        map[string]*model.Trip{},
		calendar:     map[string]*model.Calendar{},
		calendarDate: map[string][]*model.CalendarDate{},
	}

	s.Feeds[feedID] = f

	return f, nil
}

type MemoryStorageFeed struct {
	agency         map[string]*model.Agency
	stops          map[string]*model.Stop
	routes         map[string]*model.Route
	trips          map[string]*model.Trip
	stopTimes      []*model.StopTime
	calendar       map[string]*model.Calendar
	calendarDate   map[string][]*model.CalendarDate
	frequencies    []*model.Frequency
	shapePoints    []*model.ShapePoint
	fareAttributes []*model.FareAttribute
	fareRules      []*model.FareRule
	transfers      []*model.Transfer
	attributions   []*model.Attribution
}

func (f *MemoryStorageFeed) WriteAgency(agency *model.Agency) error {
	f.agency[agency.ID] = agency
	return nil
}

func (f *MemoryStorageFeed) WriteStop(stop *model.Stop) error {
	f.stops[stop.ID] = stop
	return nil
}

func (f *MemoryStorageFeed) WriteRoute(route *model.Route) error {
	f.routes[route.ID] = route
	return nil
}

func (f *MemoryStorageFeed) BeginTrips() error {
	return nil
}

func (f *MemoryStorageFeed) WriteTrip(trip *model.Trip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *MemoryStorageFeed) EndTrips() error {
	return nil
}

func (f *MemoryStorageFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryStorageFeed) WriteStopTime(stopTime *model.StopTime) error {
	f.stopTimes = append(f.stopTimes, stopTime)
	return nil
}

func (f *MemoryStorageFeed) EndStopTimes() error {
	return nil
}

func (f *MemoryStorageFeed) WriteCalendar(row *model.Calendar) error {
	f.calendar[row.ServiceID] = row
	return nil
}

func (f *MemoryStorageFeed) WriteCalendarDate(row *model.CalendarDate) error {
	f.calendarDate[row.ServiceID] = append(f.calendarDate[row.ServiceID], row)
	return nil
}

func (f *MemoryStorageFeed) WriteFrequency(row *model.Frequency) error {
	f.frequencies = append(f.frequencies, row)
	return nil
}

func (f *MemoryStorageFeed) WriteShapePoint(row *model.ShapePoint) error {
	f.shapePoints = append(f.shapePoints, row)
	return nil
}

func (f *MemoryStorageFeed) WriteFareAttribute(row *model.FareAttribute) error {
	f.fareAttributes = append(f.fareAttributes, row)
	return nil
}

func (f *MemoryStorageFeed) WriteFareRule(row *model.FareRule) error {
	f.fareRules = append(f.fareRules, row)
	return nil
}

func (f *MemoryStorageFeed) WriteTransfer(row *model.Transfer) error {
	f.transfers = append(f.transfers, row)
	return nil
}

func (f *MemoryStorageFeed) WriteAttribution(row *model.Attribution) error {
	f.attributions = append(f.attributions, row)
	return nil
}

func (f *MemoryStorageFeed) Close() error {
	return nil
}

func (f *MemoryStorageFeed) Agencies() ([]*model.Agency, error) {
	agencies := []*model.Agency{}
	for _, v := range f.agency {
		agencies = append(agencies, v)
	}
	return agencies, nil
}

func (f *MemoryStorageFeed) Stops() ([]*model.Stop, error) {
	stops := []*model.Stop{}
	for _, v := range f.stops {
		stops = append(stops, v)
	}
	return stops, nil
}

func (f *MemoryStorageFeed) Routes() ([]*model.Route, error) {
	routes := []*model.Route{}
	for _, v := range f.routes {
		routes = append(routes, v)
	}
	return routes, nil
}

func (f *MemoryStorageFeed) Trips() ([]*model.Trip, error) {
	trips := []*model.Trip{}
	for _, v := range f.trips {
		trips = append(trips, v)
	}
	return trips, nil
}

func (f *MemoryStorageFeed) StopTimes() ([]*model.StopTime, error) {
	return append([]*model.StopTime{}, f.stopTimes...), nil
}

func (f *MemoryStorageFeed) Calendars() ([]*model.Calendar, error) {
	cals := []*model.Calendar{}
	for _, v := range f.calendar {
		cals = append(cals, v)
	}
	return cals, nil
}

func (f *MemoryStorageFeed) CalendarDates() ([]*model.CalendarDate, error) {
	cds := []*model.CalendarDate{}
	for _, v := range f.calendarDate {
		cds = append(cds, v...)
	}
	return cds, nil
}

func (f *MemoryStorageFeed) Frequencies() ([]*model.Frequency, error) {
	return append([]*model.Frequency{}, f.frequencies...), nil
}

func (f *MemoryStorageFeed) ShapePoints() ([]*model.ShapePoint, error) {
	return append([]*model.ShapePoint{}, f.shapePoints...), nil
}

func (f *MemoryStorageFeed) FareAttributes() ([]*model.FareAttribute, error) {
	return append([]*model.FareAttribute{}, f.fareAttributes...), nil
}

func (f *MemoryStorageFeed) FareRules() ([]*model.FareRule, error) {
	return append([]*model.FareRule{}, f.fareRules...), nil
}

func (f *MemoryStorageFeed) Transfers() ([]*model.Transfer, error) {
	return append([]*model.Transfer{}, f.transfers...), nil
}

func (f *MemoryStorageFeed) Attributions() ([]*model.Attribution, error) {
	return append([]*model.Attribution{}, f.attributions...), nil
}

func (f *MemoryStorageFeed) ActiveServices(date string) ([]string, error) {
	services := map[string]bool{}

	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	for _, calendar := range f.calendar {
		if !calendar.RunsOn(parsedDate.Weekday()) {
			continue
		}
		if calendar.StartDate > date {
			continue
		}
		if calendar.EndDate < date {
			continue
		}
		services[calendar.ServiceID] = true
	}

	// Removals are applied last, so they win over additions.
	for _, exceptionType := range []model.ExceptionType{model.ExceptionAdded, model.ExceptionRemoved} {
		for _, cds := range f.calendarDate {
			for _, cd := range cds {
				if cd.Date == date && cd.ExceptionType == exceptionType {
					services[cd.ServiceID] = exceptionType == model.ExceptionAdded
				}
			}
		}
	}

	activeServices := []string{}
	for serviceID, active := range services {
		if active {
			activeServices = append(activeServices, serviceID)
		}
	}

	return activeServices, nil
}

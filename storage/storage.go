package storage

import (
	"time"

	"tidbyt.dev/gtfslite/model"
)

type Storage interface {
	// Retrieves all feed metadata records matching the given
	// filter, most recently retrieved first.
	ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error)

	// Writes a FeedMetadata record. If a record with the same URL
	// and hash exists, it is updated.
	WriteFeedMetadata(metadata *FeedMetadata) error

	DeleteFeedMetadata(url string, hash string) error

	// Gets a reader for the feed with the given ID.
	GetReader(feed string) (FeedReader, error)

	// Gets a writer for the feed with the given ID. Any data
	// previously written under the ID is discarded.
	GetWriter(feed string) (FeedWriter, error)
}

type ListFeedsFilter struct {
	// If set, only include feeds with the given URL.
	URL string

	// If set, only include feeds with the given hash.
	Hash string
}

// Metadata for a parsed static GTFS feed. The parsed data can be
// accessed via FeedReader, using Hash as feed ID.
type FeedMetadata struct {
	URL               string
	Hash              string
	RetrievedAt       time.Time
	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
	MaxArrival        string
	MaxDeparture      string
}

// Writes GTFS records for a single feed.
//
// As trips.txt and stop_times.txt tend to be very large, the Begin
// and End methods are called around the corresponding Write calls,
// allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteAgency(agency *model.Agency) error
	WriteStop(stop *model.Stop) error
	WriteRoute(route *model.Route) error
	WriteTrip(trip *model.Trip) error
	BeginTrips() error
	EndTrips() error
	WriteCalendar(cal *model.Calendar) error
	WriteCalendarDate(caldate *model.CalendarDate) error
	WriteStopTime(stopTime *model.StopTime) error
	BeginStopTimes() error
	EndStopTimes() error
	WriteFrequency(freq *model.Frequency) error
	WriteShapePoint(point *model.ShapePoint) error
	WriteFareAttribute(fare *model.FareAttribute) error
	WriteFareRule(rule *model.FareRule) error
	WriteTransfer(transfer *model.Transfer) error
	WriteAttribution(attribution *model.Attribution) error
	Close() error
}

type FeedReader interface {
	Agencies() ([]*model.Agency, error)
	Stops() ([]*model.Stop, error)
	Routes() ([]*model.Route, error)
	Trips() ([]*model.Trip, error)
	StopTimes() ([]*model.StopTime, error)
	Calendars() ([]*model.Calendar, error)
	CalendarDates() ([]*model.CalendarDate, error)
	Frequencies() ([]*model.Frequency, error)
	ShapePoints() ([]*model.ShapePoint, error)
	FareAttributes() ([]*model.FareAttribute, error)
	FareRules() ([]*model.FareRule, error)
	Transfers() ([]*model.Transfer, error)
	Attributions() ([]*model.Attribution, error)

	// Services IDs for all services active on the given
	// date. Date is given as YYYYMMDD.
	ActiveServices(date string) ([]string, error)
}

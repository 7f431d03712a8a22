package model

import (
	"time"
)

// Holds all external facing types and constants.

type LocationType int

const (
	LocationTypeStop LocationType = iota
	LocationTypeStation
	LocationTypeEntranceExit
	LocationTypeGenericNode
	LocationTypeBoardingArea
)

type RouteType int

const (
	RouteTypeTram       RouteType = 0
	RouteTypeSubway     RouteType = 1
	RouteTypeRail       RouteType = 2
	RouteTypeBus        RouteType = 3
	RouteTypeFerry      RouteType = 4
	RouteTypeCable      RouteType = 5
	RouteTypeAerial     RouteType = 6
	RouteTypeFunicular  RouteType = 7
	RouteTypeTrolleybus RouteType = 11
	RouteTypeMonorail   RouteType = 12
)

type ExceptionType int8

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

// Trips without a direction_id carry DirectionUnset.
const DirectionUnset int8 = -1

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
	Lang     string
	Phone    string
	FareURL  string
	Email    string
}

// Weekday is a bitmask with bit n set when the service runs on
// time.Weekday(n).
type Calendar struct {
	ServiceID string
	StartDate string
	EndDate   string
	Weekday   int8
}

func (c *Calendar) RunsOn(day time.Weekday) bool {
	return c.Weekday&(1<<day) != 0
}

// Reports whether date (YYYYMMDD) is within the calendar's range.
func (c *Calendar) Covers(date string) bool {
	return c.StartDate <= date && date <= c.EndDate
}

type CalendarDate struct {
	ServiceID     string
	Date          string
	ExceptionType ExceptionType
}

type Stop struct {
	ID            string
	Code          string
	Name          string
	Desc          string
	Lat           float64
	Lon           float64
	URL           string
	LocationType  LocationType
	ParentStation string
	PlatformCode  string
}

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	ShortName   string
	DirectionID int8
	ShapeID     string
	BlockID     string
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Desc      string
	Type      RouteType
	URL       string
	Color     string
	TextColor string
}

type StopTime struct {
	TripID       string
	StopID       string
	Headsign     string
	StopSequence uint32
	Arrival      Time
	Departure    Time
}

// A frequency row turns its trip into a template, replayed every
// HeadwaySecs between StartTime and EndTime.
type Frequency struct {
	TripID      string
	StartTime   Time
	EndTime     Time
	HeadwaySecs int
	ExactTimes  int8
}

type ShapePoint struct {
	ShapeID      string
	Lat          float64
	Lon          float64
	Sequence     uint32
	DistTraveled float64
}

type FareAttribute struct {
	FareID        string
	Price         float64
	CurrencyType  string
	PaymentMethod int8
	// -1 when unlimited transfers are permitted
	Transfers        int8
	AgencyID         string
	TransferDuration int
}

type FareRule struct {
	FareID        string
	RouteID       string
	OriginID      string
	DestinationID string
	ContainsID    string
}

type Transfer struct {
	FromStopID      string
	ToStopID        string
	FromRouteID     string
	ToRouteID       string
	FromTripID      string
	ToTripID        string
	TransferType    int8
	MinTransferTime int
}

type Attribution struct {
	ID               string
	AgencyID         string
	RouteID          string
	TripID           string
	OrganizationName string
	IsProducer       int8
	IsOperator       int8
	IsAuthority      int8
	URL              string
}

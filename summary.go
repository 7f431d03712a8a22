package gtfslite

import (
	"fmt"
	"sort"

	"tidbyt.dev/gtfslite/model"
)

// Service at a single stop on a date.
type StopSummary struct {
	Stop          *model.Stop `json:"stop"`
	Date          string      `json:"date"`
	TotalVisits   int         `json:"total_visits"`
	FirstArrival  model.Time  `json:"first_arrival"`
	LastDeparture model.Time  `json:"last_departure"`

	// Hours between first arrival and last departure.
	ServiceHours float64 `json:"service_time"`

	// Minutes. Span divided by visits, not by gaps between visits.
	AverageHeadway float64 `json:"average_headway"`
}

// Service on a single route on a date.
type RouteSummary struct {
	Route          *model.Route `json:"route"`
	Date           string       `json:"date"`
	TotalTrips     int          `json:"total_trips"`
	FirstDeparture model.Time   `json:"first_departure"`
	LastArrival    model.Time   `json:"last_arrival"`
	ServiceHours   float64      `json:"service_time"`

	// Stop the headway is measured at: the first stop of the
	// route's trips.
	ReferenceStopID string  `json:"reference_stop_id"`
	AverageHeadway  float64 `json:"average_headway"`
}

// One route's line in RoutesSummary.
type RouteSummaryRow struct {
	Route          *model.Route `json:"route"`
	Trips          int          `json:"trips"`
	FirstDeparture model.Time   `json:"first_departure"`
	LastArrival    model.Time   `json:"last_arrival"`
	AverageHeadway float64      `json:"average_headway"`
}

// Visits and service span at a stop on date. A stop without visits
// yields NoTime bounds and zero span.
func (f *Feed) StopSummary(stopID string, date string) (*StopSummary, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stop, found := f.idx.stops[stopID]
	if !found {
		return nil, fmt.Errorf("%w: stop '%s'", ErrUnknownReference, stopID)
	}

	active, err := f.activeTripSet(date)
	if err != nil {
		return nil, err
	}

	summary := &StopSummary{
		Stop:          stop,
		Date:          date,
		FirstArrival:  model.NoTime,
		LastDeparture: model.NoTime,
	}

	for _, st := range f.idx.stopTimesByStop[stopID] {
		if !active[st.TripID] {
			continue
		}
		summary.TotalVisits++
		summary.FirstArrival = minTime(summary.FirstArrival, st.Arrival)
		summary.LastDeparture = maxTime(summary.LastDeparture, st.Departure)
	}

	if summary.TotalVisits > 0 && summary.FirstArrival.Valid() && summary.LastDeparture.Valid() {
		summary.ServiceHours = (summary.LastDeparture - summary.FirstArrival).Hours()
		summary.AverageHeadway = 60 * summary.ServiceHours / float64(summary.TotalVisits)
	}

	return summary, nil
}

// Trips and span of a route on date.
//
// The reference stop for the headway is the stop of the row with the
// lowest stop_sequence among the route's active trips. Ties go to the
// earliest departure, then to the lowest stop ID.
func (f *Feed) RouteSummary(routeID string, date string) (*RouteSummary, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	route, found := f.idx.routes[routeID]
	if !found {
		return nil, fmt.Errorf("%w: route '%s'", ErrUnknownReference, routeID)
	}

	active, err := f.activeTripSet(date)
	if err != nil {
		return nil, err
	}

	summary := &RouteSummary{
		Route:          route,
		Date:           date,
		FirstDeparture: model.NoTime,
		LastArrival:    model.NoTime,
	}

	var ref *model.StopTime
	stopTimes := []*model.StopTime{}
	for _, trip := range f.idx.tripsByRoute[routeID] {
		if !active[trip.ID] {
			continue
		}
		summary.TotalTrips++

		for _, st := range f.idx.stopTimesByTrip[trip.ID] {
			stopTimes = append(stopTimes, st)
			summary.FirstDeparture = minTime(summary.FirstDeparture, st.Departure)
			summary.LastArrival = maxTime(summary.LastArrival, st.Arrival)
			if ref == nil || referenceBefore(st, ref) {
				ref = st
			}
		}
	}

	if summary.FirstDeparture.Valid() && summary.LastArrival.Valid() {
		summary.ServiceHours = (summary.LastArrival - summary.FirstDeparture).Hours()
	}

	if ref == nil {
		return summary, nil
	}
	summary.ReferenceStopID = ref.StopID

	visits := 0
	minDep, maxArr := model.NoTime, model.NoTime
	for _, st := range stopTimes {
		if st.StopID != ref.StopID {
			continue
		}
		visits++
		minDep = minTime(minDep, st.Departure)
		maxArr = maxTime(maxArr, st.Arrival)
	}
	if visits > 0 && minDep.Valid() && maxArr.Valid() {
		summary.AverageHeadway = 60 * (maxArr - minDep).Hours() / float64(visits)
	}

	return summary, nil
}

func referenceBefore(a, b *model.StopTime) bool {
	if a.StopSequence != b.StopSequence {
		return a.StopSequence < b.StopSequence
	}
	if a.Departure != b.Departure {
		// Missing departures sort last.
		if !a.Departure.Valid() || !b.Departure.Valid() {
			return a.Departure.Valid()
		}
		return a.Departure < b.Departure
	}
	return a.StopID < b.StopID
}

// Per route trip counts and spans on date, ordered by route ID.
//
// If any trip in the feed has a direction_id, only direction 0 trips
// are counted. Routes without stop times on the date are left out.
func (f *Feed) RoutesSummary(date string) ([]RouteSummaryRow, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trips, err := f.activeTrips(date)
	if err != nil {
		return nil, err
	}

	rows := map[string]*RouteSummaryRow{}
	for _, trip := range trips {
		if f.idx.hasDirection && trip.DirectionID != 0 {
			continue
		}
		route, found := f.idx.routes[trip.RouteID]
		if !found {
			continue
		}

		row, found := rows[trip.RouteID]
		if !found {
			row = &RouteSummaryRow{
				Route:          route,
				FirstDeparture: model.NoTime,
				LastArrival:    model.NoTime,
			}
			rows[trip.RouteID] = row
		}
		row.Trips++

		for _, st := range f.idx.stopTimesByTrip[trip.ID] {
			row.FirstDeparture = minTime(row.FirstDeparture, st.Departure)
			row.LastArrival = maxTime(row.LastArrival, st.Arrival)
		}
	}

	result := []RouteSummaryRow{}
	for _, row := range rows {
		if !row.FirstDeparture.Valid() || !row.LastArrival.Valid() {
			continue
		}
		row.AverageHeadway = 60 * (row.LastArrival - row.FirstDeparture).Hours() / float64(row.Trips)
		result = append(result, *row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Route.ID < result[j].Route.ID
	})

	return result, nil
}

func (f *Feed) activeTripSet(date string) (map[string]bool, error) {
	trips, err := f.activeTrips(date)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(trips))
	for _, trip := range trips {
		set[trip.ID] = true
	}
	return set, nil
}

// NoTime is ignored by both minTime and maxTime.

func minTime(a, b model.Time) model.Time {
	if !a.Valid() || (b.Valid() && b < a) {
		return b
	}
	return a
}

func maxTime(a, b model.Time) model.Time {
	if !a.Valid() || (b.Valid() && b > a) {
		return b
	}
	return a
}

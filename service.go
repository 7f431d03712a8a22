package gtfslite

import (
	"fmt"
	"sort"

	"tidbyt.dev/gtfslite/model"
)

// Selects which stop time value a time windowed query looks at.
type TimeField int

const (
	ArrivalTime TimeField = iota
	DepartureTime
)

func ParseTimeField(s string) (TimeField, error) {
	switch s {
	case "arrival_time", "arrival", "":
		return ArrivalTime, nil
	case "departure_time", "departure":
		return DepartureTime, nil
	}
	return ArrivalTime, fmt.Errorf("%w: unknown time field '%s'", ErrInvalidArgument, s)
}

func (tf TimeField) String() string {
	if tf == DepartureTime {
		return "departure_time"
	}
	return "arrival_time"
}

func (tf TimeField) of(st *model.StopTime) model.Time {
	if tf == DepartureTime {
		return st.Departure
	}
	return st.Arrival
}

// Reports whether t is set and within [start, end]. NoTime bounds
// are unbounded.
func inWindow(t, start, end model.Time) bool {
	if !t.Valid() {
		return false
	}
	if start != model.NoTime && t < start {
		return false
	}
	if end != model.NoTime && t > end {
		return false
	}
	return true
}

// Total hours of service on date within [start, end].
//
// Each active trip contributes the span between its first and last
// stop time inside the window, multiplied by its frequency
// multiplier for the window.
func (f *Feed) ServiceHours(date string, start, end model.Time, field TimeField) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trips, err := f.activeTrips(date)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, trip := range trips {
		first, last := model.NoTime, model.NoTime
		for _, st := range f.idx.stopTimesByTrip[trip.ID] {
			t := field.of(st)
			if !inWindow(t, start, end) {
				continue
			}
			if first == model.NoTime || t < first {
				first = t
			}
			if last == model.NoTime || t > last {
				last = t
			}
		}
		if first == model.NoTime {
			continue
		}
		total += int(last-first) * f.frequencyMultiplier(trip.ID, start, end)
	}

	return model.Time(total).Hours(), nil
}

// A trip visiting one of the queried stops.
type StopTrip struct {
	Trip *model.Trip `json:"-"`

	TripID  string     `json:"trip_id"`
	RouteID string     `json:"route_id"`
	StopID  string     `json:"stop_id"`
	Time    model.Time `json:"time"`

	// Number of runs of the trip on the date: 1 for a regular
	// trip, at least 1 for a headway based one.
	Count int `json:"count"`
}

// Active trips on date with a stop time at one of stopIDs within
// [start, end], ordered by time then trip ID. Stations expand to
// their child stops. Each trip is included once, at its first
// qualifying visit.
func (f *Feed) TripsAtStops(stopIDs []string, date string, start, end model.Time, field TimeField) ([]StopTrip, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tripsAtStops(stopIDs, date, start, end, field)
}

// Sum of Count over TripsAtStops.
func (f *Feed) UniqueTripCountAtStops(stopIDs []string, date string, start, end model.Time, field TimeField) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trips, err := f.tripsAtStops(stopIDs, date, start, end, field)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, st := range trips {
		count += st.Count
	}
	return count, nil
}

func (f *Feed) tripsAtStops(stopIDs []string, date string, start, end model.Time, field TimeField) ([]StopTrip, error) {
	stops := map[string]bool{}
	for _, id := range stopIDs {
		if _, found := f.idx.stops[id]; !found {
			return nil, fmt.Errorf("%w: stop '%s'", ErrUnknownReference, id)
		}
		stops[id] = true
		for _, child := range f.idx.childStops[id] {
			stops[child] = true
		}
	}

	trips, err := f.activeTrips(date)
	if err != nil {
		return nil, err
	}

	result := []StopTrip{}
	for _, trip := range trips {
		var first *model.StopTime
		for _, st := range f.idx.stopTimesByTrip[trip.ID] {
			if !stops[st.StopID] || !inWindow(field.of(st), start, end) {
				continue
			}
			if first == nil || field.of(st) < field.of(first) {
				first = st
			}
		}
		if first == nil {
			continue
		}

		count := f.frequencyMultiplier(trip.ID, start, end)
		if count < 1 {
			count = 1
		}

		result = append(result, StopTrip{
			Trip:    trip,
			TripID:  trip.ID,
			RouteID: trip.RouteID,
			StopID:  first.StopID,
			Time:    field.of(first),
			Count:   count,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].TripID < result[j].TripID
	})

	return result, nil
}

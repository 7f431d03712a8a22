package gtfslite

import (
	"fmt"
	"math"
	"sort"

	"tidbyt.dev/gtfslite/model"
)

// Trips on a route starting within one time bin.
type FrequencyBin struct {
	RouteID  string `json:"route_id"`
	BinStart string `json:"bin_start"`
	BinEnd   string `json:"bin_end"`
	Trips    int    `json:"trips"`

	// Trips per hour, truncated.
	Frequency int `json:"frequency"`
}

// Counts trip starts per route in bins of interval minutes.
//
// A trip starts at its lowest stop_sequence and ends at its highest,
// both read from field. Trips are included when the start is within
// [start, end] and, with end bounded, the trip also ends by end.
//
// Bins are aligned to the earliest included start, floored to a
// multiple of interval, and run through the latest included start.
// Every route gets a row for every bin, including empty ones. Rows
// are ordered by route ID, then bin.
func (f *Feed) RouteFrequencyMatrix(date string, interval int, start, end model.Time, field TimeField) ([]FrequencyBin, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidArgument, interval)
	}
	if interval > math.MaxInt/60 {
		return nil, fmt.Errorf("%w: interval too large, got %d", ErrInvalidArgument, interval)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	trips, err := f.activeTrips(date)
	if err != nil {
		return nil, err
	}

	startsByRoute := map[string][]model.Time{}
	first, last := model.NoTime, model.NoTime
	for _, trip := range trips {
		sts := f.idx.stopTimesByTrip[trip.ID]
		if len(sts) == 0 {
			continue
		}
		tripStart := field.of(sts[0])
		tripEnd := field.of(sts[len(sts)-1])

		if !inWindow(tripStart, start, end) {
			continue
		}
		if end != model.NoTime && (!tripEnd.Valid() || tripEnd > end) {
			continue
		}

		startsByRoute[trip.RouteID] = append(startsByRoute[trip.RouteID], tripStart)
		first = minTime(first, tripStart)
		last = maxTime(last, tripStart)
	}

	result := []FrequencyBin{}
	if len(startsByRoute) == 0 {
		return result, nil
	}

	width := model.Time(interval * 60)
	origin := first / width * width
	bins := int((last-origin)/width) + 1

	routeIDs := make([]string, 0, len(startsByRoute))
	for routeID := range startsByRoute {
		routeIDs = append(routeIDs, routeID)
	}
	sort.Strings(routeIDs)

	for _, routeID := range routeIDs {
		counts := make([]int, bins)
		for _, t := range startsByRoute[routeID] {
			counts[int((t-origin)/width)]++
		}

		for i, count := range counts {
			binStart := origin + model.Time(i)*width
			result = append(result, FrequencyBin{
				RouteID:   routeID,
				BinStart:  binStart.Clock(),
				BinEnd:    (binStart + width).Clock(),
				Trips:     count,
				Frequency: count * 60 / interval,
			})
		}
	}

	return result, nil
}

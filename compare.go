package gtfslite

import (
	"sort"
)

// Trip counts of a route in two feeds, matched on short name.
type RouteComparison struct {
	ShortName    string `json:"route_short_name"`
	RouteID      string `json:"route_id"`
	OtherRouteID string `json:"other_route_id"`
	Trips        int    `json:"trips"`
	OtherTrips   int    `json:"other_trips"`

	// OtherTrips - Trips.
	Difference int `json:"difference"`

	// Difference relative to Trips, in percent.
	PercentDifference float64 `json:"pct_difference"`
}

type routeTrips struct {
	routeID   string
	shortName string
	trips     int
}

// Compares total trips per route between feeds a and b. Routes are
// matched by short name; routes without trips or without a match in
// the other feed are left out. Ordered by short name, then route IDs.
func CompareRoutes(a, b *Feed) []RouteComparison {
	countsA := a.routeTrips()
	countsB := b.routeTrips()

	result := []RouteComparison{}
	for _, ra := range countsA {
		for _, rb := range countsB {
			if rb.shortName != ra.shortName {
				continue
			}
			result = append(result, RouteComparison{
				ShortName:         ra.shortName,
				RouteID:           ra.routeID,
				OtherRouteID:      rb.routeID,
				Trips:             ra.trips,
				OtherTrips:        rb.trips,
				Difference:        rb.trips - ra.trips,
				PercentDifference: 100 * float64(rb.trips-ra.trips) / float64(ra.trips),
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ShortName != result[j].ShortName {
			return result[i].ShortName < result[j].ShortName
		}
		if result[i].RouteID != result[j].RouteID {
			return result[i].RouteID < result[j].RouteID
		}
		return result[i].OtherRouteID < result[j].OtherRouteID
	})

	return result
}

// Routes with at least one trip.
func (f *Feed) routeTrips() []routeTrips {
	f.mu.RLock()
	defer f.mu.RUnlock()

	counts := []routeTrips{}
	for _, r := range f.tables.Routes {
		n := len(f.idx.tripsByRoute[r.ID])
		if n == 0 {
			continue
		}
		counts = append(counts, routeTrips{
			routeID:   r.ID,
			shortName: r.ShortName,
			trips:     n,
		})
	}
	return counts
}

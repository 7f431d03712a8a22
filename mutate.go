package gtfslite

import (
	"fmt"
	"sort"

	"tidbyt.dev/gtfslite/internal/logger"
)

// Number of records removed from each table by DeleteRoutes.
type Deletion struct {
	Routes       int `json:"routes"`
	Trips        int `json:"trips"`
	StopTimes    int `json:"stop_times"`
	Shapes       int `json:"shapes"`
	ShapePoints  int `json:"shape_points"`
	Frequencies  int `json:"frequencies"`
	FareRules    int `json:"fare_rules"`
	Transfers    int `json:"transfers"`
	Attributions int `json:"attributions"`
	Stops        int `json:"stops"`
}

// Everything a route deletion will remove, keyed by ID.
type deletionPlan struct {
	routes map[string]bool
	trips  map[string]bool
	shapes map[string]bool
	stops  map[string]bool
}

// Removes routes along with everything that depends on them: trips,
// stop times, frequencies, fare rules, transfers and attributions
// referring to the routes or their trips, and shapes no other trip
// uses.
//
// With cleanStops, stops visited by the removed trips are removed too,
// unless a remaining trip still visits them or they are the parent
// station of a remaining stop. Transfers to or from those stops go
// with them.
//
// The whole deletion is planned before anything is modified. Unknown
// route IDs fail with ErrUnknownReference and leave the feed as is.
func (f *Feed) DeleteRoutes(routeIDs []string, cleanStops bool) (*Deletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	plan, err := f.planDeletion(routeIDs, cleanStops)
	if err != nil {
		return nil, err
	}

	deletion := f.applyDeletion(plan)

	logger.Info(
		"deleted routes",
		"routes", sortedKeys(plan.routes),
		"trips", deletion.Trips,
		"stop_times", deletion.StopTimes,
		"shapes", deletion.Shapes,
		"stops", deletion.Stops,
	)

	return deletion, nil
}

func (f *Feed) planDeletion(routeIDs []string, cleanStops bool) (*deletionPlan, error) {
	plan := &deletionPlan{
		routes: map[string]bool{},
		trips:  map[string]bool{},
		shapes: map[string]bool{},
		stops:  map[string]bool{},
	}

	for _, id := range routeIDs {
		if _, found := f.idx.routes[id]; !found {
			return nil, fmt.Errorf("%w: route '%s'", ErrUnknownReference, id)
		}
		plan.routes[id] = true
		for _, trip := range f.idx.tripsByRoute[id] {
			plan.trips[trip.ID] = true
		}
	}

	// Shapes only referenced by removed trips.
	keptShapes := map[string]bool{}
	for _, trip := range f.tables.Trips {
		if trip.ShapeID == "" {
			continue
		}
		if plan.trips[trip.ID] {
			plan.shapes[trip.ShapeID] = true
		} else {
			keptShapes[trip.ShapeID] = true
		}
	}
	for shapeID := range keptShapes {
		delete(plan.shapes, shapeID)
	}

	if !cleanStops {
		return plan, nil
	}

	keptStops := map[string]bool{}
	for _, st := range f.tables.StopTimes {
		if plan.trips[st.TripID] {
			plan.stops[st.StopID] = true
		} else {
			keptStops[st.StopID] = true
		}
	}
	for stopID := range keptStops {
		delete(plan.stops, stopID)
	}

	// Stations stay as long as one of their children does.
	for _, stop := range f.tables.Stops {
		if stop.ParentStation != "" && !plan.stops[stop.ID] {
			delete(plan.stops, stop.ParentStation)
		}
	}

	return plan, nil
}

func (f *Feed) applyDeletion(plan *deletionPlan) *Deletion {
	old := f.tables
	t := &Tables{
		Agencies:       old.Agencies,
		Calendars:      old.Calendars,
		CalendarDates:  old.CalendarDates,
		FareAttributes: old.FareAttributes,
	}
	d := &Deletion{}

	for _, r := range old.Routes {
		if plan.routes[r.ID] {
			d.Routes++
			continue
		}
		t.Routes = append(t.Routes, r)
	}
	for _, trip := range old.Trips {
		if plan.trips[trip.ID] {
			d.Trips++
			continue
		}
		t.Trips = append(t.Trips, trip)
	}
	for _, st := range old.StopTimes {
		if plan.trips[st.TripID] {
			d.StopTimes++
			continue
		}
		t.StopTimes = append(t.StopTimes, st)
	}
	for _, fr := range old.Frequencies {
		if plan.trips[fr.TripID] {
			d.Frequencies++
			continue
		}
		t.Frequencies = append(t.Frequencies, fr)
	}
	for _, p := range old.ShapePoints {
		if plan.shapes[p.ShapeID] {
			d.ShapePoints++
			continue
		}
		t.ShapePoints = append(t.ShapePoints, p)
	}
	d.Shapes = len(plan.shapes)
	for _, fr := range old.FareRules {
		if plan.routes[fr.RouteID] {
			d.FareRules++
			continue
		}
		t.FareRules = append(t.FareRules, fr)
	}
	for _, tr := range old.Transfers {
		if plan.routes[tr.FromRouteID] || plan.routes[tr.ToRouteID] ||
			plan.trips[tr.FromTripID] || plan.trips[tr.ToTripID] ||
			plan.stops[tr.FromStopID] || plan.stops[tr.ToStopID] {
			d.Transfers++
			continue
		}
		t.Transfers = append(t.Transfers, tr)
	}
	for _, a := range old.Attributions {
		if plan.routes[a.RouteID] || plan.trips[a.TripID] {
			d.Attributions++
			continue
		}
		t.Attributions = append(t.Attributions, a)
	}
	for _, s := range old.Stops {
		if plan.stops[s.ID] {
			d.Stops++
			continue
		}
		t.Stops = append(t.Stops, s)
	}

	f.tables = t
	f.idx = buildIndex(t)

	return d
}

// A point in time copy of a feed's records.
type Snapshot struct {
	tables *Tables
}

// Captures the feed's current state, for a later Restore.
func (f *Feed) Snapshot() *Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return &Snapshot{tables: f.tables.clone()}
}

// Resets the feed to a previously captured state.
func (f *Feed) Restore(s *Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = s.tables.clone()
	f.idx = buildIndex(f.tables)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

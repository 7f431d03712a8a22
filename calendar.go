package gtfslite

import (
	"fmt"
	"sort"
	"time"

	"tidbyt.dev/gtfslite/model"
)

// Reports whether date (YYYYMMDD) is within the span covered by
// calendar.txt, or has an added service exception.
func (f *Feed) IsValidDate(date string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isValidDate(date)
}

// Service IDs active on date (YYYYMMDD), sorted. Services running on
// the date's weekday per calendar.txt are included, then exceptions
// from calendar_dates.txt are applied. Removals win over additions.
//
// Unparseable dates have no active services.
func (f *Feed) ActiveServices(date string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	services, err := f.activeServices(date)
	if err != nil {
		return []string{}
	}

	ids := make([]string, 0, len(services))
	for id := range services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Trips running on date, sorted by trip ID.
func (f *Feed) ActiveTrips(date string) ([]*model.Trip, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trips, err := f.activeTrips(date)
	if err != nil {
		return nil, err
	}

	sort.Slice(trips, func(i, j int) bool {
		return trips[i].ID < trips[j].ID
	})
	return trips, nil
}

// The helpers below expect the caller to hold f.mu.

func checkDate(date string) (time.Time, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	return d, nil
}

func (f *Feed) isValidDate(date string) bool {
	if _, err := checkDate(date); err != nil {
		return false
	}

	if f.idx.calendarStart != "" && f.idx.calendarStart <= date && date <= f.idx.calendarEnd {
		return true
	}

	for _, cd := range f.idx.exceptionsByDate[date] {
		if cd.ExceptionType == model.ExceptionAdded {
			return true
		}
	}

	return false
}

// Fails with ErrDateNotValid unless the date is valid for the feed.
func (f *Feed) validateDate(date string) error {
	if _, err := checkDate(date); err != nil {
		return err
	}
	if !f.isValidDate(date) {
		return fmt.Errorf("%w: %s", ErrDateNotValid, date)
	}
	return nil
}

func (f *Feed) activeServices(date string) (map[string]bool, error) {
	d, err := checkDate(date)
	if err != nil {
		return nil, err
	}

	services := map[string]bool{}
	for _, c := range f.tables.Calendars {
		if c.RunsOn(d.Weekday()) && c.Covers(date) {
			services[c.ServiceID] = true
		}
	}

	exceptions := f.idx.exceptionsByDate[date]
	for _, cd := range exceptions {
		if cd.ExceptionType == model.ExceptionAdded {
			services[cd.ServiceID] = true
		}
	}
	for _, cd := range exceptions {
		if cd.ExceptionType == model.ExceptionRemoved {
			delete(services, cd.ServiceID)
		}
	}

	return services, nil
}

// Unsorted.
func (f *Feed) activeTrips(date string) ([]*model.Trip, error) {
	if err := f.validateDate(date); err != nil {
		return nil, err
	}

	services, err := f.activeServices(date)
	if err != nil {
		return nil, err
	}

	trips := []*model.Trip{}
	for serviceID := range services {
		trips = append(trips, f.idx.tripsByService[serviceID]...)
	}
	return trips, nil
}

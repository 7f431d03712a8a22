package gtfslite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tidbyt.dev/gtfslite/model"
)

// Trip counts indexed by time.Weekday.
type WeekdayCounts [7]int

func (wc WeekdayCounts) Total() int {
	total := 0
	for _, c := range wc {
		total += c
	}
	return total
}

var weekdayByName = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		m[strings.ToLower(day.String())] = day
	}
	return m
}()

// Encodes as an object keyed by lower case weekday name.
func (wc WeekdayCounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, 7)
	for day, c := range wc {
		m[strings.ToLower(time.Weekday(day).String())] = c
	}
	return json.Marshal(m)
}

// Decodes the object written by MarshalJSON. Missing days are zero.
func (wc *WeekdayCounts) UnmarshalJSON(data []byte) error {
	m := map[string]int{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	var counts WeekdayCounts
	for name, c := range m {
		day, found := weekdayByName[name]
		if !found {
			return fmt.Errorf("%w: unknown weekday '%s'", ErrInvalidArgument, name)
		}
		counts[day] = c
	}

	*wc = counts
	return nil
}

// Number of trips scheduled per weekday over the inclusive date
// range.
//
// Each calendar service contributes its trip count once for every
// date in the range falling on a weekday it runs on. The calendar's
// own start and end dates are not considered. Exceptions dated within
// the range then add or subtract the service's trip count on their
// date's weekday.
func (f *Feed) TripDistribution(startDate, endDate string) (WeekdayCounts, error) {
	var counts WeekdayCounts

	first, err := checkDate(startDate)
	if err != nil {
		return counts, err
	}
	last, err := checkDate(endDate)
	if err != nil {
		return counts, err
	}
	if first.After(last) {
		return counts, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidArgument, startDate, endDate)
	}

	var occurrences [7]int
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		occurrences[d.Weekday()]++
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, c := range f.tables.Calendars {
		trips := len(f.idx.tripsByService[c.ServiceID])
		for day := time.Sunday; day <= time.Saturday; day++ {
			if c.RunsOn(day) {
				counts[day] += occurrences[day] * trips
			}
		}
	}

	for _, cd := range f.tables.CalendarDates {
		if cd.Date < startDate || cd.Date > endDate {
			continue
		}
		d, err := model.ParseDate(cd.Date)
		if err != nil {
			continue
		}
		trips := len(f.idx.tripsByService[cd.ServiceID])
		switch cd.ExceptionType {
		case model.ExceptionAdded:
			counts[d.Weekday()] += trips
		case model.ExceptionRemoved:
			counts[d.Weekday()] -= trips
		}
	}

	return counts, nil
}

package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type CalendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

func (c *CalendarCSV) days() map[time.Weekday]int8 {
	return map[time.Weekday]int8{
		time.Monday:    c.Monday,
		time.Tuesday:   c.Tuesday,
		time.Wednesday: c.Wednesday,
		time.Thursday:  c.Thursday,
		time.Friday:    c.Friday,
		time.Saturday:  c.Saturday,
		time.Sunday:    c.Sunday,
	}
}

// Returns set of all service IDs, min date and max date.
func ParseCalendar(writer storage.FeedWriter, data io.Reader) (map[string]bool, string, string, error) {
	calendarCsv := []*CalendarCSV{}
	if err := gocsv.Unmarshal(data, &calendarCsv); err != nil {
		return nil, "", "", fmt.Errorf("unmarshaling csv: %w", err)
	}

	knownServices := map[string]bool{}

	var minDate, maxDate string

	for _, c := range calendarCsv {
		if c.ServiceID == "" {
			return nil, "", "", fmt.Errorf("empty service_id")
		}
		if knownServices[c.ServiceID] {
			return nil, "", "", fmt.Errorf("repeated service_id '%s'", c.ServiceID)
		}
		knownServices[c.ServiceID] = true

		var weekday int8
		for day, flag := range c.days() {
			switch flag {
			case 1:
				weekday |= 1 << day
			case 0:
			default:
				return nil, "", "", fmt.Errorf(
					"invalid %s value '%d' for service_id '%s'",
					day, flag, c.ServiceID,
				)
			}
		}

		if _, err := model.ParseDate(c.StartDate); err != nil {
			return nil, "", "", fmt.Errorf("parsing start_date: %w", err)
		}
		if _, err := model.ParseDate(c.EndDate); err != nil {
			return nil, "", "", fmt.Errorf("parsing end_date: %w", err)
		}
		if c.StartDate > c.EndDate {
			return nil, "", "", fmt.Errorf(
				"service_id '%s' has start_date %s after end_date %s",
				c.ServiceID, c.StartDate, c.EndDate,
			)
		}

		if minDate == "" || c.StartDate < minDate {
			minDate = c.StartDate
		}
		if maxDate == "" || c.EndDate > maxDate {
			maxDate = c.EndDate
		}

		err := writer.WriteCalendar(&model.Calendar{
			ServiceID: c.ServiceID,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Weekday:   weekday,
		})
		if err != nil {
			return nil, "", "", fmt.Errorf("writing calendar: %w", err)
		}
	}

	return knownServices, minDate, maxDate, nil
}

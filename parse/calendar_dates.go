package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type CalendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

// Returns set of service IDs seen, and min/max exception date.
func ParseCalendarDates(
	writer storage.FeedWriter,
	data io.Reader,
) (map[string]bool, string, string, error) {

	calendarDateCsv := []*CalendarDateCSV{}
	if err := gocsv.Unmarshal(data, &calendarDateCsv); err != nil {
		return nil, "", "", fmt.Errorf("unmarshaling calendar_dates csv: %w", err)
	}

	type serviceDate struct {
		serviceID string
		date      string
	}

	knownService := map[string]bool{}
	knownServiceDate := map[serviceDate]bool{}
	var minDate, maxDate string

	for _, cd := range calendarDateCsv {
		exceptionType := model.ExceptionType(cd.ExceptionType)
		if exceptionType != model.ExceptionAdded && exceptionType != model.ExceptionRemoved {
			return nil, "", "", fmt.Errorf("illegal exception_type: '%d'", cd.ExceptionType)
		}

		if cd.ServiceID == "" {
			return nil, "", "", fmt.Errorf("empty service_id")
		}

		if _, err := model.ParseDate(cd.Date); err != nil {
			return nil, "", "", err
		}

		// A service can't be both added and removed on the
		// same date.
		key := serviceDate{cd.ServiceID, cd.Date}
		if knownServiceDate[key] {
			return nil, "", "", fmt.Errorf("duplicate service/date: '%s'/'%s'", cd.ServiceID, cd.Date)
		}
		knownServiceDate[key] = true
		knownService[cd.ServiceID] = true

		if minDate == "" || cd.Date < minDate {
			minDate = cd.Date
		}
		if maxDate == "" || cd.Date > maxDate {
			maxDate = cd.Date
		}

		err := writer.WriteCalendarDate(&model.CalendarDate{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: exceptionType,
		})
		if err != nil {
			return nil, "", "", fmt.Errorf("writing calendar date: %w", err)
		}
	}

	return knownService, minDate, maxDate, nil
}

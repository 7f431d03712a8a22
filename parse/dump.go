package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

// Writes all tables of a feed back into a GTFS zip archive. Optional
// files are only included when they have records.
func DumpStatic(reader storage.FeedReader) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	files := []struct {
		name     string
		required bool
		rows     func() (interface{}, int, error)
	}{
		{"agency.txt", true, dumpAgency(reader)},
		{"stops.txt", true, dumpStops(reader)},
		{"routes.txt", true, dumpRoutes(reader)},
		{"trips.txt", true, dumpTrips(reader)},
		{"stop_times.txt", true, dumpStopTimes(reader)},
		{"calendar.txt", false, dumpCalendar(reader)},
		{"calendar_dates.txt", false, dumpCalendarDates(reader)},
		{"frequencies.txt", false, dumpFrequencies(reader)},
		{"shapes.txt", false, dumpShapes(reader)},
		{"fare_attributes.txt", false, dumpFareAttributes(reader)},
		{"fare_rules.txt", false, dumpFareRules(reader)},
		{"transfers.txt", false, dumpTransfers(reader)},
		{"attributions.txt", false, dumpAttributions(reader)},
	}

	for _, f := range files {
		rows, n, err := f.rows()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.name, err)
		}
		if n == 0 && !f.required {
			continue
		}

		fw, err := w.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		if err := gocsv.Marshal(rows, fw); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing zip: %w", err)
	}

	return buf.Bytes(), nil
}

func dumpAgency(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		agencies, err := reader.Agencies()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(agencies, func(i, j int) bool { return agencies[i].ID < agencies[j].ID })

		rows := []*AgencyCSV{}
		for _, a := range agencies {
			rows = append(rows, &AgencyCSV{
				ID:       a.ID,
				Name:     a.Name,
				URL:      a.URL,
				Timezone: a.Timezone,
				Lang:     a.Lang,
				Phone:    a.Phone,
				FareURL:  a.FareURL,
				Email:    a.Email,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpStops(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		stops, err := reader.Stops()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })

		rows := []*StopCSV{}
		for _, s := range stops {
			rows = append(rows, &StopCSV{
				ID:            s.ID,
				Code:          s.Code,
				Name:          s.Name,
				Desc:          s.Desc,
				Lat:           s.Lat,
				Lon:           s.Lon,
				URL:           s.URL,
				LocationType:  int8(s.LocationType),
				ParentStation: s.ParentStation,
				PlatformCode:  s.PlatformCode,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpRoutes(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		routes, err := reader.Routes()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })

		rows := []*RouteCSV{}
		for _, r := range routes {
			rows = append(rows, &RouteCSV{
				ID:        r.ID,
				AgencyID:  r.AgencyID,
				ShortName: r.ShortName,
				LongName:  r.LongName,
				Desc:      r.Desc,
				Type:      strconv.Itoa(int(r.Type)),
				URL:       r.URL,
				Color:     r.Color,
				TextColor: r.TextColor,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpTrips(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		trips, err := reader.Trips()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(trips, func(i, j int) bool { return trips[i].ID < trips[j].ID })

		rows := []*TripCSV{}
		for _, t := range trips {
			direction := ""
			if t.DirectionID != model.DirectionUnset {
				direction = strconv.Itoa(int(t.DirectionID))
			}
			rows = append(rows, &TripCSV{
				ID:          t.ID,
				RouteID:     t.RouteID,
				ServiceID:   t.ServiceID,
				Headsign:    t.Headsign,
				ShortName:   t.ShortName,
				DirectionID: direction,
				BlockID:     t.BlockID,
				ShapeID:     t.ShapeID,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpStopTimes(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		stopTimes, err := reader.StopTimes()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(stopTimes, func(i, j int) bool {
			if stopTimes[i].TripID != stopTimes[j].TripID {
				return stopTimes[i].TripID < stopTimes[j].TripID
			}
			return stopTimes[i].StopSequence < stopTimes[j].StopSequence
		})

		rows := []*StopTimeCSV{}
		for _, st := range stopTimes {
			rows = append(rows, &StopTimeCSV{
				TripID:        st.TripID,
				StopID:        st.StopID,
				StopSequence:  st.StopSequence,
				ArrivalTime:   st.Arrival.String(),
				DepartureTime: st.Departure.String(),
				Headsign:      st.Headsign,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpCalendar(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		calendars, err := reader.Calendars()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(calendars, func(i, j int) bool { return calendars[i].ServiceID < calendars[j].ServiceID })

		flag := func(c *model.Calendar, day time.Weekday) int8 {
			if c.RunsOn(day) {
				return 1
			}
			return 0
		}

		rows := []*CalendarCSV{}
		for _, c := range calendars {
			rows = append(rows, &CalendarCSV{
				ServiceID: c.ServiceID,
				StartDate: c.StartDate,
				EndDate:   c.EndDate,
				Monday:    flag(c, time.Monday),
				Tuesday:   flag(c, time.Tuesday),
				Wednesday: flag(c, time.Wednesday),
				Thursday:  flag(c, time.Thursday),
				Friday:    flag(c, time.Friday),
				Saturday:  flag(c, time.Saturday),
				Sunday:    flag(c, time.Sunday),
			})
		}
		return rows, len(rows), nil
	}
}

func dumpCalendarDates(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		cds, err := reader.CalendarDates()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(cds, func(i, j int) bool {
			if cds[i].ServiceID != cds[j].ServiceID {
				return cds[i].ServiceID < cds[j].ServiceID
			}
			return cds[i].Date < cds[j].Date
		})

		rows := []*CalendarDateCSV{}
		for _, cd := range cds {
			rows = append(rows, &CalendarDateCSV{
				ServiceID:     cd.ServiceID,
				Date:          cd.Date,
				ExceptionType: int8(cd.ExceptionType),
			})
		}
		return rows, len(rows), nil
	}
}

func dumpFrequencies(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		freqs, err := reader.Frequencies()
		if err != nil {
			return nil, 0, err
		}
		sort.SliceStable(freqs, func(i, j int) bool {
			if freqs[i].TripID != freqs[j].TripID {
				return freqs[i].TripID < freqs[j].TripID
			}
			return freqs[i].StartTime < freqs[j].StartTime
		})

		rows := []*FrequencyCSV{}
		for _, f := range freqs {
			rows = append(rows, &FrequencyCSV{
				TripID:      f.TripID,
				StartTime:   f.StartTime.String(),
				EndTime:     f.EndTime.String(),
				HeadwaySecs: f.HeadwaySecs,
				ExactTimes:  f.ExactTimes,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpShapes(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		points, err := reader.ShapePoints()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(points, func(i, j int) bool {
			if points[i].ShapeID != points[j].ShapeID {
				return points[i].ShapeID < points[j].ShapeID
			}
			return points[i].Sequence < points[j].Sequence
		})

		rows := []*ShapeCSV{}
		for _, p := range points {
			rows = append(rows, &ShapeCSV{
				ShapeID:      p.ShapeID,
				Lat:          p.Lat,
				Lon:          p.Lon,
				Sequence:     p.Sequence,
				DistTraveled: p.DistTraveled,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpFareAttributes(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		fares, err := reader.FareAttributes()
		if err != nil {
			return nil, 0, err
		}
		sort.Slice(fares, func(i, j int) bool { return fares[i].FareID < fares[j].FareID })

		rows := []*FareAttributeCSV{}
		for _, f := range fares {
			transfers := ""
			if f.Transfers >= 0 {
				transfers = strconv.Itoa(int(f.Transfers))
			}
			rows = append(rows, &FareAttributeCSV{
				FareID:           f.FareID,
				Price:            f.Price,
				CurrencyType:     f.CurrencyType,
				PaymentMethod:    f.PaymentMethod,
				Transfers:        transfers,
				AgencyID:         f.AgencyID,
				TransferDuration: f.TransferDuration,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpFareRules(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		rules, err := reader.FareRules()
		if err != nil {
			return nil, 0, err
		}

		rows := []*FareRuleCSV{}
		for _, r := range rules {
			rows = append(rows, &FareRuleCSV{
				FareID:        r.FareID,
				RouteID:       r.RouteID,
				OriginID:      r.OriginID,
				DestinationID: r.DestinationID,
				ContainsID:    r.ContainsID,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpTransfers(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		transfers, err := reader.Transfers()
		if err != nil {
			return nil, 0, err
		}

		rows := []*TransferCSV{}
		for _, t := range transfers {
			rows = append(rows, &TransferCSV{
				FromStopID:      t.FromStopID,
				ToStopID:        t.ToStopID,
				FromRouteID:     t.FromRouteID,
				ToRouteID:       t.ToRouteID,
				FromTripID:      t.FromTripID,
				ToTripID:        t.ToTripID,
				TransferType:    t.TransferType,
				MinTransferTime: t.MinTransferTime,
			})
		}
		return rows, len(rows), nil
	}
}

func dumpAttributions(reader storage.FeedReader) func() (interface{}, int, error) {
	return func() (interface{}, int, error) {
		attributions, err := reader.Attributions()
		if err != nil {
			return nil, 0, err
		}

		rows := []*AttributionCSV{}
		for _, a := range attributions {
			rows = append(rows, &AttributionCSV{
				ID:               a.ID,
				AgencyID:         a.AgencyID,
				RouteID:          a.RouteID,
				TripID:           a.TripID,
				OrganizationName: a.OrganizationName,
				IsProducer:       a.IsProducer,
				IsOperator:       a.IsOperator,
				IsAuthority:      a.IsAuthority,
				URL:              a.URL,
			})
		}
		return rows, len(rows), nil
	}
}

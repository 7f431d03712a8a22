package parse

import (
	"fmt"
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	Headsign      string `csv:"stop_headsign"`
}

type stopTimeKey struct {
	seq       uint32
	arrival   model.Time
	departure model.Time
}

// Parses stop_times.txt, returning the max arrival and departure
// times seen.
//
// Times may be missing on intermediate stops, but the first and last
// stop of each trip must be timed. When only one of arrival and
// departure is given, it's used for both.
func ParseStopTimes(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
) (model.Time, model.Time, error) {

	tripStops := map[string][]stopTimeKey{}

	maxArrival := model.NoTime
	maxDeparture := model.NoTime

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if !trips[st.TripID] {
			return fmt.Errorf("unknown trip_id: '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}
		if !stops[st.StopID] {
			return fmt.Errorf("unknown stop_id: '%s' (row %d)", st.StopID, i+1)
		}

		arrival, err := model.ParseOptionalTime(st.ArrivalTime)
		if err != nil {
			return errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}

		departure, err := model.ParseOptionalTime(st.DepartureTime)
		if err != nil {
			return errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}

		if !arrival.Valid() {
			arrival = departure
		}
		if !departure.Valid() {
			departure = arrival
		}
		if arrival > departure {
			return fmt.Errorf(
				"arrival_time %s after departure_time %s (row %d)",
				arrival, departure, i+1,
			)
		}

		if arrival > maxArrival {
			maxArrival = arrival
		}
		if departure > maxDeparture {
			maxDeparture = departure
		}

		tripStops[st.TripID] = append(tripStops[st.TripID], stopTimeKey{
			seq:       st.StopSequence,
			arrival:   arrival,
			departure: departure,
		})

		err = writer.WriteStopTime(&model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			Headsign:     st.Headsign,
			StopSequence: st.StopSequence,
			Arrival:      arrival,
			Departure:    departure,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}

		return nil
	})

	if err != nil {
		return model.NoTime, model.NoTime, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	for tripID, keys := range tripStops {
		if err := validateTripTimes(keys); err != nil {
			return model.NoTime, model.NoTime, errors.Wrapf(err, "trip_id '%s'", tripID)
		}
	}

	return maxArrival, maxDeparture, nil
}

// Checks that stop_sequence is unique within a trip, that first
// and last stops are timed, and that times never decrease.
func validateTripTimes(keys []stopTimeKey) error {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].seq < keys[j].seq
	})

	if !keys[0].departure.Valid() {
		return fmt.Errorf("first stop has no time")
	}
	if !keys[len(keys)-1].arrival.Valid() {
		return fmt.Errorf("last stop has no time")
	}

	last := model.NoTime
	for i, k := range keys {
		if i > 0 && keys[i-1].seq == k.seq {
			return fmt.Errorf("duplicate stop_sequence %d", k.seq)
		}
		if !k.arrival.Valid() {
			continue
		}
		if k.arrival < last {
			return fmt.Errorf("time decreases at stop_sequence %d", k.seq)
		}
		last = k.departure
	}

	return nil
}

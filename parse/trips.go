package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	ShortName   string `csv:"trip_short_name"`
	DirectionID string `csv:"direction_id"`
	BlockID     string `csv:"block_id"`
	ShapeID     string `csv:"shape_id"`
}

// Parses trips.txt. If shapes is non-nil, shape_id references are
// checked against it.
func ParseTrips(
	writer storage.FeedWriter,
	data io.Reader,
	routes map[string]bool,
	services map[string]bool,
	shapes map[string]bool,
) (map[string]bool, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	trips := map[string]bool{}
	for _, t := range tripCsv {
		if t.ID == "" {
			return nil, fmt.Errorf("empty trip_id")
		}
		if trips[t.ID] {
			return nil, fmt.Errorf("repeated trip_id '%s'", t.ID)
		}
		trips[t.ID] = true

		if t.RouteID == "" {
			return nil, fmt.Errorf("empty route_id")
		}
		if !routes[t.RouteID] {
			return nil, fmt.Errorf("unknown route_id '%s'", t.RouteID)
		}
		if !services[t.ServiceID] {
			return nil, fmt.Errorf("unknown service_id '%s'", t.ServiceID)
		}
		if shapes != nil && t.ShapeID != "" && !shapes[t.ShapeID] {
			return nil, fmt.Errorf("unknown shape_id '%s'", t.ShapeID)
		}

		direction := model.DirectionUnset
		switch strings.TrimSpace(t.DirectionID) {
		case "":
		case "0":
			direction = 0
		case "1":
			direction = 1
		default:
			return nil, fmt.Errorf("invalid direction_id '%s'", t.DirectionID)
		}

		err := writer.WriteTrip(&model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			ShortName:   t.ShortName,
			DirectionID: direction,
			ShapeID:     t.ShapeID,
			BlockID:     t.BlockID,
		})
		if err != nil {
			return nil, fmt.Errorf("writing trip: %w", err)
		}
	}

	return trips, nil
}

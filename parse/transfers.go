package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type TransferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	FromRouteID     string `csv:"from_route_id"`
	ToRouteID       string `csv:"to_route_id"`
	FromTripID      string `csv:"from_trip_id"`
	ToTripID        string `csv:"to_trip_id"`
	TransferType    int8   `csv:"transfer_type"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

func ParseTransfers(
	writer storage.FeedWriter,
	data io.Reader,
	stops map[string]bool,
	routes map[string]bool,
	trips map[string]bool,
) error {
	transferCsv := []*TransferCSV{}
	if err := gocsv.Unmarshal(data, &transferCsv); err != nil {
		return fmt.Errorf("unmarshaling transfers csv: %w", err)
	}

	for i, t := range transferCsv {
		for _, ref := range []struct {
			kind  string
			id    string
			known map[string]bool
		}{
			{"from_stop_id", t.FromStopID, stops},
			{"to_stop_id", t.ToStopID, stops},
			{"from_route_id", t.FromRouteID, routes},
			{"to_route_id", t.ToRouteID, routes},
			{"from_trip_id", t.FromTripID, trips},
			{"to_trip_id", t.ToTripID, trips},
		} {
			if ref.id != "" && !ref.known[ref.id] {
				return fmt.Errorf("unknown %s '%s' (row %d)", ref.kind, ref.id, i+1)
			}
		}

		if t.TransferType < 0 || t.TransferType > 5 {
			return fmt.Errorf("invalid transfer_type %d (row %d)", t.TransferType, i+1)
		}

		err := writer.WriteTransfer(&model.Transfer{
			FromStopID:      t.FromStopID,
			ToStopID:        t.ToStopID,
			FromRouteID:     t.FromRouteID,
			ToRouteID:       t.ToRouteID,
			FromTripID:      t.FromTripID,
			ToTripID:        t.ToTripID,
			TransferType:    t.TransferType,
			MinTransferTime: t.MinTransferTime,
		})
		if err != nil {
			return fmt.Errorf("writing transfer: %w", err)
		}
	}

	return nil
}

package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type AttributionCSV struct {
	ID               string `csv:"attribution_id"`
	AgencyID         string `csv:"agency_id"`
	RouteID          string `csv:"route_id"`
	TripID           string `csv:"trip_id"`
	OrganizationName string `csv:"organization_name"`
	IsProducer       int8   `csv:"is_producer"`
	IsOperator       int8   `csv:"is_operator"`
	IsAuthority      int8   `csv:"is_authority"`
	URL              string `csv:"attribution_url"`
}

func ParseAttributions(
	writer storage.FeedWriter,
	data io.Reader,
	agency map[string]bool,
	routes map[string]bool,
	trips map[string]bool,
) error {
	attributionCsv := []*AttributionCSV{}
	if err := gocsv.Unmarshal(data, &attributionCsv); err != nil {
		return fmt.Errorf("unmarshaling attributions csv: %w", err)
	}

	for i, a := range attributionCsv {
		if a.OrganizationName == "" {
			return fmt.Errorf("empty organization_name (row %d)", i+1)
		}
		if a.AgencyID != "" && !agency[a.AgencyID] {
			return fmt.Errorf("unknown agency_id '%s' (row %d)", a.AgencyID, i+1)
		}
		if a.RouteID != "" && !routes[a.RouteID] {
			return fmt.Errorf("unknown route_id '%s' (row %d)", a.RouteID, i+1)
		}
		if a.TripID != "" && !trips[a.TripID] {
			return fmt.Errorf("unknown trip_id '%s' (row %d)", a.TripID, i+1)
		}
		if a.IsProducer != 1 && a.IsOperator != 1 && a.IsAuthority != 1 {
			return fmt.Errorf("attribution has no role (row %d)", i+1)
		}

		err := writer.WriteAttribution(&model.Attribution{
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
		if err != nil {
			return fmt.Errorf("writing attribution: %w", err)
		}
	}

	return nil
}

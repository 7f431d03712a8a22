package parse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type FareAttributeCSV struct {
	FareID           string  `csv:"fare_id"`
	Price            float64 `csv:"price"`
	CurrencyType     string  `csv:"currency_type"`
	PaymentMethod    int8    `csv:"payment_method"`
	Transfers        string  `csv:"transfers"`
	AgencyID         string  `csv:"agency_id"`
	TransferDuration int     `csv:"transfer_duration"`
}

type FareRuleCSV struct {
	FareID        string `csv:"fare_id"`
	RouteID       string `csv:"route_id"`
	OriginID      string `csv:"origin_id"`
	DestinationID string `csv:"destination_id"`
	ContainsID    string `csv:"contains_id"`
}

// Returns the set of fare IDs.
func ParseFareAttributes(writer storage.FeedWriter, data io.Reader, agency map[string]bool) (map[string]bool, error) {
	fareCsv := []*FareAttributeCSV{}
	if err := gocsv.Unmarshal(data, &fareCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling fare_attributes csv: %w", err)
	}

	fares := map[string]bool{}
	for _, f := range fareCsv {
		if f.FareID == "" {
			return nil, fmt.Errorf("empty fare_id")
		}
		if fares[f.FareID] {
			return nil, fmt.Errorf("repeated fare_id '%s'", f.FareID)
		}
		fares[f.FareID] = true

		if f.Price < 0 {
			return nil, fmt.Errorf("fare_id '%s' has negative price", f.FareID)
		}
		if f.CurrencyType == "" {
			return nil, fmt.Errorf("fare_id '%s' has no currency_type", f.FareID)
		}
		if f.PaymentMethod != 0 && f.PaymentMethod != 1 {
			return nil, fmt.Errorf("fare_id '%s' has invalid payment_method %d", f.FareID, f.PaymentMethod)
		}
		if f.AgencyID != "" && !agency[f.AgencyID] {
			return nil, fmt.Errorf("fare_id '%s' references unknown agency_id '%s'", f.FareID, f.AgencyID)
		}

		// Empty means unlimited transfers.
		transfers := int8(-1)
		if s := strings.TrimSpace(f.Transfers); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 2 {
				return nil, fmt.Errorf("fare_id '%s' has invalid transfers '%s'", f.FareID, f.Transfers)
			}
			transfers = int8(n)
		}

		err := writer.WriteFareAttribute(&model.FareAttribute{
			FareID:           f.FareID,
			Price:            f.Price,
			CurrencyType:     f.CurrencyType,
			PaymentMethod:    f.PaymentMethod,
			Transfers:        transfers,
			AgencyID:         f.AgencyID,
			TransferDuration: f.TransferDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("writing fare attribute: %w", err)
		}
	}

	return fares, nil
}

func ParseFareRules(
	writer storage.FeedWriter,
	data io.Reader,
	fares map[string]bool,
	routes map[string]bool,
) error {
	ruleCsv := []*FareRuleCSV{}
	if err := gocsv.Unmarshal(data, &ruleCsv); err != nil {
		return fmt.Errorf("unmarshaling fare_rules csv: %w", err)
	}

	for _, r := range ruleCsv {
		if !fares[r.FareID] {
			return fmt.Errorf("unknown fare_id '%s'", r.FareID)
		}
		if r.RouteID != "" && !routes[r.RouteID] {
			return fmt.Errorf("fare_id '%s' references unknown route_id '%s'", r.FareID, r.RouteID)
		}

		err := writer.WriteFareRule(&model.FareRule{
			FareID:        r.FareID,
			RouteID:       r.RouteID,
			OriginID:      r.OriginID,
			DestinationID: r.DestinationID,
			ContainsID:    r.ContainsID,
		})
		if err != nil {
			return fmt.Errorf("writing fare rule: %w", err)
		}
	}

	return nil
}

package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
	Lang     string `csv:"agency_lang"`
	Phone    string `csv:"agency_phone"`
	FareURL  string `csv:"agency_fare_url"`
	Email    string `csv:"agency_email"`
}

// Writes every agency and returns the set of agency IDs along with
// the feed's timezone.
//
// All agencies must share a single valid agency_timezone, and with
// more than one agency each needs an agency_id.
func ParseAgency(writer storage.FeedWriter, data io.Reader) (map[string]bool, string, error) {
	rows := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, "", fmt.Errorf("unmarshaling agency csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, "", fmt.Errorf("no agency record found")
	}

	tz, err := agencyTimezone(rows)
	if err != nil {
		return nil, "", err
	}

	ids := make(map[string]bool, len(rows))
	for i, a := range rows {
		switch {
		case a.ID == "" && len(rows) > 1:
			return nil, "", fmt.Errorf("agency on row %d has no agency_id", i+1)
		case ids[a.ID]:
			return nil, "", fmt.Errorf("duplicated agency_id: '%s'", a.ID)
		case a.Name == "":
			return nil, "", fmt.Errorf("missing agency_name")
		case a.URL == "":
			return nil, "", fmt.Errorf("missing agency_url")
		}
		ids[a.ID] = true

		err := writer.WriteAgency(&model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: tz,
			Lang:     a.Lang,
			Phone:    a.Phone,
			FareURL:  a.FareURL,
			Email:    a.Email,
		})
		if err != nil {
			return nil, "", fmt.Errorf("writing agency: %w", err)
		}
	}

	return ids, tz, nil
}

func agencyTimezone(rows []*AgencyCSV) (string, error) {
	tz := rows[0].Timezone
	for _, a := range rows[1:] {
		if a.Timezone != tz {
			return "", fmt.Errorf("multiple agency_timezone: '%s' and '%s'", tz, a.Timezone)
		}
	}

	if tz == "" {
		return "", fmt.Errorf("missing agency_timezone")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("agency_timezone '%s' is invalid: %w", tz, err)
	}

	return tz, nil
}

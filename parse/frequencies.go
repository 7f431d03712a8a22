package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type FrequencyCSV struct {
	TripID      string `csv:"trip_id"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	HeadwaySecs int    `csv:"headway_secs"`
	ExactTimes  int8   `csv:"exact_times"`
}

func ParseFrequencies(writer storage.FeedWriter, data io.Reader, trips map[string]bool) error {
	frequencyCsv := []*FrequencyCSV{}
	if err := gocsv.Unmarshal(data, &frequencyCsv); err != nil {
		return fmt.Errorf("unmarshaling frequencies csv: %w", err)
	}

	for i, f := range frequencyCsv {
		if !trips[f.TripID] {
			return fmt.Errorf("unknown trip_id '%s' (row %d)", f.TripID, i+1)
		}

		start, err := model.ParseTime(f.StartTime)
		if err != nil {
			return fmt.Errorf("parsing start_time (row %d): %w", i+1, err)
		}
		end, err := model.ParseTime(f.EndTime)
		if err != nil {
			return fmt.Errorf("parsing end_time (row %d): %w", i+1, err)
		}
		if end < start {
			return fmt.Errorf("end_time before start_time (row %d)", i+1)
		}

		if f.HeadwaySecs <= 0 {
			return fmt.Errorf("invalid headway_secs %d (row %d)", f.HeadwaySecs, i+1)
		}
		if f.ExactTimes != 0 && f.ExactTimes != 1 {
			return fmt.Errorf("invalid exact_times %d (row %d)", f.ExactTimes, i+1)
		}

		err = writer.WriteFrequency(&model.Frequency{
			TripID:      f.TripID,
			StartTime:   start,
			EndTime:     end,
			HeadwaySecs: f.HeadwaySecs,
			ExactTimes:  f.ExactTimes,
		})
		if err != nil {
			return fmt.Errorf("writing frequency: %w", err)
		}
	}

	return nil
}

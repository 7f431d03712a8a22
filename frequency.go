package gtfslite

import (
	"tidbyt.dev/gtfslite/model"
)

// Number of times the trip runs within [start, end]. NoTime bounds
// are unbounded.
//
// Trips without frequencies run once. For a frequency based trip,
// each frequency row's window is clipped to the query window and
// contributes floor(clipped length / headway). Rows are summed.
func (f *Feed) FrequencyMultiplier(tripID string, start, end model.Time) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frequencyMultiplier(tripID, start, end)
}

// Reports whether the trip has frequencies.txt entries.
func (f *Feed) IsHeadwayBased(tripID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.idx.frequenciesByTrip[tripID]) > 0
}

func (f *Feed) frequencyMultiplier(tripID string, start, end model.Time) int {
	freqs, found := f.idx.frequenciesByTrip[tripID]
	if !found {
		return 1
	}

	total := 0
	for _, freq := range freqs {
		total += windowMultiplier(freq, start, end)
	}
	return total
}

func windowMultiplier(freq *model.Frequency, start, end model.Time) int {
	if freq.HeadwaySecs <= 0 {
		return 0
	}

	effStart := freq.StartTime
	if start != model.NoTime && start > effStart {
		effStart = start
	}
	effEnd := freq.EndTime
	if end != model.NoTime && end < effEnd {
		effEnd = end
	}

	if effEnd <= effStart {
		return 0
	}
	return int(effEnd-effStart) / freq.HeadwaySecs
}

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Time
		err      bool
	}{
		{"00:00:00", 0, false},
		{"06:05:09", 6*3600 + 5*60 + 9, false},
		{"5:30:00", 5*3600 + 30*60, false},
		{"23:59:59", 86399, false},
		{"24:00:00", 86400, false},
		{"25:10:00", 25*3600 + 600, false},
		{"101:00:00", 101 * 3600, false},
		{" 07:00:00", 7 * 3600, false},
		{"", NoTime, true},
		{"07:00", NoTime, true},
		{"07:00:00:00", NoTime, true},
		{"aa:00:00", NoTime, true},
		{"07:xx:00", NoTime, true},
		{"07:60:00", NoTime, true},
		{"07:00:60", NoTime, true},
		{"07:-1:00", NoTime, true},
		{"-1:00:00", NoTime, true},
		{"+5:+3:00", NoTime, true},
		{"07:+3:00", NoTime, true},
		{"07: 3:00", NoTime, true},
		{"07::00", NoTime, true},
		{"2562047788015216:00:00", NoTime, true},
		{"99999999999999999999:00:00", NoTime, true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTime(tc.in)
			if tc.err {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTimeFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseOptionalTime(t *testing.T) {
	got, err := ParseOptionalTime("")
	require.NoError(t, err)
	assert.Equal(t, NoTime, got)
	assert.False(t, got.Valid())

	got, err = ParseOptionalTime("08:00:00")
	require.NoError(t, err)
	assert.Equal(t, NewTime(8, 0, 0), got)

	_, err = ParseOptionalTime("8h")
	assert.True(t, errors.Is(err, ErrInvalidTimeFormat))
}

func TestTimeFormatting(t *testing.T) {
	assert.Equal(t, "00:00:00", Time(0).String())
	assert.Equal(t, "06:05:09", NewTime(6, 5, 9).String())
	assert.Equal(t, "25:30:00", NewTime(25, 30, 0).String())
	assert.Equal(t, "", NoTime.String())

	assert.Equal(t, "06:05", NewTime(6, 5, 59).Clock())
	assert.Equal(t, "26:00", NewTime(26, 0, 0).Clock())

	assert.InDelta(t, 1.5, NewTime(1, 30, 0).Hours(), 1e-9)
	assert.Equal(t, 90*time.Minute, NewTime(1, 30, 0).Duration())

	// String round trips through ParseTime, including past midnight
	for _, tm := range []Time{0, 59, 3599, 86399, 86400, 100000} {
		parsed, err := ParseTime(tm.String())
		require.NoError(t, err)
		assert.Equal(t, tm, parsed)
	}
}

func TestTimeOrdering(t *testing.T) {
	a, _ := ParseTime("23:59:59")
	b, _ := ParseTime("24:00:00")
	c, _ := ParseTime("9:00:00")
	d, _ := ParseTime("10:00:00")
	assert.True(t, a < b)
	assert.True(t, c < d)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("20200703")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, time.Friday, d.Weekday())
	assert.Equal(t, "20200703", FormatDate(d))

	_, err = ParseDate("20200732")
	assert.Error(t, err)
}

func TestCalendarRunsOn(t *testing.T) {
	c := &Calendar{
		ServiceID: "wd",
		StartDate: "20200101",
		EndDate:   "20201231",
		Weekday:   1<<time.Monday | 1<<time.Friday,
	}
	assert.True(t, c.RunsOn(time.Monday))
	assert.True(t, c.RunsOn(time.Friday))
	assert.False(t, c.RunsOn(time.Sunday))
	assert.True(t, c.Covers("20200101"))
	assert.True(t, c.Covers("20201231"))
	assert.False(t, c.Covers("20210101"))
}

func TestTimeText(t *testing.T) {
	b, err := json.Marshal(struct {
		A Time `json:"a"`
		B Time `json:"b"`
	}{NewTime(25, 1, 2), NoTime})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"25:01:02","b":""}`, string(b))

	var tm Time
	require.NoError(t, tm.UnmarshalText([]byte("07:30:00")))
	assert.Equal(t, NewTime(7, 30, 0), tm)
	require.NoError(t, tm.UnmarshalText([]byte("")))
	assert.Equal(t, NoTime, tm)
	assert.Error(t, tm.UnmarshalText([]byte("7:30")))
}

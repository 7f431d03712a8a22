package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeFormat = errors.New("invalid time format")

// Time is a GTFS schedule time: seconds since the start of the
// service day (noon minus 12h). Values of 24h and beyond are trips
// running past midnight on the same service day.
type Time int

// NoTime marks a missing time value. As a query bound it means
// unbounded.
const NoTime Time = -1

// Largest hour ParseTime accepts without overflowing Time.
const maxHour = math.MaxInt/3600 - 1

// Parses "HH:MM:SS". Hours may exceed 23 and may be given with a
// single digit.
func ParseTime(s string) (Time, error) {
	split := strings.Split(strings.TrimSpace(s), ":")
	if len(split) != 3 {
		return NoTime, fmt.Errorf("%w: found %d parts in '%s'", ErrInvalidTimeFormat, len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		if str == "" || str[0] < '0' || str[0] > '9' {
			return NoTime, fmt.Errorf("%w: non-digit in '%s' pos %d", ErrInvalidTimeFormat, s, i)
		}
		j, err := strconv.Atoi(str)
		if err != nil {
			return NoTime, fmt.Errorf("%w: non-integer in '%s' pos %d", ErrInvalidTimeFormat, s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > maxHour {
		return NoTime, fmt.Errorf("%w: invalid hour in '%s'", ErrInvalidTimeFormat, s)
	}

	if hms[1] < 0 || hms[1] > 59 {
		return NoTime, fmt.Errorf("%w: invalid minute in '%s'", ErrInvalidTimeFormat, s)
	}

	if hms[2] < 0 || hms[2] > 59 {
		return NoTime, fmt.Errorf("%w: invalid second in '%s'", ErrInvalidTimeFormat, s)
	}

	return Time(hms[0]*3600 + hms[1]*60 + hms[2]), nil
}

// Like ParseTime, but an empty string yields NoTime.
func ParseOptionalTime(s string) (Time, error) {
	if strings.TrimSpace(s) == "" {
		return NoTime, nil
	}
	return ParseTime(s)
}

func NewTime(h, m, s int) Time {
	return Time(h*3600 + m*60 + s)
}

func (t Time) Valid() bool {
	return t >= 0
}

// Zero padded HH:MM:SS, no wraparound at 24h. Missing times are "".
func (t Time) String() string {
	if !t.Valid() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

// Zero padded HH:MM.
func (t Time) Clock() string {
	if !t.Valid() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", int(t)/3600, int(t)%3600/60)
}

func (t Time) Hours() float64 {
	return float64(t) / 3600
}

func (t Time) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Time) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionalTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

const DateFormat = "20060102"

// Parses a YYYYMMDD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date '%s': %w", s, err)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

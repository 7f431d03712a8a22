package gtfslite

import (
	"errors"

	"tidbyt.dev/gtfslite/model"
)

var (
	// Neither calendar.txt nor calendar_dates.txt has any records.
	ErrFeedNotValid = errors.New("feed has no calendar or calendar dates")

	// The date is outside the span covered by the feed.
	ErrDateNotValid = errors.New("date not valid for feed")

	// A route, stop or trip ID that the feed doesn't have.
	ErrUnknownReference = errors.New("unknown reference")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidTimeFormat = model.ErrInvalidTimeFormat
)

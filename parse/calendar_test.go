package parse

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite/model"
)

func TestParseCalendar(t *testing.T) {
	for _, tc := range []struct {
		name       string
		content    string
		calendars  []*model.Calendar
		start, end string
		err        bool
	}{
		{
			name: "weekdays and weekend",
			content: `
service_id,start_date,end_date,monday,tuesday,wednesday,thursday,friday,saturday,sunday
wd,20200101,20201231,1,1,1,1,1,0,0
we,20200201,20210131,0,0,0,0,0,1,1`,
			calendars: []*model.Calendar{
				{
					ServiceID: "wd",
					StartDate: "20200101",
					EndDate:   "20201231",
					Weekday:   1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday,
				},
				{
					ServiceID: "we",
					StartDate: "20200201",
					EndDate:   "20210131",
					Weekday:   1<<time.Saturday | 1<<time.Sunday,
				},
			},
			start: "20200101",
			end:   "20210131",
		},
		{
			name: "missing days default to zero",
			content: `
service_id,start_date,end_date,sunday
s,20200101,20200101,1`,
			calendars: []*model.Calendar{
				{ServiceID: "s", StartDate: "20200101", EndDate: "20200101", Weekday: 1 << time.Sunday},
			},
			start: "20200101",
			end:   "20200101",
		},
		{
			name: "invalid day flag",
			content: `
service_id,start_date,end_date,monday
s,20200101,20200101,2`,
			err: true,
		},
		{
			name: "repeated service_id",
			content: `
service_id,start_date,end_date,monday
s,20200101,20200101,1
s,20200101,20200101,1`,
			err: true,
		},
		{
			name: "bad date",
			content: `
service_id,start_date,end_date,monday
s,2020-01-01,20200101,1`,
			err: true,
		},
		{
			name: "start after end",
			content: `
service_id,start_date,end_date,monday
s,20200102,20200101,1`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			services, start, end, err := ParseCalendar(writer, bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
			assert.Equal(t, len(tc.calendars), len(services))

			calendars, err := reader.Calendars()
			require.NoError(t, err)
			sort.Slice(calendars, func(i, j int) bool {
				return calendars[i].ServiceID < calendars[j].ServiceID
			})
			assert.Equal(t, tc.calendars, calendars)
		})
	}
}

func TestParseCalendarDates(t *testing.T) {
	for _, tc := range []struct {
		name       string
		content    string
		services   map[string]bool
		start, end string
		err        bool
	}{
		{
			name: "added and removed",
			content: `
service_id,date,exception_type
wd,20200703,2
sat,20201225,1`,
			services: map[string]bool{"wd": true, "sat": true},
			start:    "20200703",
			end:      "20201225",
		},
		{
			name: "illegal exception_type",
			content: `
service_id,date,exception_type
wd,20200703,3`,
			err: true,
		},
		{
			name: "same service and date twice",
			content: `
service_id,date,exception_type
wd,20200703,1
wd,20200703,2`,
			err: true,
		},
		{
			name: "bad date",
			content: `
service_id,date,exception_type
wd,20200732,1`,
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			services, start, end, err := ParseCalendarDates(writer, bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.services, services)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)

			cds, err := reader.CalendarDates()
			require.NoError(t, err)
			assert.Equal(t, 2, len(cds))
			for _, cd := range cds {
				if cd.ServiceID == "wd" {
					assert.Equal(t, model.ExceptionRemoved, cd.ExceptionType)
				} else {
					assert.Equal(t, model.ExceptionAdded, cd.ExceptionType)
				}
			}
		})
	}
}

package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfslite/model"
)

func TestParseRoutes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		agency  map[string]bool
		route   *model.Route
		err     bool
	}{
		{
			name: "minimal",
			content: `
route_id,route_short_name,route_type
r,R,3`,
			agency: map[string]bool{"": true},
			route: &model.Route{
				ID:        "r",
				ShortName: "R",
				Type:      model.RouteTypeBus,
				Color:     "FFFFFF",
				TextColor: "000000",
			},
		},
		{
			name: "all fields",
			content: `
route_id,agency_id,route_short_name,route_long_name,route_desc,route_type,route_url,route_color,route_text_color
r,a,R,Long R,desc,11,http://r,00FF00,FFFFFF`,
			agency: map[string]bool{"a": true, "b": true},
			route: &model.Route{
				ID:        "r",
				AgencyID:  "a",
				ShortName: "R",
				LongName:  "Long R",
				Desc:      "desc",
				Type:      model.RouteTypeTrolleybus,
				URL:       "http://r",
				Color:     "00FF00",
				TextColor: "FFFFFF",
			},
		},
		{
			name: "extended route_type",
			content: `
route_id,route_short_name,route_type
ic,IC,102`,
			agency: map[string]bool{"": true},
			route: &model.Route{
				ID:        "ic",
				ShortName: "IC",
				Type:      model.RouteType(102),
				Color:     "FFFFFF",
				TextColor: "000000",
			},
		},
		{
			name: "no names",
			content: `
route_id,route_type
r,3`,
			agency: map[string]bool{"": true},
			err:    true,
		},
		{
			name: "illegal route_type",
			content: `
route_id,route_short_name,route_type
r,R,9`,
			agency: map[string]bool{"": true},
			err:    true,
		},
		{
			name: "extended route_type out of range",
			content: `
route_id,route_short_name,route_type
r,R,1800`,
			agency: map[string]bool{"": true},
			err:    true,
		},
		{
			name: "missing agency_id with multiple agencies",
			content: `
route_id,route_short_name,route_type
r,R,3`,
			agency: map[string]bool{"a": true, "b": true},
			err:    true,
		},
		{
			name: "unknown agency_id",
			content: `
route_id,agency_id,route_short_name,route_type
r,c,R,3`,
			agency: map[string]bool{"a": true},
			err:    true,
		},
		{
			name: "bad color",
			content: `
route_id,route_short_name,route_type,route_color
r,R,3,GREEN`,
			agency: map[string]bool{"": true},
			err:    true,
		},
		{
			name: "repeated route_id",
			content: `
route_id,route_short_name,route_type
r,R,3
r,R2,3`,
			agency: map[string]bool{"": true},
			err:    true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			writer, reader := memoryFeed(t)

			routes, err := ParseRoutes(writer, bytes.NewBufferString(tc.content), tc.agency)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, map[string]bool{tc.route.ID: true}, routes)

			stored, err := reader.Routes()
			require.NoError(t, err)
			assert.Equal(t, []*model.Route{tc.route}, stored)
		})
	}
}

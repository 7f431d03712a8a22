package parse

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Desc      string `csv:"route_desc"`
	Type      string `csv:"route_type"`
	URL       string `csv:"route_url"`
	Color     string `csv:"route_color"`
	TextColor string `csv:"route_text_color"`
}

// Basic route types, plus the extended ones (100-1799) many
// European feeds use.
func legalRouteType(t model.RouteType) bool {
	switch {
	case t >= model.RouteTypeTram && t <= model.RouteTypeFunicular:
		return true
	case t == model.RouteTypeTrolleybus || t == model.RouteTypeMonorail:
		return true
	case t >= 100 && t < 1800:
		return true
	}
	return false
}

// Empty colors get the default, anything else must be 6 hex digits.
func routeColor(color, fallback string) (string, bool) {
	if color == "" {
		return fallback, true
	}
	if len(color) != 6 {
		return "", false
	}
	if _, err := hex.DecodeString(color); err != nil {
		return "", false
	}
	return color, true
}

func buildRoute(r *RouteCSV, agency map[string]bool) (*model.Route, error) {
	if len(agency) > 1 && r.AgencyID == "" {
		return nil, fmt.Errorf("route_id '%s' has no agency_id", r.ID)
	}
	if r.AgencyID != "" && !agency[r.AgencyID] {
		return nil, fmt.Errorf("unknown agency_id: '%s'", r.AgencyID)
	}

	if r.ShortName == "" && r.LongName == "" {
		return nil, fmt.Errorf("route_id '%s' has no short_name or long_name", r.ID)
	}

	if r.Type == "" {
		return nil, fmt.Errorf("route_id '%s' has no route_type", r.ID)
	}
	routeType, err := strconv.Atoi(r.Type)
	if err != nil {
		return nil, fmt.Errorf("route_id '%s' has invalid route_type: %w", r.ID, err)
	}
	if !legalRouteType(model.RouteType(routeType)) {
		return nil, fmt.Errorf("route_id '%s' has invalid route_type: %d", r.ID, routeType)
	}

	color, ok := routeColor(r.Color, "FFFFFF")
	if !ok {
		return nil, fmt.Errorf("route_id '%s' has invalid route_color: %s", r.ID, r.Color)
	}
	textColor, ok := routeColor(r.TextColor, "000000")
	if !ok {
		return nil, fmt.Errorf("route_id '%s' has invalid route_text_color: %s", r.ID, r.TextColor)
	}

	return &model.Route{
		ID:        r.ID,
		AgencyID:  r.AgencyID,
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Desc:      r.Desc,
		Type:      model.RouteType(routeType),
		URL:       r.URL,
		Color:     color,
		TextColor: textColor,
	}, nil
}

// Writes every route and returns the set of route IDs.
func ParseRoutes(writer storage.FeedWriter, data io.Reader, agency map[string]bool) (map[string]bool, error) {
	rows := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling routes: %w", err)
	}

	routes := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("route has no route_id")
		}
		if routes[r.ID] {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}
		routes[r.ID] = true

		route, err := buildRoute(r, agency)
		if err != nil {
			return nil, err
		}

		err = writer.WriteRoute(route)
		if err != nil {
			return nil, fmt.Errorf("writing route: %w", err)
		}
	}

	return routes, nil
}

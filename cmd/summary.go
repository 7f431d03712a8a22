package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Counts what's in the feed",
	Args:  cobra.NoArgs,
	RunE:  summary,
}

var tripsCmd = &cobra.Command{
	Use:   "trips <date>",
	Short: "Lists trips running on a date (YYYYMMDD)",
	Args:  cobra.ExactArgs(1),
	RunE:  trips,
}

var stopCmd = &cobra.Command{
	Use:   "stop <stop_id> <date>",
	Short: "Summarizes service at a stop",
	Args:  cobra.ExactArgs(2),
	RunE:  stop,
}

var routeCmd = &cobra.Command{
	Use:   "route <route_id> <date>",
	Short: "Summarizes service on a route",
	Args:  cobra.ExactArgs(2),
	RunE:  route,
}

var routesCmd = &cobra.Command{
	Use:   "routes <date>",
	Short: "Summarizes service on every route",
	Args:  cobra.ExactArgs(1),
	RunE:  routes,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(tripsCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(routesCmd)
}

func summary(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	s := feed.Summary()
	if jsonOutput {
		return printJSON(s)
	}

	fmt.Printf("agencies:    %s\n", strings.Join(s.Agencies, ", "))
	fmt.Printf("dates:       %s - %s\n", s.FirstDate, s.LastDate)
	fmt.Printf("stops:       %d\n", s.Stops)
	fmt.Printf("routes:      %d\n", s.Routes)
	fmt.Printf("trips:       %d\n", s.Trips)
	fmt.Printf("stop times:  %d\n", s.StopTimes)
	fmt.Printf("shapes:      %d (%d points)\n", s.Shapes, s.ShapePoints)

	return nil
}

func trips(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	trips, err := feed.ActiveTrips(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"date":     args[0],
			"services": feed.ActiveServices(args[0]),
			"trips":    trips,
		})
	}

	for _, trip := range trips {
		fmt.Printf("%s %s %s %s\n", trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign)
	}

	return nil
}

func stop(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	s, err := feed.StopSummary(args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	fmt.Printf("%s: %s\n", s.Stop.ID, s.Stop.Name)
	fmt.Printf("visits:   %d\n", s.TotalVisits)
	fmt.Printf("span:     %s - %s (%.2fh)\n", timeOrDash(s.FirstArrival), timeOrDash(s.LastDeparture), s.ServiceHours)
	fmt.Printf("headway:  %.1f min\n", s.AverageHeadway)

	return nil
}

func route(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	s, err := feed.RouteSummary(args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	fmt.Printf("%s: %s %s\n", s.Route.ID, s.Route.ShortName, s.Route.LongName)
	fmt.Printf("trips:    %d\n", s.TotalTrips)
	fmt.Printf("span:     %s - %s (%.2fh)\n", timeOrDash(s.FirstDeparture), timeOrDash(s.LastArrival), s.ServiceHours)
	fmt.Printf("headway:  %.1f min at %s\n", s.AverageHeadway, s.ReferenceStopID)

	return nil
}

func routes(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	rows, err := feed.RoutesSummary(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(rows)
	}

	for _, row := range rows {
		fmt.Printf(
			"%s %s trips=%d %s-%s headway=%.1f\n",
			row.Route.ID,
			row.Route.ShortName,
			row.Trips,
			timeOrDash(row.FirstDeparture),
			timeOrDash(row.LastArrival),
			row.AverageHeadway,
		)
	}

	return nil
}

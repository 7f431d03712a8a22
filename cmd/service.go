package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var serviceHoursCmd = &cobra.Command{
	Use:   "service-hours <date>",
	Short: "Sums hours of revenue service on a date",
	Args:  cobra.ExactArgs(1),
	RunE:  serviceHours,
}

var frequencyCmd = &cobra.Command{
	Use:   "frequency <date>",
	Short: "Counts trip starts per route in time bins",
	Args:  cobra.ExactArgs(1),
	RunE:  frequency,
}

var distributionCmd = &cobra.Command{
	Use:   "distribution <start_date> <end_date>",
	Short: "Counts trips per weekday over a date range",
	Args:  cobra.ExactArgs(2),
	RunE:  distribution,
}

var stopTripsCmd = &cobra.Command{
	Use:   "stop-trips <date> <stop_id>...",
	Short: "Lists trips visiting any of the given stops",
	Args:  cobra.MinimumNArgs(2),
	RunE:  stopTrips,
}

var (
	serviceHoursWindow windowFlags
	frequencyWindow    windowFlags
	stopTripsWindow    windowFlags
	interval           int
)

func init() {
	serviceHoursWindow.register(serviceHoursCmd)
	frequencyWindow.register(frequencyCmd)
	stopTripsWindow.register(stopTripsCmd)
	frequencyCmd.Flags().IntVarP(&interval, "interval", "i", 60, "Bin width in minutes")

	rootCmd.AddCommand(serviceHoursCmd)
	rootCmd.AddCommand(frequencyCmd)
	rootCmd.AddCommand(distributionCmd)
	rootCmd.AddCommand(stopTripsCmd)
}

func serviceHours(cmd *cobra.Command, args []string) error {
	start, end, field, err := serviceHoursWindow.parse()
	if err != nil {
		return err
	}

	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	hours, err := feed.ServiceHours(args[0], start, end, field)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"date": args[0], "hours": hours})
	}

	fmt.Printf("%.2f\n", hours)
	return nil
}

func frequency(cmd *cobra.Command, args []string) error {
	start, end, field, err := frequencyWindow.parse()
	if err != nil {
		return err
	}

	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	bins, err := feed.RouteFrequencyMatrix(args[0], interval, start, end, field)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(bins)
	}

	for _, bin := range bins {
		fmt.Printf("%s %s-%s trips=%d per_hour=%d\n", bin.RouteID, bin.BinStart, bin.BinEnd, bin.Trips, bin.Frequency)
	}

	return nil
}

func distribution(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	counts, err := feed.TripDistribution(args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(counts)
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		fmt.Printf("%-10s %d\n", strings.ToLower(day.String()), counts[day])
	}
	fmt.Printf("%-10s %d\n", "total", counts.Total())

	return nil
}

func stopTrips(cmd *cobra.Command, args []string) error {
	start, end, field, err := stopTripsWindow.parse()
	if err != nil {
		return err
	}

	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	trips, err := feed.TripsAtStops(args[1:], args[0], start, end, field)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(trips)
	}

	total := 0
	for _, trip := range trips {
		fmt.Printf("%s %s %s %s x%d\n", trip.Time, trip.StopID, trip.RouteID, trip.TripID, trip.Count)
		total += trip.Count
	}
	fmt.Printf("%d unique trips\n", total)

	return nil
}

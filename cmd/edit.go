package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfslite/parse"
	"tidbyt.dev/gtfslite/storage"
)

var deleteRoutesCmd = &cobra.Command{
	Use:   "delete-routes <route_id>...",
	Short: "Removes routes and what depends on them, writing a new feed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  deleteRoutes,
}

var (
	output    string
	keepStops bool
)

func init() {
	deleteRoutesCmd.Flags().StringVarP(&output, "output", "o", "", "Path to write the resulting zip to")
	deleteRoutesCmd.Flags().BoolVarP(&keepStops, "keep-stops", "", false, "Keep stops no longer served by any trip")
	rootCmd.AddCommand(deleteRoutesCmd)
}

func deleteRoutes(cmd *cobra.Command, args []string) error {
	feed, err := LoadFeed()
	if err != nil {
		return err
	}

	deletion, err := feed.DeleteRoutes(args, !keepStops)
	if err != nil {
		return err
	}

	if jsonOutput {
		err = printJSON(deletion)
		if err != nil {
			return err
		}
	} else {
		fmt.Printf(
			"removed %d routes, %d trips, %d stop times, %d stops, %d shapes\n",
			deletion.Routes,
			deletion.Trips,
			deletion.StopTimes,
			deletion.Stops,
			deletion.Shapes,
		)
	}

	if output == "" {
		return nil
	}

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("output")
	if err != nil {
		return err
	}
	err = feed.Save(writer)
	if err != nil {
		return fmt.Errorf("saving feed: %w", err)
	}
	reader, err := s.GetReader("output")
	if err != nil {
		return err
	}

	buf, err := parse.DumpStatic(reader)
	if err != nil {
		return fmt.Errorf("dumping feed: %w", err)
	}

	err = os.WriteFile(output, buf, 0644)
	if err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all configured feeds once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		app, err := buildApp(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer app.Close()

		results, err := app.ingest.FetchAllFeeds(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%-12s %-60s fetched=%d new=%d\n", r.Type, r.Source, r.Fetched, r.New)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

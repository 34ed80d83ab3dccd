package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeDaysBack int

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape recent CJEU judgments once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := commandContext()
		defer cancel()

		app, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		daysBack := scrapeDaysBack
		if daysBack <= 0 {
			daysBack = cfg.Sources.Cellar.DaysBack
		}
		result, err := app.ingest.ScrapeRecentJudgments(ctx, daysBack)
		if err != nil {
			return err
		}
		fmt.Printf("judgments fetched=%d new=%d\n", result.Fetched, result.New)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeDaysBack, "days-back", 0, "how many days back to query (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}

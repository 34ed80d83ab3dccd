package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeBatch int

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a batch of unsummarized judgments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := commandContext()
		defer cancel()

		app, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		batch := summarizeBatch
		if batch <= 0 {
			batch = cfg.Enrich.SummarizeBatch
		}
		summarized, err := app.pipeline.SummarizeJudgments(ctx, batch)
		if err != nil {
			return err
		}
		fmt.Printf("summarized %d judgments\n", summarized)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().IntVar(&summarizeBatch, "batch", 0, "batch size (default from config)")
	rootCmd.AddCommand(summarizeCmd)
}

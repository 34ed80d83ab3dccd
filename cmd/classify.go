package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyBatch int

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a batch of unclassified articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := commandContext()
		defer cancel()

		app, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		batch := classifyBatch
		if batch <= 0 {
			batch = cfg.Enrich.ClassifyBatch
		}
		classified, err := app.pipeline.ClassifyArticles(ctx, batch)
		if err != nil {
			return err
		}
		fmt.Printf("classified %d articles\n", classified)
		return nil
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyBatch, "batch", 0, "batch size (default from config)")
	rootCmd.AddCommand(classifyCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var relevanceCmd = &cobra.Command{
	Use:   "relevance",
	Short: "Recompute relevance scores for all articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		app, err := buildApp(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer app.Close()

		updated, err := app.rescore(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("updated %d scores\n", updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relevanceCmd)
}

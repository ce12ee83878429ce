package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var legendCmd = &cobra.Command{
	Use:     "legend",
	Short:   "Show the legend rows and their colors",
	GroupID: "overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := lensClient.GetLegend(context.Background())
		if err != nil {
			return fmt.Errorf("fetching legend: %w", err)
		}

		if jsonOutput {
			return printJSON(resp)
		}
		if len(resp.Rows) == 0 {
			fmt.Println("Legend is empty.")
			return nil
		}
		printLegendTable(resp.Rows)
		return nil
	},
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Short:   "List tracked overlay entries",
	GroupID: "overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := lensClient.GetOverlay(context.Background())
		if err != nil {
			return fmt.Errorf("listing overlay entries: %w", err)
		}

		if jsonOutput {
			return printJSON(resp)
		}
		if len(resp.Entries) == 0 {
			fmt.Println("No overlay entries.")
			return nil
		}
		printOverlayTable(resp.Entries, resp.Total)
		return nil
	},
}

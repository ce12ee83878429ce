package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show server health and overlay counts",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := lensClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			if err := printJSON(status); err != nil {
				return err
			}
		} else {
			loop := "stopped"
			if status.LoopRunning {
				loop = fmt.Sprintf("running (frame %d)", status.Frame)
			}
			fmt.Println("Lens Status")
			fmt.Printf("  Status:       %s\n", status.Status)
			fmt.Printf("  Nodes:        %d\n", status.Nodes)
			fmt.Printf("  Edges:        %d\n", status.Edges)
			fmt.Printf("  Tracked:      %d\n", status.Tracked)
			fmt.Printf("  Legend Rows:  %d\n", status.LegendRows)
			fmt.Printf("  Loop:         %s\n", loop)
		}

		if status.Status != "ok" {
			return fmt.Errorf("unhealthy: %s", status.Status)
		}
		return nil
	},
}

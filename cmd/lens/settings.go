package main

import (
	"context"
	"fmt"

	"github.com/groblegark/linklens/internal/client"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Show or change display settings",
	GroupID: "overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := &client.SettingsRequest{}
		if cmd.Flags().Changed("color-mode") {
			v, _ := cmd.Flags().GetBool("color-mode")
			patch.ColorMode = &v
		}
		if cmd.Flags().Changed("show-labels") {
			v, _ := cmd.Flags().GetBool("show-labels")
			patch.ShowLabels = &v
		}
		if cmd.Flags().Changed("show-legend") {
			v, _ := cmd.Flags().GetBool("show-legend")
			patch.ShowLegend = &v
		}

		// No flags: just show the current settings.
		if patch.ColorMode == nil && patch.ShowLabels == nil && patch.ShowLegend == nil {
			settings, err := lensClient.GetSettings(context.Background())
			if err != nil {
				return fmt.Errorf("fetching settings: %w", err)
			}
			if jsonOutput {
				return printJSON(settings)
			}
			printSettings(settings)
			return nil
		}

		settings, err := lensClient.UpdateSettings(context.Background(), patch)
		if err != nil {
			return fmt.Errorf("updating settings: %w", err)
		}
		if jsonOutput {
			return printJSON(settings)
		}
		printSettings(settings)
		return nil
	},
}

func init() {
	settingsCmd.Flags().Bool("color-mode", false, "color indicator lines by edge type")
	settingsCmd.Flags().Bool("show-labels", false, "show edge type labels")
	settingsCmd.Flags().Bool("show-legend", false, "show the legend")
}

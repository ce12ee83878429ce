package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	Short:   "Manage classification rules",
	GroupID: "overlay",
}

var rulesReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload rules from the configured source",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := lensClient.ReloadRules(context.Background())
		if err != nil {
			return fmt.Errorf("reloading rules: %w", err)
		}
		if jsonOutput {
			return printJSON(summary)
		}
		fmt.Printf("Reloaded rules from %s: %d links, %d prefixes\n",
			summary.Source, summary.Links, summary.Prefixes)
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesReloadCmd)
}

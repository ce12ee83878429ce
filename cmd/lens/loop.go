package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var loopCmd = &cobra.Command{
	Use:     "loop",
	Short:   "Control the frame loop",
	GroupID: "overlay",
}

var loopRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the frame loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := lensClient.RestartLoop(context.Background())
		if err != nil {
			return fmt.Errorf("restarting loop: %w", err)
		}
		if jsonOutput {
			return printJSON(status)
		}
		printLoopStatus(status)
		return nil
	},
}

var loopStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the frame loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := lensClient.StopLoop(context.Background())
		if err != nil {
			return fmt.Errorf("stopping loop: %w", err)
		}
		if jsonOutput {
			return printJSON(status)
		}
		printLoopStatus(status)
		return nil
	},
}

func init() {
	loopCmd.AddCommand(loopRestartCmd)
	loopCmd.AddCommand(loopStopCmd)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/groblegark/linklens/internal/replay"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Capture the current scene as a replay stream",
	GroupID: "scene",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		snap, err := lensClient.GetScene(context.Background())
		if err != nil {
			return fmt.Errorf("fetching scene: %w", err)
		}

		out := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			out = f
		}

		w, err := replay.NewWriter(out)
		if err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if err := w.Write(replay.SnapshotFrame(*snap)); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}

		if output != "" {
			fmt.Printf("Wrote snapshot (%d nodes, %d edges) to %s\n",
				len(snap.Nodes), len(snap.Edges), output)
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringP("output", "o", "", "write the stream to a file instead of stdout")
}

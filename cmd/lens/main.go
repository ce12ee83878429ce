package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/groblegark/linklens/internal/client"
	"github.com/groblegark/linklens/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	actor      string

	lensClient client.LensClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServerURL() string {
	if s := os.Getenv("LENS_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "lens <command>",
	Short: "CLI client for the linklens overlay service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		lensClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if lensClient != nil {
			lensClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "lens server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("LENS_TOKEN"), "bearer token for the lens server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddGroup(
		&cobra.Group{ID: "overlay", Title: "Overlay:"},
		&cobra.Group{ID: "scene", Title: "Scene:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Overlay
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(legendCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(rulesCmd)

	// Scene
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(snapshotCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

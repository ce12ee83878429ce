package main

import (
	"context"
	"fmt"

	"github.com/groblegark/linklens/internal/client"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:     "link",
	Short:   "Manage link records used to classify edges",
	GroupID: "overlay",
}

var linkAddCmd = &cobra.Command{
	Use:   "add <source> <target>",
	Short: "Store a link record for a node pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		linkType, _ := cmd.Flags().GetString("type")

		link, err := lensClient.PutLink(context.Background(), &client.PutLinkRequest{
			Source:    args[0],
			Target:    args[1],
			Type:      linkType,
			CreatedBy: actor,
		})
		if err != nil {
			return fmt.Errorf("adding link: %w", err)
		}

		if jsonOutput {
			return printJSON(link)
		}
		fmt.Printf("Source:      %s\n", link.Source)
		fmt.Printf("Target:      %s\n", link.Target)
		fmt.Printf("Type:        %s\n", link.Type)
		fmt.Printf("Created By:  %s\n", link.CreatedBy)
		if !link.CreatedAt.IsZero() {
			fmt.Printf("Created At:  %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:   "rm <source> <target>",
	Short: "Remove a link record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lensClient.DeleteLink(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("removing link: %w", err)
		}
		fmt.Println("Removed link")
		return nil
	},
}

var linkListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored link records",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := lensClient.ListLinks(context.Background())
		if err != nil {
			return fmt.Errorf("listing links: %w", err)
		}

		if jsonOutput {
			return printJSON(resp)
		}
		if len(resp.Links) == 0 {
			fmt.Println("No links found.")
			return nil
		}
		printLinksTable(resp.Links)
		return nil
	},
}

func init() {
	linkAddCmd.Flags().StringP("type", "t", "related", "link type")

	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkListCmd)
}

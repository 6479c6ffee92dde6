package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var itemAddCmd = &cobra.Command{
	Use:   "item:add <node-id>",
	Short: "Register a new item rooted at a node",
	Long: `Register a tracked entity at its origin node. The caller must be
authorized on the node (owner or delegated operator).

Example:
  traceline item:add 1 --as alice --data "batch 2026-08-31"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		node, err := parseNodeID(args[0])
		if err != nil {
			return err
		}
		sig, err := resolveSignature()
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := svc.AddItem(cmd.Context(), who, node, sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "item %d\n", id)
		return nil
	},
}

var itemRemoveCmd = &cobra.Command{
	Use:   "item:remove <item-id>",
	Short: "Remove an item that has no steps yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		id, err := parseItemID(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.RemoveItem(cmd.Context(), who, id)
	},
}

func init() {
	addActorFlags(itemAddCmd, true)
	addActorFlags(itemRemoveCmd, false)

	rootCmd.AddCommand(itemAddCmd, itemRemoveCmd)
}

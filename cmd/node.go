package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provlab/traceline/internal/domain/provenance"
)

var nodeAddCmd = &cobra.Command{
	Use:   "node:add",
	Short: "Register a new node owned by the acting principal",
	Long: `Register a participating location. The caller becomes the node's
immutable owner.

Examples:
  traceline node:add --as alice --file factory.json
  traceline node:add --as alice --data "smelter #4"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
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

		id, err := svc.AddNode(cmd.Context(), who, sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "node %d\n", id)
		return nil
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "node:remove <node-id>",
	Short: "Remove a node that owns no active steps (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		id, err := parseNodeID(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.RemoveNode(cmd.Context(), who, id)
	},
}

var nodeRevoke bool

var nodeOperatorCmd = &cobra.Command{
	Use:   "node:operator <node-id> <principal>",
	Short: "Delegate or revoke operator rights on a node (owner only)",
	Long: `Grant a principal the right to act for the node, or revoke it with
--revoke. Operators can add items and steps but never approve precedent
citations; approvals stay with the owner.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		id, err := parseNodeID(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.SetOperator(cmd.Context(), who, id, provenance.Principal(args[1]), !nodeRevoke)
	},
}

func init() {
	addActorFlags(nodeAddCmd, true)
	addActorFlags(nodeRemoveCmd, false)
	addActorFlags(nodeOperatorCmd, false)
	nodeOperatorCmd.Flags().BoolVar(&nodeRevoke, "revoke", false, "revoke instead of grant")

	rootCmd.AddCommand(nodeAddCmd, nodeRemoveCmd, nodeOperatorCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provlab/traceline/internal/domain/provenance"
)

var stepPrecedents []string

func parsePrecedents() ([]provenance.StepID, error) {
	out := make([]provenance.StepID, 0, len(stepPrecedents))
	for _, arg := range stepPrecedents {
		id, err := parseStepID(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

var stepAddCmd = &cobra.Command{
	Use:   "step:add <node-id> <item-id>",
	Short: "Record a production step advancing an item",
	Long: `Record a step at a node, advancing an item to a new frontier. Cite
precedent steps with --precedent (repeatable, ordered). Citing another
item's frontier pulls its history in; citing a step of another node
requires that node's approval.

Examples:
  traceline step:add 1 1 --as alice --data "cast"
  traceline step:add 2 2 --as bob --data "assemble" --precedent 3 --precedent 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		node, err := parseNodeID(args[0])
		if err != nil {
			return err
		}
		item, err := parseItemID(args[1])
		if err != nil {
			return err
		}
		precedents, err := parsePrecedents()
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

		id, err := svc.AddStep(cmd.Context(), who, node, item, precedents, sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "step %d\n", id)
		return nil
	},
}

var stepCheckCmd = &cobra.Command{
	Use:   "step:check <node-id> <item-id>",
	Short: "Dry-run a step admission without recording anything",
	Long: `Run the full admission check for a hypothetical step and report the
verdict. Nothing is recorded, no audit event is emitted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		node, err := parseNodeID(args[0])
		if err != nil {
			return err
		}
		item, err := parseItemID(args[1])
		if err != nil {
			return err
		}
		precedents, err := parsePrecedents()
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.ValidateStep(cmd.Context(), who, node, item, precedents); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "rejected: %v\n", err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var stepRemoveCmd = &cobra.Command{
	Use:   "step:remove <step-id>",
	Short: "Remove an item's frontier step and rewind the frontier",
	Long: `Remove a step. Only an item's frontier step can be removed, only by a
principal authorized on its node, and only while no other node holds an
approval on it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		id, err := parseStepID(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.RemoveStep(cmd.Context(), who, id)
	},
}

var stepRequestCmd = &cobra.Command{
	Use:   "step:request <step-id> <node-id>",
	Short: "Ask the owner of a step for precedent approval",
	Long: `Record an access request: the named node (owned by the caller) asks
the owner of the step's node for the right to cite it. Pure notification;
the grant itself happens through step:approve.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		step, err := parseStepID(args[0])
		if err != nil {
			return err
		}
		node, err := parseNodeID(args[1])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.RequestAccess(cmd.Context(), who, step, node)
	},
}

var stepRevoke bool

var stepApproveCmd = &cobra.Command{
	Use:   "step:approve <step-id> <node-id>",
	Short: "Grant or revoke a node's right to cite a step",
	Long: `Grant the named node the right to cite the step as a precedent, or
revoke it with --revoke. Only the owner of the step's node may do this;
operators cannot.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := caller()
		if err != nil {
			return err
		}
		step, err := parseStepID(args[0])
		if err != nil {
			return err
		}
		node, err := parseNodeID(args[1])
		if err != nil {
			return err
		}

		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		return svc.SetApproval(cmd.Context(), who, step, node, !stepRevoke)
	},
}

func init() {
	addActorFlags(stepAddCmd, true)
	stepAddCmd.Flags().StringArrayVar(&stepPrecedents, "precedent", nil,
		"precedent step id (repeatable, ordered)")
	addActorFlags(stepCheckCmd, false)
	stepCheckCmd.Flags().StringArrayVar(&stepPrecedents, "precedent", nil,
		"precedent step id (repeatable, ordered)")
	addActorFlags(stepRemoveCmd, false)
	addActorFlags(stepRequestCmd, false)
	addActorFlags(stepApproveCmd, false)
	stepApproveCmd.Flags().BoolVar(&stepRevoke, "revoke", false, "revoke instead of grant")

	rootCmd.AddCommand(stepAddCmd, stepCheckCmd, stepRemoveCmd, stepRequestCmd, stepApproveCmd)
}

package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/provlab/traceline/internal/domain/provenance"
)

// JSON projections of the ledger state. File signatures render as CIDv1
// strings so they can be matched against content-addressed stores.

type nodeJSON struct {
	ID          provenance.NodeID `json:"id"`
	Owner       string            `json:"owner"`
	File        string            `json:"file"`
	ActiveSteps int               `json:"active_steps"`
	Operators   []string          `json:"operators,omitempty"`
}

type itemJSON struct {
	ID       provenance.ItemID `json:"id"`
	Origin   provenance.NodeID `json:"origin"`
	File     string            `json:"file"`
	LastStep provenance.StepID `json:"last_step,omitempty"`
}

type stepJSON struct {
	ID         provenance.StepID   `json:"id"`
	Node       provenance.NodeID   `json:"node"`
	Item       provenance.ItemID   `json:"item"`
	File       string              `json:"file"`
	Precedents []provenance.StepID `json:"precedents,omitempty"`
	Approved   []provenance.NodeID `json:"approved,omitempty"`
}

type ledgerJSON struct {
	Nodes []nodeJSON `json:"nodes"`
	Items []itemJSON `json:"items"`
	Steps []stepJSON `json:"steps"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the ledger registries as JSON",
	Long: `Print every live node, item, and step as JSON, ordered by id.

Examples:
  traceline inspect
  traceline inspect | jq '.steps[].precedents'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := buildService()
		if err != nil {
			return err
		}
		defer cleanup()

		snap := svc.Snapshot(cmd.Context())
		out := ledgerJSON{
			Nodes: make([]nodeJSON, 0, len(snap.Nodes)),
			Items: make([]itemJSON, 0, len(snap.Items)),
			Steps: make([]stepJSON, 0, len(snap.Steps)),
		}
		for _, n := range snap.Nodes {
			operators := make([]string, 0, len(n.Operators))
			for _, p := range n.Operators {
				operators = append(operators, string(p))
			}
			out.Nodes = append(out.Nodes, nodeJSON{
				ID:          n.ID,
				Owner:       string(n.Owner),
				File:        n.File.String(),
				ActiveSteps: n.ActiveSteps,
				Operators:   operators,
			})
		}
		for _, i := range snap.Items {
			out.Items = append(out.Items, itemJSON{
				ID:       i.ID,
				Origin:   i.Origin,
				File:     i.File.String(),
				LastStep: i.LastStep,
			})
		}
		for _, s := range snap.Steps {
			out.Steps = append(out.Steps, stepJSON{
				ID:         s.ID,
				Node:       s.Node,
				Item:       s.Item,
				File:       s.File.String(),
				Precedents: s.Precedents,
				Approved:   s.Approved,
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

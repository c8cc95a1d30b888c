package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vitals/internal/calibration"
)

func newOutcomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Record a prediction-vs-reality outcome for a node",
		Long: `Record whether a danger prediction for a node came true. Outcomes
feed threshold calibration: too many false negatives lowers a node's
threshold, too many false positives raises it.

Example:
  vitals outcome --node runway --predicted --actual=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			node, _ := cmd.Flags().GetString("node")
			predicted, _ := cmd.Flags().GetBool("predicted")
			actual, _ := cmd.Flags().GetBool("actual")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.RecordOutcome(node, predicted, actual); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"node":      node,
					"predicted": predicted,
					"actual":    actual,
				})
			}
			fmt.Fprintf(out, "Recorded outcome for %s (predicted=%t, actual=%t)\n", node, predicted, actual)
			return nil
		},
	}

	cmd.Flags().String("node", "", "Node the prediction was about (required)")
	cmd.Flags().Bool("predicted", false, "Whether danger was predicted")
	cmd.Flags().Bool("actual", false, "Whether damage actually occurred")
	cmd.MarkFlagRequired("node")

	return cmd
}

func newCalibrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate [node]",
		Short: "Recalibrate warning thresholds from recorded outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				adj, err := a.engine.Calibrate(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(adj)
				}
				printAdjustment(cmd, adj)
				return nil
			}

			all, err := a.engine.CalibrateAll()
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"adjustments": all, "count": len(all)})
			}
			ids := make([]string, 0, len(all))
			for id := range all {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				printAdjustment(cmd, all[id])
			}
			return nil
		},
	}
}

func printAdjustment(cmd *cobra.Command, adj calibration.Adjustment) {
	out := cmd.OutOrStdout()
	if !adj.Applied {
		fmt.Fprintf(out, "%-12s unchanged (%s, %d sample(s))\n", adj.Node, adj.Reason, adj.Samples)
		return
	}
	fmt.Fprintf(out, "%-12s %s threshold %.2f -> %.2f (FN=%d FP=%d over %d sample(s))\n",
		adj.Node, adj.Direction, adj.Before, adj.After,
		adj.FalseNegatives, adj.FalsePositives, adj.Samples)
}

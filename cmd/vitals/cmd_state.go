package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"vitals/internal/gates"
	"vitals/internal/graph"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current pressure and health state for every node",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.engine.Gates()
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"gates":       all,
					"last_update": a.engine.LastUpdate(),
				})
			}

			ids := sortedNodeIDs(all)
			fmt.Fprintf(out, "Vitals (%d nodes):\n\n", len(ids))
			for _, id := range ids {
				g := all[id]
				fmt.Fprintf(out, "  %-12s %.2f  %-12s confidence=%.2f (%s)\n",
					g.Node, g.Pressure, g.State, g.Confidence, g.DisplayMode)
			}
			if last := a.engine.LastUpdate(); !last.IsZero() {
				fmt.Fprintf(out, "\nLast update: %s\n", last.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newGatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gates [node]",
		Short: "Evaluate health gates for one node or all nodes",
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
				g, err := a.engine.Gate(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(g)
				}
				printGate(cmd, g)
				return nil
			}

			all, err := a.engine.Gates()
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"gates": all, "count": len(all)})
			}
			for _, id := range sortedNodeIDs(all) {
				printGate(cmd, all[id])
			}
			return nil
		},
	}
}

func printGate(cmd *cobra.Command, g gates.Gate) {
	out := cmd.OutOrStdout()
	passed := "no"
	if g.Passed {
		passed = "yes"
	}
	fmt.Fprintf(out, "%s:\n", g.Node)
	fmt.Fprintf(out, "  Pressure:   %.3f\n", g.Pressure)
	fmt.Fprintf(out, "  State:      %s\n", g.State)
	fmt.Fprintf(out, "  Passed:     %s\n", passed)
	fmt.Fprintf(out, "  Confidence: %.2f (%d updates, %s)\n", g.Confidence, g.UpdateCount, g.DisplayMode)
	fmt.Fprintln(out)
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an external perturbation to a node",
		Long: `Apply a pressure delta to a single node, damped by the node's mass.

Example:
  vitals apply --node sleep --motion shock --delta 0.3 --source wearable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			node, _ := cmd.Flags().GetString("node")
			motion, _ := cmd.Flags().GetString("motion")
			delta, _ := cmd.Flags().GetFloat64("delta")
			friction, _ := cmd.Flags().GetFloat64("friction")
			source, _ := cmd.Flags().GetString("source")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Apply(node, graph.Motion(motion), delta, friction, source)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(res)
			}
			fmt.Fprintf(out, "Applied %s to %s: %.3f -> %.3f (delta %.3f, damping %.2f)\n",
				res.Motion, res.Node, res.Before, res.After, res.Applied, res.Damping)
			return nil
		},
	}

	cmd.Flags().String("node", "", "Target node ID (required)")
	cmd.Flags().String("motion", "", "Perturbation category: impulse, drift, shock, relief (required)")
	cmd.Flags().Float64("delta", 0, "Pressure delta in [-1,1] (required)")
	cmd.Flags().Float64("friction", 0, "Friction factor, dampened by node mass")
	cmd.Flags().String("source", "", "Originating source label")
	cmd.MarkFlagRequired("node")
	cmd.MarkFlagRequired("motion")
	cmd.MarkFlagRequired("delta")

	return cmd
}

func newPropagateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Run propagation cycles across all edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			dt, _ := cmd.Flags().GetFloat64("dt")
			cycles, _ := cmd.Flags().GetInt("cycles")
			if cycles < 1 {
				cycles = 1
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var applied map[string]float64
			for i := 0; i < cycles; i++ {
				applied, err = a.engine.Propagate(dt)
				if err != nil {
					return err
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"cycles":  cycles,
					"applied": applied,
				})
			}
			fmt.Fprintf(out, "Ran %d cycle(s). Last cycle deltas:\n", cycles)
			for _, id := range sortedKeys(applied) {
				fmt.Fprintf(out, "  %-12s %+.4f\n", id, applied[id])
			}
			return nil
		},
	}

	cmd.Flags().Float64("dt", 1, "Time step per cycle")
	cmd.Flags().Int("cycles", 1, "Number of cycles to run")

	return cmd
}

func newTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Decay all pressures toward zero for elapsed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			hours, _ := cmd.Flags().GetFloat64("hours")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			decayed, err := a.engine.Tick(time.Duration(hours * float64(time.Hour)))
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"elapsed_hours": hours,
					"decayed":       decayed,
				})
			}
			fmt.Fprintf(out, "Decayed %.1f hour(s):\n", hours)
			for _, id := range sortedKeys(decayed) {
				fmt.Fprintf(out, "  %-12s -%.4f\n", id, decayed[id])
			}
			return nil
		},
	}

	cmd.Flags().Float64("hours", 0, "Elapsed wall-clock hours (required)")
	cmd.MarkFlagRequired("hours")

	return cmd
}

func sortedNodeIDs(all map[string]gates.Gate) []string {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

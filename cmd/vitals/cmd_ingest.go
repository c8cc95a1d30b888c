package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vitals/internal/engine"
	"vitals/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Normalize and apply a JSONL feed of metric readings",
		Long: `Read metric readings from a JSONL feed (one reading per line),
normalize each into a pressure delta, and apply the whole feed.

Malformed lines are skipped, readings for unknown nodes are reported,
and the rest of the feed still applies.

Example:
  vitals ingest --feed readings.jsonl
  cat readings.jsonl | vitals ingest --feed -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			feedPath, _ := cmd.Flags().GetString("feed")

			var r io.Reader
			if feedPath == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(feedPath)
				if err != nil {
					return fmt.Errorf("opening feed: %w", err)
				}
				defer f.Close()
				r = f
			}

			res, err := ingest.ReadFeed(r)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			applied := make([]engine.ApplyResult, 0, len(res.Deltas))
			unknown := 0
			for _, d := range res.Deltas {
				ar, err := a.engine.Apply(d.Node, d.Motion, d.Delta, 0, d.Source)
				if err != nil {
					// Unknown nodes in a feed are reported, not fatal.
					a.logger.Warn("skipping feed delta", "node", d.Node, "error", err)
					unknown++
					continue
				}
				applied = append(applied, ar)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"applied":       applied,
					"count":         len(applied),
					"skipped_lines": res.Skipped,
					"unknown_nodes": unknown,
				})
			}
			fmt.Fprintf(out, "Applied %d reading(s)", len(applied))
			if res.Skipped > 0 {
				fmt.Fprintf(out, ", skipped %d malformed line(s)", res.Skipped)
			}
			if unknown > 0 {
				fmt.Fprintf(out, ", %d unknown node(s)", unknown)
			}
			fmt.Fprintln(out)
			for _, ar := range applied {
				fmt.Fprintf(out, "  %-12s %.3f -> %.3f (%s)\n", ar.Node, ar.Before, ar.After, ar.Motion)
			}
			return nil
		},
	}

	cmd.Flags().String("feed", "", "Path to JSONL feed, or - for stdin (required)")
	cmd.MarkFlagRequired("feed")

	return cmd
}

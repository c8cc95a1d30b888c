package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [name]",
		Short: "Save a named snapshot of the current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := a.engine.Snapshot(args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(info)
			}
			fmt.Fprintf(out, "Saved snapshot %q at %s\n", info.Name, info.TakenAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.AddCommand(newSnapshotListCmd())

	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			infos, err := a.engine.ListSnapshots()
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"snapshots": infos,
					"count":     len(infos),
				})
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No snapshots saved.")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(out, "  %-20s %s\n", info.Name, info.TakenAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore state from a named snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.RestoreSnapshot(args[0]); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]string{
					"status":   "restored",
					"snapshot": args[0],
				})
			}
			fmt.Fprintf(out, "Restored state from snapshot %q\n", args[0])
			return nil
		},
	}
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export state, snapshots, and outcomes to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.store.Backup(context.Background(), output)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"path":      output,
					"snapshots": len(b.Snapshots),
					"outcomes":  len(b.Outcomes),
				})
			}
			fmt.Fprintf(out, "Backed up %d snapshot(s) and %d outcome log(s) to %s\n",
				len(b.Snapshots), len(b.Outcomes), output)
			return nil
		},
	}

	cmd.Flags().String("output", "vitals-backup.json", "Backup file path")

	return cmd
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all pressures to resting levels and clear history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("reset discards current state and outcome logs; re-run with --force to confirm")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.Reset(); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]string{"status": "reset"})
			}
			fmt.Fprintln(out, "Reset all nodes to resting pressure.")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Confirm the reset")

	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vitals",
		Short: "Vitals - life-state pressure propagation engine",
		Long: `vitals tracks pressure across the dimensions of a life or business:
financial, biometric, operational, customer, and external.

Pressure flows along typed edges each cycle, decays toward zero over
time, and crosses calibrated thresholds into health states.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: <root>/.vitals/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newStatusCmd(),
		newGatesCmd(),
		newApplyCmd(),
		newPropagateCmd(),
		newTickCmd(),
		newIngestCmd(),
		newOutcomeCmd(),
		newCalibrateCmd(),
		newSnapshotCmd(),
		newRestoreCmd(),
		newBackupCmd(),
		newResetCmd(),
		newServeCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

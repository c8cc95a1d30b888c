package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vitals/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize vitals tracking in current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			vitalsDir := filepath.Join(root, ".vitals")
			if err := os.MkdirAll(vitalsDir, 0755); err != nil {
				return fmt.Errorf("failed to create .vitals directory: %w", err)
			}

			// Write a starter config the first time only.
			configPath := filepath.Join(vitalsDir, "config.yaml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				starter := `# Vitals configuration
# created: %s
#
# topology: path/to/topology.yaml   # built-in graph when omitted
engine:
  history_cap: 64
calibration:
  min_samples: 3
  step: 0.05
  floor: 0.50
  ceil: 0.95
  log_cap: 50
server:
  addr: 127.0.0.1:8643
logging:
  level: info
`
				content := fmt.Sprintf(starter, time.Now().Format(time.RFC3339))
				if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
					return fmt.Errorf("failed to create config.yaml: %w", err)
				}
			}

			// Opening the store creates the database and schema.
			st, err := store.Open(root, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			st.Close()

			out := cmd.OutOrStdout()
			if jsonOut {
				json.NewEncoder(out).Encode(map[string]string{
					"status": "initialized",
					"path":   vitalsDir,
				})
			} else {
				fmt.Fprintf(out, "Initialized .vitals/ in %s\n", root)
			}
			return nil
		},
	}
}

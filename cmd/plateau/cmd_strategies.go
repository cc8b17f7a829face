package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/plateau/internal/config"
)

func newStrategiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List the strategies found in the sweep dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			sess, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				strategies := make([]map[string]any, 0, len(sess.Class.Keys))
				for _, key := range sess.Class.Keys {
					strat := sess.Class.Strategies[key]
					strategies = append(strategies, map[string]any{
						"key":     strat.Key,
						"label":   strat.Label,
						"members": len(strat.Members),
					})
				}
				return enc.Encode(map[string]any{
					"dataset":         sess.DatasetID,
					"strategies":      strategies,
					"skipped_records": sess.Class.Skipped,
				})
			}

			fmt.Printf("Dataset %s: %d strategies, %d records", sess.DatasetID, len(sess.Class.Keys), len(sess.Records))
			if sess.Class.Skipped > 0 {
				fmt.Printf(" (%d skipped)", sess.Class.Skipped)
			}
			fmt.Println()
			for _, key := range sess.Class.Keys {
				fmt.Printf("  %s\n", sess.Class.Strategies[key].Label)
				fmt.Printf("    key: %s\n", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

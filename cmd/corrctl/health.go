package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the correlation config service",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := "ok"
		herr := configClient.Health(cmd.Context())
		if herr != nil {
			status = "unhealthy"
		}

		if jsonOutput {
			out := map[string]string{"status": status}
			if herr != nil {
				out["error"] = herr.Error()
			}
			if err := printJSON(out); err != nil {
				return err
			}
		} else {
			fmt.Printf("Health: %s\n", status)
		}

		if herr != nil {
			return fmt.Errorf("checking health: %w", herr)
		}
		return nil
	},
}

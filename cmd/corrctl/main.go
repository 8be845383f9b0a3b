package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/client"
)

var (
	httpURL    string
	apiToken   string
	jsonOutput bool

	configClient client.ConfigClient
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// noClient replaces the root PersistentPreRunE on commands that work
// against the database directly.
func noClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "corrctl <command>",
	Short:         "Manage correlation logging configuration",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if httpURL == "" {
			return fmt.Errorf("--http-url is required")
		}
		configClient = client.NewHTTPClient(httpURL, apiToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", envOrDefault("CORRLOG_HTTP_URL", "http://localhost:8080"), "admin gateway URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("CORRLOG_TOKEN"), "bearer token for the admin gateway")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "configs", Title: "Configs:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Configs
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

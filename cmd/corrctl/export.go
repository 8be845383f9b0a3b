package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a JSONL snapshot of all correlation configs",
	GroupID: "configs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		var w io.Writer = os.Stdout
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		src := snapshot.SourceFunc(configClient.GetConfigs)
		h, err := snapshot.ExportJSONL(cmd.Context(), src, w)
		if err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Fprintf(os.Stderr, "wrote snapshot %s (%d configs) to %s\n", h.ID, h.ConfigCount, out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}

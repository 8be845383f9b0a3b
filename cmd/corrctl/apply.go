package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/snapshot"
)

var applyCmd = &cobra.Command{
	Use:   "apply -f <file>",
	Short: "Apply correlation configs from a file",
	Long: `Apply correlation configs from a file as one atomic update.

The file is either the gateway's JSON body ({"components": [...]}) or a
JSONL snapshot written by "corrctl export". Use -f - to read stdin.`,
	GroupID: "configs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		var r io.Reader = os.Stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		configs, err := loadConfigs(r)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := validateLocally(configs); err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("%d configs valid; nothing applied\n", len(configs))
			return nil
		}

		resp, err := configClient.UpdateConfigs(cmd.Context(), configs)
		if err != nil {
			return fmt.Errorf("applying configs: %w", err)
		}
		printNotifyWarning(resp.NotifyWarning)
		return printConfigs(resp.Configs)
	},
}

// loadConfigs accepts either a {"components": [...]} document or a JSONL
// snapshot, telling them apart by the first JSON value.
func loadConfigs(r io.Reader) ([]model.CorrelationConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type       string                     `json:"type"`
		Components *[]model.CorrelationConfig `json:"components"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch {
	case probe.Type == "header":
		_, configs, err := snapshot.ReadJSONL(bytes.NewReader(data))
		return configs, err
	case probe.Components != nil:
		if dec.More() {
			return nil, errors.New("unexpected data after components document")
		}
		configs := *probe.Components
		for i := range configs {
			if configs[i].Properties == nil {
				configs[i].Properties = []model.CorrelationConfigProperty{}
			}
		}
		return configs, nil
	}
	return nil, errors.New(`expected a {"components": [...]} document or a snapshot`)
}

// validateLocally runs the same checks the server applies, so a bad file
// fails before any request is made.
func validateLocally(configs []model.CorrelationConfig) error {
	if err := model.ValidateComponents(configs); err != nil {
		return fmt.Errorf("%w (%s)", err, model.ValidComponentsHint())
	}
	for _, c := range configs {
		for _, p := range c.Properties {
			if err := model.ValidateProperty(c.Component, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "file to apply (- for stdin)")
	applyCmd.Flags().Bool("dry-run", false, "validate without applying")
	_ = applyCmd.MarkFlagRequired("file")
}

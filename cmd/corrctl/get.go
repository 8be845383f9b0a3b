package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

var getCmd = &cobra.Command{
	Use:     "get [component...]",
	Short:   "Show correlation configs",
	GroupID: "configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := configClient.GetConfigs(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting configs: %w", err)
		}
		filtered, err := filterConfigs(configs, args)
		if err != nil {
			return err
		}
		return printConfigs(filtered)
	},
}

// filterConfigs keeps the named components, in the order given. No names
// means all.
func filterConfigs(configs []model.CorrelationConfig, names []string) ([]model.CorrelationConfig, error) {
	if len(names) == 0 {
		return configs, nil
	}
	byName := make(map[model.Component]model.CorrelationConfig, len(configs))
	for _, c := range configs {
		byName[c.Component] = c
	}
	out := make([]model.CorrelationConfig, 0, len(names))
	for _, n := range names {
		comp := model.Component(n)
		if !comp.IsValid() {
			return nil, &model.InvalidComponentError{Name: n}
		}
		c, ok := byName[comp]
		if !ok {
			return nil, fmt.Errorf("component %s not found on server", n)
		}
		out = append(out, c)
	}
	return out, nil
}

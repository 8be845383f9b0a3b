package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

var setCmd = &cobra.Command{
	Use:   "set <component>",
	Short: "Update one component's correlation config",
	Long: `Update one component's correlation config.

Flags that are not given keep the component's current value. Properties
take the form name=v1,v2 and replace the whole value list.

  corrctl set jdbc --enabled=true --property deniedThreads=PoolA,PoolB`,
	GroupID: "configs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp := model.Component(args[0])
		if !comp.IsValid() {
			return fmt.Errorf("%w (%s)", &model.InvalidComponentError{Name: args[0]}, model.ValidComponentsHint())
		}

		rawProps, _ := cmd.Flags().GetStringArray("property")
		props, err := parsePropertyFlags(comp, rawProps)
		if err != nil {
			return err
		}

		current, err := configClient.GetConfigs(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting configs: %w", err)
		}
		update := model.CorrelationConfig{Component: comp, Enabled: model.EnabledFalse, Properties: []model.CorrelationConfigProperty{}}
		for _, c := range current {
			if c.Component == comp {
				update.Enabled = c.Enabled
			}
		}
		if cmd.Flags().Changed("enabled") {
			enabled, _ := cmd.Flags().GetBool("enabled")
			update.Enabled = strconv.FormatBool(enabled)
		}
		update.Properties = props

		resp, err := configClient.UpdateConfigs(cmd.Context(), []model.CorrelationConfig{update})
		if err != nil {
			return fmt.Errorf("updating %s: %w", comp, err)
		}
		printNotifyWarning(resp.NotifyWarning)
		return printConfigs(resp.Configs)
	},
}

// parsePropertyFlags turns name=v1,v2 flags into properties, checking each
// against the component's rules before anything is sent.
func parsePropertyFlags(comp model.Component, raw []string) ([]model.CorrelationConfigProperty, error) {
	props := make([]model.CorrelationConfigProperty, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --property %q: want name=v1,v2", r)
		}
		if seen[name] {
			return nil, fmt.Errorf("property %s given more than once", name)
		}
		seen[name] = true

		values := []string{}
		for _, v := range strings.Split(value, model.ValueSeparator) {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		p := model.CorrelationConfigProperty{Name: name, Value: values}
		if err := model.ValidateProperty(comp, p); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func init() {
	setCmd.Flags().Bool("enabled", false, "enable or disable correlation logging for the component")
	setCmd.Flags().StringArray("property", nil, "property as name=v1,v2 (repeatable)")
}

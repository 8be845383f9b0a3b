package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/ui"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printConfigs(configs []model.CorrelationConfig) error {
	if jsonOutput {
		return printJSON(model.ConfigList{Components: configs})
	}
	writeConfigsTable(os.Stdout, configs)
	return nil
}

// writeConfigsTable renders one row per component with its properties
// as name=v1,v2.
func writeConfigsTable(out io.Writer, configs []model.CorrelationConfig) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tSTATUS\tPROPERTIES")
	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Component, ui.RenderEnabled(c.IsEnabled()), formatProperties(c.Properties))
	}
	w.Flush()
}

func formatProperties(props []model.CorrelationConfigProperty) string {
	if len(props) == 0 {
		return ui.RenderMuted("-")
	}
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Name + "=" + model.JoinValue(p.Value)
	}
	return strings.Join(parts, " ")
}

func printNotifyWarning(warning string) {
	if warning != "" {
		fmt.Fprintln(os.Stderr, ui.RenderWarning("warning: "+warning))
	}
}

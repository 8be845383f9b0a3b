package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"reflect"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/events"
	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print correlation config changes as they happen",
	Long: `Print correlation config changes as they happen.

With --nats-url (or CORRLOG_NATS_URL) the command listens for change
notifications; otherwise it polls the gateway.`,
	GroupID: "configs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		natsURL, _ := cmd.Flags().GetString("nats-url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if natsURL != "" {
			return watchNATS(ctx, natsURL)
		}
		return watchPoll(ctx, interval)
	},
}

// watchNATS prints every ConfigsUpdated event until ctx is done.
func watchNATS(ctx context.Context, natsURL string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicConfigsUpdated)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			var ev events.ConfigsUpdated
			if err := json.Unmarshal(data, &ev); err != nil {
				fmt.Fprintf(os.Stderr, "skipping malformed event: %v\n", err)
				continue
			}
			if err := printEvent(ev); err != nil {
				return err
			}
		}
	}
}

func printEvent(ev events.ConfigsUpdated) error {
	if jsonOutput {
		return printJSON(ev)
	}
	who := ev.Actor
	if ev.Tenant != "" {
		who += "@" + ev.Tenant
	}
	fmt.Printf("%s %s %s\n", ui.RenderMuted(ev.Timestamp.Local().Format("15:04:05")), ui.RenderAccent(who), ev.ID)
	writeConfigsTable(os.Stdout, ev.Configs)
	return nil
}

// watchPoll fetches configs at the given interval and prints components
// whose config changed.
func watchPoll(ctx context.Context, interval time.Duration) error {
	seen := make(map[model.Component]model.CorrelationConfig)
	for {
		configs, err := configClient.GetConfigs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("getting configs: %w", err)
		}
		// The first round prints everything since seen is empty.
		if changed := diffConfigs(configs, seen); len(changed) > 0 {
			if err := printConfigs(changed); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// diffConfigs returns configs that are new or differ from seen, and
// updates seen in place.
func diffConfigs(configs []model.CorrelationConfig, seen map[model.Component]model.CorrelationConfig) []model.CorrelationConfig {
	var changed []model.CorrelationConfig
	for _, c := range configs {
		prev, ok := seen[c.Component]
		if !ok || !reflect.DeepEqual(prev, c) {
			changed = append(changed, c)
		}
		seen[c.Component] = c
	}
	return changed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "poll interval when not using NATS")
	watchCmd.Flags().String("nats-url", os.Getenv("CORRLOG_NATS_URL"), "NATS server URL for change notifications")
}

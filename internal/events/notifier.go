package events

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/idgen"
	"github.com/alfredjeanlab/corrlog/internal/model"
)

// Notifier turns committed config updates into ConfigsUpdated events.
type Notifier struct {
	publisher Publisher
	now       func() time.Time
}

// NewNotifier returns a Notifier publishing through p.
func NewNotifier(p Publisher) *Notifier {
	return &Notifier{publisher: p, now: time.Now}
}

// ConfigsCommitted publishes the committed configs on TopicConfigsUpdated.
func (n *Notifier) ConfigsCommitted(ctx context.Context, caller auth.Caller, configs []model.CorrelationConfig) error {
	id, err := idgen.GenerateWithPrefix(idgen.EventPrefix)
	if err != nil {
		return err
	}
	event := ConfigsUpdated{
		ID:        id,
		Actor:     caller.Username,
		Tenant:    caller.Tenant,
		Timestamp: n.now().UTC(),
		Configs:   configs,
	}
	if err := n.publisher.Publish(ctx, TopicConfigsUpdated, event); err != nil {
		return fmt.Errorf("publish %s: %w", id, err)
	}
	return nil
}
